//go:build !windows

package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// RunInPTY runs command attached to a pseudo-terminal so full-screen and colored
// programs behave as they would when typed. Stdin is put in raw mode for the
// duration and the window size follows the controlling terminal.
func RunInPTY(ctx context.Context, command string, shell string) (int, error) {
	execCommand := buildShellCommand(ctx, command, shell)
	ptyFile, err := pty.Start(execCommand)
	if err != nil {
		return 1, fmt.Errorf("start pty: %w", err)
	}
	defer ptyFile.Close()

	resize := make(chan os.Signal, 1)
	signal.Notify(resize, syscall.SIGWINCH)
	defer func() {
		signal.Stop(resize)
		close(resize)
	}()
	go func() {
		for range resize {
			_ = pty.InheritSize(os.Stdin, ptyFile)
		}
	}()
	resize <- syscall.SIGWINCH

	if oldState, rawErr := term.MakeRaw(int(os.Stdin.Fd())); rawErr == nil {
		defer func() { _ = term.Restore(int(os.Stdin.Fd()), oldState) }()
	}

	go func() { _, _ = io.Copy(ptyFile, os.Stdin) }()
	_, _ = io.Copy(os.Stdout, ptyFile)

	return exitStatus(ctx, execCommand.Wait())
}
