package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"
)

type Options struct {
	Shell string
	PTY   bool
}

// ConfirmExecution asks "[y/N]" on out and reads the answer from in. Anything but
// y/yes declines. Without autoConfirm a non-interactive input is an error.
func ConfirmExecution(in io.Reader, out io.Writer, command string, autoConfirm bool, interactive bool) (bool, error) {
	if autoConfirm {
		return true, nil
	}
	if !interactive {
		return false, fmt.Errorf("non-interactive terminal; pass --yes to execute or --no-execute to skip")
	}

	fmt.Fprintf(out, "\nDo you want to execute this command? [y/N] %s\n> ", command)
	return readYes(in)
}

func ConfirmRiskyExecution(in io.Reader, out io.Writer, command string, reason string, interactive bool) (bool, error) {
	if !interactive {
		return false, fmt.Errorf("risky command requires interactive confirmation")
	}

	trimmedReason := strings.TrimSpace(reason)
	if trimmedReason == "" {
		trimmedReason = "risky operation detected"
	}
	fmt.Fprintf(out, "WARNING: %s\n", trimmedReason)
	fmt.Fprintf(out, "You may be deleting/changing critical resources.\nProceed anyway? [y/N] %s\n> ", command)
	return readYes(in)
}

func readYes(in io.Reader) (bool, error) {
	reader := bufio.NewReader(in)
	input, readError := reader.ReadString('\n')
	if readError != nil && !errors.Is(readError, io.EOF) && !errors.Is(readError, os.ErrClosed) {
		return false, readError
	}

	normalized := strings.ToLower(strings.TrimSpace(input))
	return normalized == "y" || normalized == "yes", nil
}

// IsInteractive reports whether file is attached to a terminal.
func IsInteractive(file *os.File) bool {
	return file != nil && term.IsTerminal(int(file.Fd()))
}

// Run executes command through the shell and returns its exit code. The command
// runs in a pseudo-terminal when requested and stdin is a terminal.
func Run(ctx context.Context, command string, options Options) (int, error) {
	if options.PTY && runtime.GOOS != "windows" && IsInteractive(os.Stdin) {
		return RunInPTY(ctx, command, options.Shell)
	}
	return RunStreaming(ctx, command, options.Shell)
}

func RunStreaming(ctx context.Context, command string, shell string) (int, error) {
	execCommand := buildShellCommand(ctx, command, shell)
	execCommand.Stdout = os.Stdout
	execCommand.Stderr = os.Stderr
	execCommand.Stdin = os.Stdin
	return exitStatus(ctx, execCommand.Run())
}

func exitStatus(ctx context.Context, runError error) (int, error) {
	if runError == nil {
		return 0, nil
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return 130, context.Canceled
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) {
		if statusCode := extractExitCode(exitError); statusCode >= 0 {
			return statusCode, runError
		}
		return 1, runError
	}

	return 1, runError
}

func buildShellCommand(ctx context.Context, command string, shell string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	shell = strings.TrimSpace(shell)
	if shell == "" {
		shell = "sh"
	}
	return exec.CommandContext(ctx, shell, "-c", command)
}

func extractExitCode(exitError *exec.ExitError) int {
	if exitError == nil {
		return -1
	}

	if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
		return status.ExitStatus()
	}

	message := exitError.Error()
	segments := strings.Split(message, "exit status ")
	if len(segments) > 1 {
		if parsed, parseError := strconv.Atoi(strings.TrimSpace(segments[len(segments)-1])); parseError == nil {
			return parsed
		}
	}
	return -1
}
