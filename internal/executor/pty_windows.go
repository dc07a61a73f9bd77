//go:build windows

package executor

import "context"

func RunInPTY(ctx context.Context, command string, shell string) (int, error) {
	return RunStreaming(ctx, command, shell)
}
