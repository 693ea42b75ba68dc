package system

import (
	"context"
	"io"
	"os/exec"
)

// Runner executes external commands and returns their combined stdout and
// stderr output. The package and service drivers depend on this interface
// instead of os/exec directly so they can be tested without root and
// without touching the host.
type Runner interface {
	// Run executes name with args and waits for it to finish.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// RunStdin is like Run but feeds stdin to the command. dpkg
	// --set-selections is the only consumer.
	RunStdin(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host via os/exec.
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes name with args and returns the combined output. The error
// is returned as os/exec produced it; callers add command context when
// wrapping.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// RunStdin executes name with args, feeding stdin to the command.
func (r *ExecRunner) RunStdin(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	return cmd.CombinedOutput()
}
