package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

var (
	// ErrToolNotFound is returned when a required external tool is not on PATH.
	ErrToolNotFound = errors.New("tool not found")
	// ErrTimeout is returned when an external tool exceeds its deadline.
	ErrTimeout = errors.New("tool timed out")
)

// Runner executes external tools. Tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (stdout, stderr string, err error)
	LookPath(name string) (string, error)
}

// ExecRunner runs tools with os/exec.
type ExecRunner struct{}

// Run executes name with args and captures its output. A non-zero exit is
// returned as *exec.ExitError.
func (ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (string, string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return stdoutBuf.String(), stderrBuf.String(), fmt.Errorf("%s: %w", name, ErrTimeout)
	}
	return stdoutBuf.String(), stderrBuf.String(), err
}

// LookPath reports where name is installed.
func (ExecRunner) LookPath(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrToolNotFound)
	}
	return p, nil
}

// exitCode extracts the process exit code, or -1 when err is not an exit error.
func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

func isTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
