package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// Process is a started interpreter process.
// Both streams must be read to EOF before calling Wait.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the process exits and returns its exit code.
	// A non-zero exit is not an error; err is reserved for abnormal termination.
	Wait() (exitCode int, err error)
}

// Runner starts processes. This abstraction allows faking the interpreter in tests.
type Runner interface {
	Start(ctx context.Context, name string, args []string) (Process, error)
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct {
	// Dir is the working directory for started processes. Empty means the current one.
	Dir string
	// Env, if non-nil, replaces the inherited environment.
	Env []string
}

// NewRunner creates a new ExecRunner.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Start launches name with args and returns handles to its output streams.
func (r *ExecRunner) Start(ctx context.Context, name string, args []string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	// Killed by a signal or the context.
	return -1, err
}

// Verify ExecRunner implements Runner at compile time.
var _ Runner = (*ExecRunner)(nil)
