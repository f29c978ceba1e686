// Package mocks provides shared test doubles for phpbuild packages.
package mocks

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/AndreyAkinshin/phpbuild/internal/interpreter"
)

// Result scripts the behavior of one fake interpreter invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	StartErr error // Returned from Start
	WaitErr  error // Returned from Wait
}

// Call records one invocation.
type Call struct {
	Name string
	Args []string
}

// Runner implements interpreter.Runner for testing.
// Use NewRunner() to create instances with a fluent builder API.
type Runner struct {
	// HandleFunc decides the result of each invocation. If nil, every
	// invocation succeeds with no output.
	HandleFunc func(name string, args []string) Result

	callCount int32
	mu        sync.Mutex
	calls     []Call
}

// NewRunner creates a runner whose invocations succeed silently.
func NewRunner() *Runner {
	return &Runner{}
}

// WithResult makes every invocation return r.
func (m *Runner) WithResult(r Result) *Runner {
	m.HandleFunc = func(string, []string) Result { return r }
	return m
}

// WithHandler sets the function that scripts each invocation.
func (m *Runner) WithHandler(fn func(name string, args []string) Result) *Runner {
	m.HandleFunc = fn
	return m
}

// Start implements interpreter.Runner.
func (m *Runner) Start(_ context.Context, name string, args []string) (interpreter.Process, error) {
	atomic.AddInt32(&m.callCount, 1)
	m.mu.Lock()
	m.calls = append(m.calls, Call{Name: name, Args: append([]string(nil), args...)})
	m.mu.Unlock()

	var r Result
	if m.HandleFunc != nil {
		r = m.HandleFunc(name, args)
	}
	if r.StartErr != nil {
		return nil, r.StartErr
	}
	return &process{result: r}, nil
}

// CallCount returns the number of times Start was called.
func (m *Runner) CallCount() int {
	return int(atomic.LoadInt32(&m.callCount))
}

// Calls returns a copy of the recorded invocations.
func (m *Runner) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Call, len(m.calls))
	copy(result, m.calls)
	return result
}

// Reset clears invocation tracking state.
func (m *Runner) Reset() {
	atomic.StoreInt32(&m.callCount, 0)
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}

type process struct {
	result Result
}

func (p *process) Stdout() io.Reader { return strings.NewReader(p.result.Stdout) }
func (p *process) Stderr() io.Reader { return strings.NewReader(p.result.Stderr) }

func (p *process) Wait() (int, error) {
	return p.result.ExitCode, p.result.WaitErr
}

// Banner returns a Result that prints a version banner for the given version string.
func Banner(version string) Result {
	return Result{Stdout: "PHP " + version + " (cli) (built: Jan  1 2010 00:00:00)\nCopyright (c) The PHP Group\n"}
}

// Verify Runner implements interpreter.Runner at compile time.
var _ interpreter.Runner = (*Runner)(nil)
