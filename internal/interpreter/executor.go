package interpreter

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/logging"
)

// DefaultInterpreter is the executable used when none is configured.
const DefaultInterpreter = "php"

// Verdict classifies a finished interpreter invocation.
type Verdict int

const (
	VerdictOK Verdict = iota
	VerdictWarning
	VerdictError
	VerdictProcessFailure
)

func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "ok"
	case VerdictWarning:
		return "warning"
	case VerdictError:
		return "error"
	default:
		return "process_failure"
	}
}

// Outcome is the result of one interpreter invocation. It belongs to the caller.
type Outcome struct {
	ExitCode    int
	Stdout      []string // Every stdout line, in order
	Diagnostics string   // Classified stdout lines followed by all stderr lines
	Verdict     Verdict
}

// ExecError is returned when an interpreter invocation fails.
type ExecError struct {
	Verdict     Verdict
	Interpreter string
	Args        string
	File        string // File the invocation was about, if any
	Status      int    // Process exit status
	Diagnostics string
	Output      string // Buffered stdout, attached by Executor.Output
	Cause       error  // Start or wait failure, if any
}

func (e *ExecError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to execute %s with arguments '%s' [exit %d]", e.Interpreter, e.Args, e.Status)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if d := strings.TrimRight(e.Diagnostics, "\n"); d != "" {
		b.WriteString(":\n")
		b.WriteString(d)
	}
	if e.File != "" {
		b.WriteString("\nin file: ")
		b.WriteString(e.File)
	}
	if o := strings.TrimRight(e.Output, "\n"); o != "" {
		b.WriteString("\n\n")
		b.WriteString(o)
	}
	return b.String()
}

func (e *ExecError) Unwrap() error {
	return e.Cause
}

// Kind maps the verdict onto the error taxonomy.
func (e *ExecError) Kind() errors.ErrorKind {
	switch e.Verdict {
	case VerdictWarning:
		return errors.KindWarning
	case VerdictError:
		return errors.KindError
	default:
		return errors.KindProcess
	}
}

// ExitCode returns the CLI exit code for this failure.
func (e *ExecError) ExitCode() int {
	if stderrors.Is(e.Cause, exec.ErrNotFound) {
		return errors.ExitEnvironmentError
	}
	return errors.ExitCodeForKind(e.Kind())
}

// Options configures an Executor.
type Options struct {
	Interpreter         string // Executable name or path; defaults to DefaultInterpreter
	IgnoreIncludeErrors bool   // See Classifier.IgnoreIncludeErrors
	IgnoreWarnings      bool   // Warning-level lines do not fail an otherwise clean run
	LogOutput           bool   // Log interpreter stdout at info instead of debug
	Logger              *zap.Logger
	Runner              Runner // Defaults to NewRunner()
}

// Executor invokes the interpreter and classifies its output.
// It keeps no per-invocation state; every call builds its own buffers.
type Executor struct {
	interpreter    string
	classifier     Classifier
	ignoreWarnings bool
	logOutput      bool
	logger         *zap.Logger
	runner         Runner
}

// NewExecutor creates an Executor.
func NewExecutor(opts Options) *Executor {
	interp := opts.Interpreter
	if interp == "" {
		interp = DefaultInterpreter
	}
	runner := opts.Runner
	if runner == nil {
		runner = NewRunner()
	}
	return &Executor{
		interpreter:    interp,
		classifier:     Classifier{IgnoreIncludeErrors: opts.IgnoreIncludeErrors},
		ignoreWarnings: opts.IgnoreWarnings,
		logOutput:      opts.LogOutput,
		logger:         logging.OrNop(opts.Logger),
		runner:         runner,
	}
}

// Interpreter returns the configured interpreter executable.
func (e *Executor) Interpreter() string {
	return e.interpreter
}

// Run executes the interpreter with the raw argument string args.
// Every stdout line is passed to sink (if non-nil) regardless of its severity.
// file is only used to attribute failures.
//
// On success the exit code is returned. On failure the error is an *ExecError.
// Run blocks until the process exits and both output streams are drained;
// ctx is handed to the process and is the place to attach a deadline.
func (e *Executor) Run(ctx context.Context, args, file string, sink func(line string)) (int, error) {
	outcome, err := e.Exec(ctx, args, file, sink)
	if err != nil {
		return outcome.ExitCode, err
	}
	return outcome.ExitCode, nil
}

// Output is like Run but buffers stdout and returns it. On failure the buffered
// output is attached to the returned *ExecError and also returned.
func (e *Executor) Output(ctx context.Context, args, file string) (string, error) {
	var buf strings.Builder
	_, err := e.Run(ctx, args, file, func(line string) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	})
	out := buf.String()
	if err != nil {
		var execErr *ExecError
		if stderrors.As(err, &execErr) {
			execErr.Output = out
		}
		return out, err
	}
	return out, nil
}

// Execute runs a structured request. See Request.Arguments.
func (e *Executor) Execute(ctx context.Context, req Request, sink func(line string)) (int, error) {
	return e.Run(ctx, req.Arguments(), req.file(), sink)
}

// ExecuteOutput runs a structured request and buffers its stdout. See Output.
func (e *Executor) ExecuteOutput(ctx context.Context, req Request) (string, error) {
	return e.Output(ctx, req.Arguments(), req.file())
}

// Exec runs the interpreter and returns the full outcome. The error is non-nil
// exactly when the outcome's verdict is not VerdictOK.
func (e *Executor) Exec(ctx context.Context, args, file string, sink func(line string)) (Outcome, error) {
	fail := func(outcome Outcome, cause error) (Outcome, error) {
		return outcome, &ExecError{
			Verdict:     outcome.Verdict,
			Interpreter: e.interpreter,
			Args:        args,
			File:        file,
			Status:      outcome.ExitCode,
			Diagnostics: outcome.Diagnostics,
			Cause:       cause,
		}
	}

	argv, err := shellquote.Split(args)
	if err != nil {
		return fail(Outcome{ExitCode: -1, Verdict: VerdictProcessFailure}, fmt.Errorf("parse arguments: %w", err))
	}

	e.logger.Debug("executing interpreter",
		zap.String("interpreter", e.interpreter),
		zap.String("args", args))

	proc, err := e.runner.Start(ctx, e.interpreter, argv)
	if err != nil {
		return fail(Outcome{ExitCode: -1, Verdict: VerdictProcessFailure}, err)
	}

	// Each reader owns its own state; nothing is shared until both are done.
	var (
		stdoutLines  []string
		classified   []string
		stderrLines  []string
		errorSeen    bool
		warningSeen  bool
		streamsGroup errgroup.Group
	)
	streamsGroup.Go(func() error {
		return readLines(proc.Stdout(), func(line string) {
			e.logStdout(line)
			stdoutLines = append(stdoutLines, line)
			if sink != nil {
				sink(line)
			}
			switch e.classifier.Classify(line) {
			case SeverityError:
				errorSeen = true
				classified = append(classified, line)
			case SeverityWarning:
				warningSeen = true
				classified = append(classified, line)
			}
		})
	})
	streamsGroup.Go(func() error {
		return readLines(proc.Stderr(), func(line string) {
			e.logger.Debug("php.err", zap.String("line", line))
			stderrLines = append(stderrLines, line)
		})
	})
	readErr := streamsGroup.Wait()
	exitCode, waitErr := proc.Wait()

	if len(stderrLines) > 0 {
		errorSeen = true
	}

	var diag strings.Builder
	for _, line := range classified {
		diag.WriteString(line)
		diag.WriteByte('\n')
	}
	for _, line := range stderrLines {
		diag.WriteString(line)
		diag.WriteByte('\n')
	}

	outcome := Outcome{
		ExitCode:    exitCode,
		Stdout:      stdoutLines,
		Diagnostics: diag.String(),
	}

	if waitErr != nil || readErr != nil {
		outcome.Verdict = VerdictProcessFailure
		return fail(outcome, stderrors.Join(waitErr, readErr))
	}

	switch {
	case errorSeen:
		outcome.Verdict = VerdictError
	case warningSeen && (!e.ignoreWarnings || exitCode != 0):
		outcome.Verdict = VerdictWarning
	case exitCode != 0:
		outcome.Verdict = VerdictProcessFailure
	default:
		outcome.Verdict = VerdictOK
		return outcome, nil
	}
	return fail(outcome, nil)
}

func (e *Executor) logStdout(line string) {
	if e.logOutput {
		e.logger.Info("php.out", zap.String("line", line))
		return
	}
	e.logger.Debug("php.out", zap.String("line", line))
}

// readLines calls fn for every line of r, without the line terminator.
// Unlike bufio.Scanner it has no line length limit.
func readLines(r io.Reader, fn func(string)) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			fn(strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
