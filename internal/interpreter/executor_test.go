package interpreter_test

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	phperrors "github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/interpreter"
	"github.com/AndreyAkinshin/phpbuild/internal/testing/mocks"
)

func newExecutor(r *mocks.Runner, opts interpreter.Options) *interpreter.Executor {
	opts.Runner = r
	return interpreter.NewExecutor(opts)
}

func TestExecutor_Run_Verdicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		result      mocks.Result
		opts        interpreter.Options
		wantErr     bool
		wantVerdict interpreter.Verdict
		wantKind    phperrors.ErrorKind
	}{
		{
			name:        "clean run",
			result:      mocks.Result{Stdout: "all good\n"},
			wantVerdict: interpreter.VerdictOK,
		},
		{
			name:        "error line",
			result:      mocks.Result{Stdout: "x\nParse error: syntax error in a.php on line 3\n"},
			wantErr:     true,
			wantVerdict: interpreter.VerdictError,
			wantKind:    phperrors.KindError,
		},
		{
			name:        "warning line",
			result:      mocks.Result{Stdout: "Warning: fopen(x): failed\n"},
			wantErr:     true,
			wantVerdict: interpreter.VerdictWarning,
			wantKind:    phperrors.KindWarning,
		},
		{
			name:        "warning ignored",
			result:      mocks.Result{Stdout: "Notice: Undefined index\n"},
			opts:        interpreter.Options{IgnoreWarnings: true},
			wantVerdict: interpreter.VerdictOK,
		},
		{
			name:        "warning ignored but non-zero exit",
			result:      mocks.Result{Stdout: "Notice: Undefined index\n", ExitCode: 255},
			opts:        interpreter.Options{IgnoreWarnings: true},
			wantErr:     true,
			wantVerdict: interpreter.VerdictWarning,
			wantKind:    phperrors.KindWarning,
		},
		{
			name:        "error and warning",
			result:      mocks.Result{Stdout: "Warning: a\nFatal error: b\n"},
			wantErr:     true,
			wantVerdict: interpreter.VerdictError,
			wantKind:    phperrors.KindError,
		},
		{
			name:        "stderr is always fatal",
			result:      mocks.Result{Stdout: "fine\n", Stderr: "segfault-ish\n"},
			wantErr:     true,
			wantVerdict: interpreter.VerdictError,
			wantKind:    phperrors.KindError,
		},
		{
			name:        "non-zero exit without diagnostics",
			result:      mocks.Result{Stdout: "bye\n", ExitCode: 1},
			wantErr:     true,
			wantVerdict: interpreter.VerdictProcessFailure,
			wantKind:    phperrors.KindProcess,
		},
		{
			name:        "include error suppressed",
			result:      mocks.Result{Stdout: "Warning: include_once(Foo.php): failed to open stream\n"},
			opts:        interpreter.Options{IgnoreIncludeErrors: true},
			wantVerdict: interpreter.VerdictOK,
		},
		{
			name:        "include suppressed but unrelated error fails",
			result:      mocks.Result{Stdout: "Warning: require_once(Foo.php): failed\nFatal error: Call to undefined function bar()\n"},
			opts:        interpreter.Options{IgnoreIncludeErrors: true},
			wantErr:     true,
			wantVerdict: interpreter.VerdictError,
			wantKind:    phperrors.KindError,
		},
		{
			name:        "start failure",
			result:      mocks.Result{StartErr: exec.ErrNotFound},
			wantErr:     true,
			wantVerdict: interpreter.VerdictProcessFailure,
			wantKind:    phperrors.KindProcess,
		},
		{
			name:        "abnormal termination",
			result:      mocks.Result{Stdout: "partial\n", ExitCode: -1, WaitErr: errors.New("signal: killed")},
			wantErr:     true,
			wantVerdict: interpreter.VerdictProcessFailure,
			wantKind:    phperrors.KindProcess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newExecutor(mocks.NewRunner().WithResult(tt.result), tt.opts)

			outcome, err := e.Exec(context.Background(), `"a.php"`, "/src/a.php", nil)
			if outcome.Verdict != tt.wantVerdict {
				t.Errorf("Verdict = %v, want %v", outcome.Verdict, tt.wantVerdict)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("Exec() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var execErr *interpreter.ExecError
			if !errors.As(err, &execErr) {
				t.Fatalf("error type = %T, want *ExecError", err)
			}
			if execErr.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", execErr.Kind(), tt.wantKind)
			}
			if execErr.File != "/src/a.php" {
				t.Errorf("File = %q, want %q", execErr.File, "/src/a.php")
			}
		})
	}
}

func TestExecutor_Run_ForwardsEveryLine(t *testing.T) {
	t.Parallel()
	r := mocks.NewRunner().WithResult(mocks.Result{Stdout: "one\nWarning: two\r\nthree"})
	e := newExecutor(r, interpreter.Options{})

	var got []string
	_, err := e.Run(context.Background(), "x.php", "", func(line string) {
		got = append(got, line)
	})
	if err == nil {
		t.Fatal("expected warning failure")
	}
	want := []string{"one", "Warning: two", "three"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("sink lines = %q, want %q", got, want)
	}
}

func TestExecutor_Diagnostics(t *testing.T) {
	t.Parallel()
	r := mocks.NewRunner().WithResult(mocks.Result{
		Stdout:   "ok line\nNotice: n1\nFatal error: f1\n",
		Stderr:   "err1\nerr2\n",
		ExitCode: 255,
	})
	e := newExecutor(r, interpreter.Options{})

	outcome, err := e.Exec(context.Background(), "x.php", "", nil)
	if err == nil {
		t.Fatal("expected failure")
	}
	want := "Notice: n1\nFatal error: f1\nerr1\nerr2\n"
	if outcome.Diagnostics != want {
		t.Errorf("Diagnostics = %q, want %q", outcome.Diagnostics, want)
	}
	if outcome.ExitCode != 255 {
		t.Errorf("ExitCode = %d, want 255", outcome.ExitCode)
	}
	if len(outcome.Stdout) != 3 {
		t.Errorf("Stdout lines = %d, want 3", len(outcome.Stdout))
	}
	if !strings.Contains(err.Error(), "[exit 255]") || !strings.Contains(err.Error(), "err2") {
		t.Errorf("error message missing details: %q", err.Error())
	}
}

func TestExecutor_Output(t *testing.T) {
	t.Parallel()

	t.Run("success returns buffered stdout", func(t *testing.T) {
		t.Parallel()
		e := newExecutor(mocks.NewRunner().WithResult(mocks.Result{Stdout: "a\nb\n"}), interpreter.Options{})
		out, err := e.Output(context.Background(), "x.php", "")
		if err != nil {
			t.Fatalf("Output() error = %v", err)
		}
		if out != "a\nb\n" {
			t.Errorf("Output() = %q, want %q", out, "a\nb\n")
		}
	})

	t.Run("failure attaches output", func(t *testing.T) {
		t.Parallel()
		e := newExecutor(mocks.NewRunner().WithResult(mocks.Result{Stdout: "trace\nError: boom\n"}), interpreter.Options{})
		out, err := e.Output(context.Background(), "x.php", "/t/x.php")
		var execErr *interpreter.ExecError
		if !errors.As(err, &execErr) {
			t.Fatalf("error = %v, want *ExecError", err)
		}
		if execErr.Output != "trace\nError: boom\n" || out != execErr.Output {
			t.Errorf("Output = %q, returned %q", execErr.Output, out)
		}
		if !strings.Contains(err.Error(), "trace") {
			t.Errorf("error message should contain attached output: %q", err.Error())
		}
	})
}

func TestExecutor_SplitsArguments(t *testing.T) {
	t.Parallel()
	r := mocks.NewRunner()
	e := newExecutor(r, interpreter.Options{Interpreter: "/usr/bin/php5"})

	req := interpreter.Request{
		GlobalArgs:  "-n",
		IncludePath: []string{"/a b", "/c"},
		Script:      "/runner/bridge.php",
		ScriptArgs:  []string{"/tests/FooTest.php", "/reports/FooTest.xml"},
	}
	if _, err := e.Execute(context.Background(), req, nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	calls := r.Calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	if calls[0].Name != "/usr/bin/php5" {
		t.Errorf("Name = %q", calls[0].Name)
	}
	if runtime.GOOS == "windows" {
		return
	}
	want := []string{"-n", "-d", "include_path=/a b:/c", "/runner/bridge.php", "/tests/FooTest.php", "/reports/FooTest.xml"}
	if strings.Join(calls[0].Args, "|") != strings.Join(want, "|") {
		t.Errorf("Args = %q, want %q", calls[0].Args, want)
	}
}

func TestExecError_ExitCode(t *testing.T) {
	t.Parallel()
	notFound := &interpreter.ExecError{Verdict: interpreter.VerdictProcessFailure, Cause: exec.ErrNotFound}
	if got := notFound.ExitCode(); got != phperrors.ExitEnvironmentError {
		t.Errorf("ExitCode() = %d, want %d", got, phperrors.ExitEnvironmentError)
	}
	classified := &interpreter.ExecError{Verdict: interpreter.VerdictError}
	if got := phperrors.GetExitCode(classified); got != phperrors.ExitRuntimeError {
		t.Errorf("GetExitCode() = %d, want %d", got, phperrors.ExitRuntimeError)
	}
}

func TestExecError_StatusIsNotExitCode(t *testing.T) {
	t.Parallel()
	r := mocks.NewRunner().WithResult(mocks.Result{Stdout: "Parse error: syntax error\n", ExitCode: 255})
	_, err := newExecutor(r, interpreter.Options{}).Output(context.Background(), "-l a.php", "a.php")

	var execErr *interpreter.ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("Output() error = %v, want *ExecError", err)
	}
	if execErr.Status != 255 {
		t.Errorf("Status = %d, want 255", execErr.Status)
	}
	if got := execErr.ExitCode(); got != phperrors.ExitRuntimeError {
		t.Errorf("ExitCode() = %d, want %d", got, phperrors.ExitRuntimeError)
	}
	if !strings.Contains(execErr.Error(), "[exit 255]") {
		t.Errorf("Error() = %q, want process status", execErr.Error())
	}
}

func TestExecRunner_RealProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	t.Parallel()

	e := interpreter.NewExecutor(interpreter.Options{Interpreter: "sh"})

	out, err := e.Output(context.Background(), `-c "echo hello; echo world"`, "")
	if err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	if out != "hello\nworld\n" {
		t.Errorf("Output() = %q", out)
	}

	_, err = e.Output(context.Background(), `-c "echo oops >&2"`, "")
	var execErr *interpreter.ExecError
	if !errors.As(err, &execErr) || execErr.Verdict != interpreter.VerdictError {
		t.Fatalf("stderr output should fail with VerdictError, got %v", err)
	}
	if !strings.Contains(execErr.Diagnostics, "oops") {
		t.Errorf("Diagnostics = %q, want stderr text", execErr.Diagnostics)
	}

	_, err = e.Output(context.Background(), `-c "exit 3"`, "")
	if !errors.As(err, &execErr) || execErr.Status != 3 || execErr.Verdict != interpreter.VerdictProcessFailure {
		t.Errorf("exit 3 should be a process failure with code 3, got %v", err)
	}
}
