package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestBuildError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *BuildError
		expected string
	}{
		{
			name:     "message only",
			err:      &BuildError{Message: "something failed"},
			expected: "something failed",
		},
		{
			name:     "with file",
			err:      &BuildError{File: "/src/a.php", Message: "parse error"},
			expected: "parse error\nin file: /src/a.php",
		},
		{
			name:     "with cause",
			err:      &BuildError{Message: "extract", Cause: errors.New("disk full")},
			expected: "extract: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuildError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &BuildError{
		Message: "wrapper",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}

	errNoCause := &BuildError{Message: "no cause"}
	if got := errNoCause.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestBuildError_ExitCode(t *testing.T) {
	tests := []struct {
		name     string
		kind     ErrorKind
		expected int
	}{
		{"runtime", KindRuntime, ExitRuntimeError},
		{"config", KindConfig, ExitConfigError},
		{"validation", KindValidation, ExitConfigError},
		{"not found", KindNotFound, ExitRuntimeError},
		{"environment", KindEnvironment, ExitEnvironmentError},
		{"version unresolved", KindVersionUnresolved, ExitEnvironmentError},
		{"io", KindIO, ExitRuntimeError},
		{"test run", KindTestRun, ExitRuntimeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &BuildError{Kind: tt.kind}
			if got := err.ExitCode(); got != tt.expected {
				t.Errorf("ExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  *BuildError
		kind ErrorKind
		msg  string
	}{
		{"New", New("x"), KindRuntime, "x"},
		{"Newf", Newf("error %d: %s", 42, "details"), KindRuntime, "error 42: details"},
		{"Config", Config("bad"), KindConfig, "bad"},
		{"Configf", Configf("field %q: %s", "name", "is required"), KindConfig, `field "name": is required`},
		{"FileError", FileError("a.php", "no report"), KindError, "no report"},
		{"VersionUnresolved", VersionUnresolved("cannot resolve", cause), KindVersionUnresolved, "cannot resolve"},
		{"IOf", IOf(cause, "copy %s", "a"), KindIO, "copy a"},
		{"Wrap", Wrap(cause, "wrapped"), KindRuntime, "wrapped"},
		{"NotFound", NotFound("report", "a.xml"), KindNotFound, "report not found: a.xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Message != tt.msg {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.msg)
			}
		})
	}
}

type kindedError struct{ kind ErrorKind }

func (e *kindedError) Error() string   { return e.kind.String() }
func (e *kindedError) Kind() ErrorKind { return e.kind }

func TestIsKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
		want bool
	}{
		{"outer BuildError", Wrap(IO(errors.New("x"), "extract"), "prepare"), KindRuntime, true},
		{"wrapped BuildError", Wrap(IO(errors.New("x"), "extract"), "prepare"), KindIO, true},
		{"plain", errors.New("plain"), KindIO, false},
		{"nil", nil, KindRuntime, false},
		{"Kind method", &kindedError{KindAggregate}, KindAggregate, true},
		{"joined second", errors.Join(&kindedError{KindAggregate}, &kindedError{KindTestRun}), KindTestRun, true},
		{"joined missing", errors.Join(New("a"), Config("b")), KindTestRun, false},
		{"fmt wrapped", fmt.Errorf("load: %w", Config("bad")), KindConfig, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsKind(tt.err, tt.kind); got != tt.want {
				t.Errorf("IsKind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, ExitSuccess},
		{"BuildError runtime", New("runtime"), ExitRuntimeError},
		{"BuildError config", Config("config"), ExitConfigError},
		{"BuildError validation", &BuildError{Kind: KindValidation}, ExitConfigError},
		{"generic error", errors.New("generic"), ExitRuntimeError},
		{"wrapped config", errors.Join(errors.New("a"), Config("b")), ExitConfigError},
		{"joined runtime and env", errors.Join(New("a"), VersionUnresolved("b", nil)), ExitEnvironmentError},
		{"joined plain", errors.Join(errors.New("a")), ExitRuntimeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.expected {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestErrorKindString(t *testing.T) {
	if got := KindAggregate.String(); got != "aggregate" {
		t.Errorf("String() = %q, want %q", got, "aggregate")
	}
	if got := ErrorKind(99).String(); got != "kind(99)" {
		t.Errorf("String() = %q, want %q", got, "kind(99)")
	}
}

func TestExitCodeConstants(t *testing.T) {
	if ExitSuccess != 0 {
		t.Errorf("ExitSuccess = %d, want 0", ExitSuccess)
	}
	if ExitRuntimeError != 1 {
		t.Errorf("ExitRuntimeError = %d, want 1", ExitRuntimeError)
	}
	if ExitConfigError != 2 {
		t.Errorf("ExitConfigError = %d, want 2", ExitConfigError)
	}
	if ExitEnvironmentError != 3 {
		t.Errorf("ExitEnvironmentError = %d, want 3", ExitEnvironmentError)
	}
}
