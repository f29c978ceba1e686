// Package errors provides structured error types and exit codes for phpbuild.
//
// Error taxonomy:
//   - KindVersionUnresolved: the interpreter could not be started or its version
//     banner could not be parsed. Aborts the run before any file is processed.
//   - KindProcess, KindError, KindWarning: a single interpreter invocation failed.
//     See interpreter.ExecError. Fatal for that file only.
//   - KindIO: filesystem failure while materializing dependencies or copying
//     sources. Fatal for the whole run.
//   - KindAggregate: all per-file failures of one tree walk. See walk.AggregateError.
//   - KindTestRun: the test run finished with failures or errors. See testrun.Error.
//
// Per-file failures are recovered by the walker and only escalate at the end of
// the walk; version and dependency failures escalate immediately.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess          = 0 // Success
	ExitRuntimeError     = 1 // Runtime error (file failed, tests failed, etc.)
	ExitConfigError      = 2 // Configuration error (invalid config, etc.)
	ExitEnvironmentError = 3 // Environment error (interpreter missing, version unresolved, etc.)
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindEnvironment
	KindVersionUnresolved
	KindProcess
	KindError
	KindWarning
	KindIO
	KindAggregate
	KindTestRun
)

var kindNames = map[ErrorKind]string{
	KindRuntime:           "runtime",
	KindConfig:            "config",
	KindNotFound:          "not_found",
	KindValidation:        "validation",
	KindEnvironment:       "environment",
	KindVersionUnresolved: "version_unresolved",
	KindProcess:           "process",
	KindError:             "error",
	KindWarning:           "warning",
	KindIO:                "io",
	KindAggregate:         "aggregate",
	KindTestRun:           "test_run",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ExitCodeForKind maps an error kind to the CLI exit code.
func ExitCodeForKind(kind ErrorKind) int {
	switch kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment, KindVersionUnresolved:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// BuildError is the base error type for phpbuild.
type BuildError struct {
	Kind    ErrorKind
	Message string
	File    string // File the error is attributed to, if any
	Cause   error  // Underlying error
}

func (e *BuildError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.File != "" {
		return fmt.Sprintf("%s\nin file: %s", msg, e.File)
	}
	return msg
}

func (e *BuildError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *BuildError) ExitCode() int {
	return ExitCodeForKind(e.Kind)
}

// New creates a new runtime error.
func New(message string) *BuildError {
	return &BuildError{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *BuildError {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *BuildError {
	return &BuildError{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *BuildError {
	return Config(fmt.Sprintf(format, args...))
}

// VersionUnresolved creates an error for a failed interpreter version probe.
func VersionUnresolved(message string, cause error) *BuildError {
	return &BuildError{
		Kind:    KindVersionUnresolved,
		Message: message,
		Cause:   cause,
	}
}

// IO creates a filesystem error.
func IO(cause error, message string) *BuildError {
	return &BuildError{
		Kind:    KindIO,
		Message: message,
		Cause:   cause,
	}
}

// IOf creates a filesystem error with formatting.
func IOf(cause error, format string, args ...interface{}) *BuildError {
	return IO(cause, fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *BuildError {
	return &BuildError{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// FileError creates a runtime error attributed to a file.
func FileError(file, message string) *BuildError {
	return &BuildError{
		Kind:    KindError,
		File:    file,
		Message: message,
	}
}

// NotFound creates a not found error.
func NotFound(what, name string) *BuildError {
	return &BuildError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// IsKind reports whether err, or any error it wraps or joins, has the given
// kind. Besides BuildError it recognizes errors with a Kind() ErrorKind method.
func IsKind(err error, kind ErrorKind) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *BuildError:
		if e.Kind == kind {
			return true
		}
	case interface{ Kind() ErrorKind }:
		if e.Kind() == kind {
			return true
		}
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return IsKind(u.Unwrap(), kind)
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if IsKind(e, kind) {
				return true
			}
		}
	}
	return false
}

// exitCoder is implemented by every error type that maps to an exit code.
type exitCoder interface {
	ExitCode() int
}

// GetExitCode returns the exit code for an error.
// For joined errors the highest exit code wins.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		code := ExitSuccess
		for _, e := range joined.Unwrap() {
			if c := GetExitCode(e); c > code {
				code = c
			}
		}
		if code != ExitSuccess {
			return code
		}
		return ExitRuntimeError
	}
	var ec exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return ExitRuntimeError
}
