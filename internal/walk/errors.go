package walk

import (
	"strings"

	"github.com/AndreyAkinshin/phpbuild/internal/errors"
)

// Exception is a failure of one file during a walk.
type Exception struct {
	Path string
	Err  error
}

func (e *Exception) Error() string {
	return e.Err.Error()
}

func (e *Exception) Unwrap() error {
	return e.Err
}

// AggregateError holds every per-file failure of one walk, in visitation order.
type AggregateError struct {
	Root       string
	Exceptions []*Exception
}

// Error joins the message of every failure with newlines.
func (e *AggregateError) Error() string {
	msgs := make([]string, len(e.Exceptions))
	for i, ex := range e.Exceptions {
		msgs[i] = ex.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Exceptions))
	for i, ex := range e.Exceptions {
		errs[i] = ex
	}
	return errs
}

// Kind returns errors.KindAggregate.
func (e *AggregateError) Kind() errors.ErrorKind {
	return errors.KindAggregate
}

// ExitCode returns the highest exit code of the collected failures.
func (e *AggregateError) ExitCode() int {
	code := errors.ExitRuntimeError
	for _, ex := range e.Exceptions {
		if c := errors.GetExitCode(ex.Err); c > code {
			code = c
		}
	}
	return code
}

// Files returns the failed paths in visitation order.
func (e *AggregateError) Files() []string {
	files := make([]string, len(e.Exceptions))
	for i, ex := range e.Exceptions {
		files[i] = ex.Path
	}
	return files
}
