package testrun

import (
	"fmt"

	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/testparser"
)

// Error reports a completed test run with failing or erroring tests.
type Error struct {
	Counts testparser.TestCounts
}

func (e *Error) Error() string {
	return fmt.Sprintf("there are test failures: Tests run: %d, Failures: %d, Errors: %d",
		e.Counts.Tests, e.Counts.Failures, e.Counts.Errors)
}

// Kind returns errors.KindTestRun.
func (e *Error) Kind() errors.ErrorKind {
	return errors.KindTestRun
}

// ExitCode returns errors.ExitRuntimeError.
func (e *Error) ExitCode() int {
	return errors.ExitRuntimeError
}
