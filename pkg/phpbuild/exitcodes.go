// Package phpbuild provides public constants for external tools integrating
// with phpbuild.
package phpbuild

// Exit codes returned by the phpbuild CLI.
// These constants allow external tools to check exit codes symbolically
// rather than using magic numbers.
const (
	// ExitSuccess indicates every file validated and every test passed.
	ExitSuccess = 0

	// ExitFailure indicates a file failed validation, a test failed or
	// dependencies could not be unpacked.
	ExitFailure = 1

	// ExitConfigError indicates an unreadable or invalid configuration or bad flags.
	ExitConfigError = 2

	// ExitEnvError indicates the interpreter could not be run or its version
	// could not be determined.
	ExitEnvError = 3
)
