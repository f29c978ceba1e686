// Package testparser parses Surefire-style XML test reports.
package testparser

import "fmt"

// FailedTest holds information about a single failed test case.
type FailedTest struct {
	Suite  string // Enclosing top-level suite
	Name   string // Test case name (e.g., "testAdd")
	Reason string // First line of the failure or error message
	Error  bool   // true for an error, false for an assertion failure
}

// SurefireResult is the outcome of one top-level test suite.
type SurefireResult struct {
	Name        string
	Tests       int
	Failures    int
	Errors      int
	Time        string // Elapsed time exactly as reported
	FailedTests []FailedTest
}

// String renders the result the way the console summary prints it.
func (r SurefireResult) String() string {
	return fmt.Sprintf("Running %s\nTests run: %d, Failures: %d, Errors: %d, Time elapsed: %s",
		r.Name, r.Tests, r.Failures, r.Errors, r.Time)
}

// Failed reports whether the suite had failures or errors.
func (r SurefireResult) Failed() bool {
	return r.Failures > 0 || r.Errors > 0
}

// TestCounts holds aggregated test result counts.
type TestCounts struct {
	Tests       int
	Failures    int
	Errors      int
	Suites      int
	FailedTests []FailedTest // details of failed tests
}

// Add adds another TestCounts to this one, aggregating the counts.
func (tc *TestCounts) Add(other *TestCounts) {
	if other == nil {
		return
	}
	tc.Tests += other.Tests
	tc.Failures += other.Failures
	tc.Errors += other.Errors
	tc.Suites += other.Suites
	tc.FailedTests = append(tc.FailedTests, other.FailedTests...)
}

// AddResult adds one suite result to the totals.
func (tc *TestCounts) AddResult(r SurefireResult) {
	tc.Tests += r.Tests
	tc.Failures += r.Failures
	tc.Errors += r.Errors
	tc.Suites++
	tc.FailedTests = append(tc.FailedTests, r.FailedTests...)
}

// Failed reports whether any failure or error was counted.
func (tc *TestCounts) Failed() bool {
	return tc.Failures > 0 || tc.Errors > 0
}

// Passed returns the number of tests that neither failed nor errored.
func (tc *TestCounts) Passed() int {
	if p := tc.Tests - tc.Failures - tc.Errors; p > 0 {
		return p
	}
	return 0
}
