// Package testrun executes test files one by one through a bridge script and
// aggregates the XML reports they produce.
package testrun

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/AndreyAkinshin/phpbuild/internal/config"
	"github.com/AndreyAkinshin/phpbuild/internal/deps"
	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/fsutil"
	"github.com/AndreyAkinshin/phpbuild/internal/interpreter"
	"github.com/AndreyAkinshin/phpbuild/internal/logging"
	"github.com/AndreyAkinshin/phpbuild/internal/output"
	"github.com/AndreyAkinshin/phpbuild/internal/testparser"
	"github.com/AndreyAkinshin/phpbuild/internal/walk"
)

// VersionResolver resolves the interpreter version. Implemented by
// *interpreter.VersionDetector.
type VersionResolver interface {
	Resolve(ctx context.Context) (interpreter.Version, error)
}

// Options configures a test run.
type Options struct {
	Paths          config.Paths
	GlobalArgs     string
	CompileDeps    []string // Archives unpacked into Paths.Dependencies, in order
	TestDeps       []string // Archives unpacked into Paths.TestDependencies, in order
	Includes       []string
	Excludes       []string
	FileSuffix     string // Defaults to walk.DefaultSuffix
	TestSuffix     string // Defaults to config.DefaultTestSuffix
	TestFile       string // Only run the test whose path ends with this
	ForceOverwrite bool
	CopyToOutput   bool
}

// Components are the collaborators of a test run.
type Components struct {
	Executor     *interpreter.Executor
	Versions     VersionResolver
	Materializer *deps.Materializer
	Output       *output.Writer // Optional console summary
	Logger       *zap.Logger
}

// Result summarizes a test run.
type Result struct {
	State    State
	Version  interpreter.Version
	Counts   testparser.TestCounts
	Suites   []testparser.SurefireResult
	Executed int // Test files handed to the interpreter
	Copied   int // Files copied into the test classes directory
	Deps     deps.Stats
}

// Aggregator drives one test run. It is not safe for concurrent use.
type Aggregator struct {
	opts   Options
	c      Components
	logger *zap.Logger
	state  State
	result *Result
}

// New creates an Aggregator in StateInit.
func New(opts Options, c Components) *Aggregator {
	if opts.FileSuffix == "" {
		opts.FileSuffix = walk.DefaultSuffix
	}
	if opts.TestSuffix == "" {
		opts.TestSuffix = config.DefaultTestSuffix
	}
	return &Aggregator{
		opts:   opts,
		c:      c,
		logger: logging.OrNop(c.Logger),
		state:  StateInit,
	}
}

// State returns the current phase.
func (a *Aggregator) State() State {
	return a.state
}

// Run executes the test run. A run can only be executed once.
//
// The returned error joins the walk failures (*walk.AggregateError) and the
// test outcome (*Error); either may be present without the other. Preparation
// failures abort the run before any test is executed.
func (a *Aggregator) Run(ctx context.Context) (*Result, error) {
	if a.state != StateInit {
		return a.result, errors.Newf("test run already in state %s", a.state)
	}
	a.result = &Result{}

	script, err := a.prepare(ctx)
	if err != nil {
		a.transition(StateFailed)
		return a.result, err
	}

	paths := a.opts.Paths
	if info, err := os.Stat(paths.Tests); err != nil || !info.IsDir() {
		a.logger.Info("No test cases found; skipping.", zap.String("dir", paths.Tests))
		a.transition(StateDone)
		return a.result, nil
	}
	if err := os.MkdirAll(paths.Reports, 0755); err != nil {
		a.transition(StateFailed)
		return a.result, errors.IOf(err, "create report directory %s", paths.Reports)
	}

	a.transition(StateWalking)
	if a.c.Output != nil {
		a.c.Output.TestsBanner()
	}

	walker := &walk.Walker{Suffix: a.opts.FileSuffix, Logger: a.logger}
	walkErr := walker.Walk(paths.Tests, a.opts.Includes, a.opts.Excludes,
		func(file string) error { return a.runTest(ctx, script, file) },
		a.copyToOutput,
	)
	var agg *walk.AggregateError
	if walkErr != nil && !stderrors.As(walkErr, &agg) {
		// The walk itself could not run (bad pattern, unreadable root).
		a.transition(StateFailed)
		return a.result, walkErr
	}

	return a.result, a.aggregate(walkErr)
}

// prepare materializes dependencies, resolves the interpreter version and
// installs the bridge script. It returns the bridge script path.
func (a *Aggregator) prepare(ctx context.Context) (string, error) {
	a.transition(StatePreparing)
	paths := a.opts.Paths

	version, err := a.c.Versions.Resolve(ctx)
	if err != nil {
		return "", err
	}
	a.result.Version = version

	stats, err := a.c.Materializer.Unpack(paths.Dependencies, a.opts.CompileDeps)
	if err != nil {
		return "", err
	}
	a.result.Deps.Add(stats)
	stats, err = a.c.Materializer.Unpack(paths.TestDependencies, a.opts.TestDeps)
	if err != nil {
		return "", err
	}
	a.result.Deps.Add(stats)

	script, wrote, err := installBridge(paths.TestDependencies, version)
	if err != nil {
		return "", err
	}
	if wrote {
		a.logger.Debug("installed bridge script", zap.String("path", script))
	}
	return script, nil
}

// runTest executes one test file if it passes the test filters.
func (a *Aggregator) runTest(ctx context.Context, script, file string) error {
	if !a.isTestFile(file) {
		return nil
	}
	paths := a.opts.Paths
	name := filepath.Base(file)
	report := filepath.Join(paths.Reports, strings.TrimSuffix(name, a.opts.FileSuffix)+".xml")
	logger := a.logger.With(zap.String("file", file))

	req := interpreter.Request{
		GlobalArgs: a.opts.GlobalArgs,
		IncludePath: []string{
			paths.Source,
			paths.Tests,
			paths.Classes,
			paths.TestClasses,
			paths.Dependencies,
			paths.TestDependencies,
			filepath.Dir(file),
		},
		Script:     script,
		ScriptArgs: []string{file, report},
		File:       file,
	}

	// A report left by an earlier run must not stand in for this one.
	for _, stale := range []string{report, logPath(report)} {
		if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
			return errors.IOf(err, "failed to remove stale %s", stale)
		}
	}

	a.result.Executed++
	logger.Debug("running test", zap.String("report", report))
	out, err := a.c.Executor.ExecuteOutput(ctx, req)
	if err != nil {
		a.writeLog(report, name, err.Error())
		return err
	}
	if _, statErr := os.Stat(report); statErr != nil {
		a.writeLog(report, name, out)
		return errors.FileError(file, "test report was not written: "+report)
	}

	results, err := testparser.ParseReportFile(report)
	if err != nil {
		return errors.Wrap(err, "failed to parse test report")
	}
	for _, r := range results {
		a.result.Counts.AddResult(r)
		a.result.Suites = append(a.result.Suites, r)
		if a.c.Output != nil {
			a.c.Output.SuiteResult(r)
			a.c.Output.Println("")
		}
		if r.Failed() {
			logger.Debug("suite failed", zap.String("suite", r.Name),
				zap.Int("failures", r.Failures), zap.Int("errors", r.Errors))
		}
	}
	return nil
}

// isTestFile applies the test suffix and the single test filter.
func (a *Aggregator) isTestFile(file string) bool {
	want := strings.ToLower(a.opts.TestSuffix + a.opts.FileSuffix)
	if !strings.HasSuffix(strings.ToLower(filepath.Base(file)), want) {
		return false
	}
	return MatchesFilter(file, a.opts.TestFile)
}

// MatchesFilter reports whether file is selected by a single test filter.
// The filter matches whole trailing path elements; an empty filter matches
// everything. Backslashes are treated as separators.
func MatchesFilter(file, filter string) bool {
	if filter == "" {
		return true
	}
	f := strings.ReplaceAll(filter, "\\", "/")
	p := strings.ReplaceAll(filepath.ToSlash(file), "\\", "/")
	if strings.HasPrefix(f, "/") {
		return p == f || strings.HasSuffix(p, f)
	}
	return p == f || strings.HasSuffix(p, "/"+f)
}

func (a *Aggregator) copyToOutput(file string) error {
	if !a.opts.CopyToOutput {
		return nil
	}
	copied, err := fsutil.CopyToFolder(a.opts.Paths.Tests, a.opts.Paths.TestClasses, file, a.opts.ForceOverwrite)
	if copied {
		a.result.Copied++
	}
	return err
}

// writeLog stores the interpreter output of a failed test next to its report.
func (a *Aggregator) writeLog(report, name, content string) {
	logPath := logPath(report)
	a.logger.Error("Testcase: " + name + " fails.")
	if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
		a.logger.Error("failed to write test log", zap.String("path", logPath), zap.Error(err))
		return
	}
	a.logger.Error("See log: " + logPath)
}

// logPath returns the failure log written next to report.
func logPath(report string) string {
	return strings.TrimSuffix(report, ".xml") + ".txt"
}

// aggregate decides the final state from the collected counts.
func (a *Aggregator) aggregate(walkErr error) error {
	a.transition(StateAggregating)
	counts := a.result.Counts
	if a.c.Output != nil {
		a.c.Output.TestResults(counts)
	}

	var runErr error
	if counts.Failed() {
		runErr = &Error{Counts: counts}
	}
	if walkErr != nil || runErr != nil {
		a.transition(StateFailed)
	} else {
		a.transition(StateDone)
	}
	return stderrors.Join(walkErr, runErr)
}

func (a *Aggregator) transition(to State) {
	a.logger.Debug("test run state", zap.Stringer("from", a.state), zap.Stringer("to", to))
	a.state = to
	if a.result != nil {
		a.result.State = to
	}
}
