// Package engine wires the interpreter, dependency and walk components into
// a session that runs validation and test runs for one project.
package engine

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AndreyAkinshin/phpbuild/internal/config"
	"github.com/AndreyAkinshin/phpbuild/internal/deps"
	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/history"
	"github.com/AndreyAkinshin/phpbuild/internal/interpreter"
	"github.com/AndreyAkinshin/phpbuild/internal/logging"
	"github.com/AndreyAkinshin/phpbuild/internal/output"
	"github.com/AndreyAkinshin/phpbuild/internal/testrun"
	"github.com/AndreyAkinshin/phpbuild/internal/validate"
	"github.com/AndreyAkinshin/phpbuild/internal/walk"
)

// Options configures a Session.
type Options struct {
	Logger *zap.Logger
	Output *output.Writer     // Console summaries; nil disables them
	Runner interpreter.Runner // Defaults to interpreter.NewRunner()
	Now    func() time.Time   // Defaults to time.Now
}

// Session owns the components shared by every run against one project.
// The interpreter version is resolved at most once per session.
// A Session is not safe for concurrent use.
type Session struct {
	root   string
	cfg    *config.Config
	paths  config.Paths
	logger *zap.Logger
	out    *output.Writer
	now    func() time.Time

	executor     *interpreter.Executor // Syntax validation
	testExecutor *interpreter.Executor // Test runs; include diagnostics always count
	versions     *interpreter.VersionDetector
	materializer *deps.Materializer
	history      *history.Store
}

// New creates a session for the project at root. cfg must have defaults
// applied. The history database is opened when configured.
func New(root string, cfg *config.Config, opts Options) (*Session, error) {
	logger := logging.OrNop(opts.Logger)
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	execOpts := interpreter.Options{
		Interpreter:         cfg.Interpreter.Path,
		IgnoreIncludeErrors: cfg.IgnoreIncludeErrors,
		IgnoreWarnings:      cfg.IgnoreWarnings,
		LogOutput:           cfg.LogOutput,
		Logger:              logger,
		Runner:              opts.Runner,
	}
	executor := interpreter.NewExecutor(execOpts)
	execOpts.IgnoreIncludeErrors = false
	testExecutor := interpreter.NewExecutor(execOpts)

	s := &Session{
		root:         root,
		cfg:          cfg,
		paths:        cfg.ResolvePaths(root),
		logger:       logger,
		out:          opts.Output,
		now:          now,
		executor:     executor,
		testExecutor: testExecutor,
		versions:     interpreter.NewVersionDetector(executor, logger),
		materializer: deps.New(logger),
	}

	if path := cfg.HistoryDatabase(root); path != "" {
		store, err := history.Open(path)
		if err != nil {
			return nil, errors.IOf(err, "open run history %s", path)
		}
		s.history = store
	}
	return s, nil
}

// Close releases the history database, if open.
func (s *Session) Close() error {
	if s.history == nil {
		return nil
	}
	return s.history.Close()
}

// Paths returns the resolved project layout.
func (s *Session) Paths() config.Paths {
	return s.paths
}

// History returns the run history store, or nil when history is disabled.
func (s *Session) History() *history.Store {
	return s.history
}

// Version resolves the interpreter version.
func (s *Session) Version(ctx context.Context) (interpreter.Version, error) {
	return s.versions.Resolve(ctx)
}

// Validate runs syntax validation over the source tree.
func (s *Session) Validate(ctx context.Context) (*validate.Result, error) {
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))
	started := s.now()
	logger.Info("validation started", zap.String("source", s.paths.Source))

	opts := validate.Options{
		Paths:          s.paths,
		GlobalArgs:     s.cfg.Interpreter.Args,
		Dependencies:   config.Archives(s.root, s.cfg.Dependencies.Compile),
		Includes:       s.cfg.Includes,
		Excludes:       s.cfg.Excludes,
		FileSuffix:     s.cfg.FileSuffix,
		Skip:           s.cfg.Validate.Skip,
		SkipFiles:      s.cfg.Validate.Exclude,
		ForceOverwrite: s.cfg.ForceOverwrite,
		CopyToOutput:   s.cfg.CopyToOutput(),
	}
	var (
		res *validate.Result
		err error
	)
	if !opts.Skip {
		// An unusable interpreter aborts before any file is processed.
		_, err = s.versions.Resolve(ctx)
	}
	if err == nil {
		res, err = validate.Run(ctx, opts, validate.Components{
			Executor:     s.executor,
			Materializer: s.materializer,
			Logger:       logger,
		})
	}

	run := history.Run{
		ID:        runID,
		Kind:      history.KindValidate,
		StartedAt: started,
		Status:    statusOf(err),
	}
	if res != nil {
		run.Tests = res.Validated
	}
	run.WalkFailures = walkFailures(err)
	s.record(ctx, logger, run)

	logger.Info("validation finished", zap.Error(err))
	return res, err
}

// TestOptions override configuration for one test run.
type TestOptions struct {
	TestFile string // Overrides tests.file when set
	Force    bool   // Forces overwriting copied files
}

// Test executes the test suite.
func (s *Session) Test(ctx context.Context, topts TestOptions) (*testrun.Result, error) {
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID))
	started := s.now()
	logger.Info("test run started", zap.String("tests", s.paths.Tests))

	testFile := s.cfg.Tests.File
	if topts.TestFile != "" {
		testFile = topts.TestFile
	}
	opts := testrun.Options{
		Paths:          s.paths,
		GlobalArgs:     s.cfg.Interpreter.Args,
		CompileDeps:    config.Archives(s.root, s.cfg.Dependencies.Compile),
		TestDeps:       config.Archives(s.root, s.cfg.Dependencies.Test),
		Includes:       s.cfg.Includes,
		Excludes:       s.cfg.Excludes,
		FileSuffix:     s.cfg.FileSuffix,
		TestSuffix:     s.cfg.Tests.Suffix,
		TestFile:       testFile,
		ForceOverwrite: s.cfg.ForceOverwrite || topts.Force,
		CopyToOutput:   s.cfg.CopyToOutput(),
	}
	agg := testrun.New(opts, testrun.Components{
		Executor:     s.testExecutor,
		Versions:     s.versions,
		Materializer: s.materializer,
		Output:       s.out,
		Logger:       logger,
	})
	res, err := agg.Run(ctx)

	run := history.Run{
		ID:           runID,
		Kind:         history.KindTest,
		StartedAt:    started,
		Status:       statusOf(err),
		WalkFailures: walkFailures(err),
	}
	if res != nil {
		run.Tests = res.Counts.Tests
		run.Failures = res.Counts.Failures
		run.Errors = res.Counts.Errors
		for _, r := range res.Suites {
			run.Suites = append(run.Suites, history.Suite{
				Name: r.Name, Tests: r.Tests, Failures: r.Failures, Errors: r.Errors, Time: r.Time,
			})
		}
	}
	s.record(ctx, logger, run)

	logger.Info("test run finished", zap.Stringer("state", agg.State()), zap.Error(err))
	return res, err
}

// record stores run in the history database. Failures are logged only.
func (s *Session) record(ctx context.Context, logger *zap.Logger, run history.Run) {
	if s.history == nil {
		return
	}
	run.FinishedAt = s.now()
	if err := s.history.Record(ctx, run); err != nil {
		logger.Warn("failed to record run history", zap.Error(err))
	}
}

// statusOf maps a run error onto a history status. Runs that visited every
// file but found failures are "failed"; runs that aborted are "error".
func statusOf(err error) history.Status {
	if err == nil {
		return history.StatusPassed
	}
	if errors.IsKind(err, errors.KindAggregate) || errors.IsKind(err, errors.KindTestRun) {
		return history.StatusFailed
	}
	return history.StatusError
}

func walkFailures(err error) int {
	var agg *walk.AggregateError
	if stderrors.As(err, &agg) {
		return len(agg.Exceptions)
	}
	return 0
}
