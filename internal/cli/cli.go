// Package cli provides command-line interface functionality for phpbuild.
package cli

import (
	stderrors "errors"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AndreyAkinshin/phpbuild/internal/engine"
	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/interpreter"
	"github.com/AndreyAkinshin/phpbuild/internal/logging"
	"github.com/AndreyAkinshin/phpbuild/internal/output"
	"github.com/AndreyAkinshin/phpbuild/internal/project"
)

// Version is set at build time.
var Version = "dev"

// GlobalOptions holds parsed global flags.
type GlobalOptions struct {
	Config  string // Explicit config file; otherwise found by walking up from the cwd
	PHP     string // Overrides interpreter.path
	Quiet   bool
	Verbose bool
	JSONLog bool

	IgnoreIncludeErrors bool
}

// app carries the state shared by all commands of one invocation.
type app struct {
	opts   GlobalOptions
	out    *output.Writer
	stderr io.Writer
	runner interpreter.Runner // nil means real processes
	logger *zap.Logger
}

// hintError attaches a suggestion for the user to err.
type hintError struct {
	error
	hint string
}

func (e *hintError) Unwrap() error { return e.error }

func withHint(err error, hint string) error {
	return &hintError{error: err, hint: hint}
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr, nil)
}

func run(args []string, stdout, stderr io.Writer, runner interpreter.Runner) int {
	useColor := !color.NoColor && stdout == io.Writer(os.Stdout)
	a := &app{
		out:    output.NewWithWriters(stdout, stderr, useColor),
		stderr: stderr,
		runner: runner,
	}

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if err != nil {
		a.out.ErrorPrefix("%v", err)
		var h *hintError
		if stderrors.As(err, &h) {
			a.out.Hint("hint: %s", h.hint)
		}
		return errors.GetExitCode(err)
	}
	return errors.ExitSuccess
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "phpbuild",
		Short: "phpbuild - validate and test PHP source trees",
		Long: `phpbuild runs an external PHP interpreter over a project:

  validate   syntax-check every source file and copy sources to the classes dir
  test       run every *Test.php through PHPUnit and summarize the reports

Configuration is read from .phpbuild/config.{json,yaml,yml,toml}, found by
walking up from the current directory.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetVersionTemplate("phpbuild {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Config(err.Error())
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.Config, "config", "", "config file (default: .phpbuild/config.* in the project root)")
	flags.StringVar(&a.opts.PHP, "php", "", "interpreter executable (overrides interpreter.path)")
	flags.BoolVarP(&a.opts.Quiet, "quiet", "q", false, "minimal output (errors only)")
	flags.BoolVarP(&a.opts.Verbose, "verbose", "v", false, "maximum detail")
	flags.BoolVar(&a.opts.JSONLog, "json-log", false, "write logs as JSON")
	flags.BoolVar(&a.opts.IgnoreIncludeErrors, "ignore-include-errors", false, "ignore require_once/include_once diagnostics during validation")

	root.AddCommand(
		a.validateCommand(),
		a.testCommand(),
		a.versionCommand(),
		a.configCommand(),
		a.historyCommand(),
		a.initCommand(),
		a.testSummaryCommand(),
	)
	return root
}

// setup validates global flags and builds the logger.
func (a *app) setup() error {
	if a.opts.Quiet && a.opts.Verbose {
		return errors.Config("--quiet and --verbose are mutually exclusive")
	}
	a.out.SetQuiet(a.opts.Quiet)
	a.logger = logging.New(logging.Options{
		Verbose: a.opts.Verbose,
		Quiet:   a.opts.Quiet,
		JSON:    a.opts.JSONLog,
		Output:  a.stderr,
	})
	return nil
}

// loadProject loads the project named by --config or found from the cwd and
// applies command-line overrides. Config warnings are printed.
func (a *app) loadProject() (*project.Project, error) {
	var (
		proj *project.Project
		err  error
	)
	if a.opts.Config != "" {
		proj, err = project.LoadProjectFile(a.opts.Config)
	} else {
		proj, err = project.LoadProject()
	}
	if err != nil {
		if err == project.ErrNoProjectRoot {
			return nil, withHint(errors.Config(err.Error()), "run 'phpbuild init' to create one")
		}
		return nil, err
	}

	for _, w := range proj.Warnings {
		a.out.WarningSimple("%s", w)
	}
	if a.opts.PHP != "" {
		proj.Config.Interpreter.Path = a.opts.PHP
	}
	if a.opts.IgnoreIncludeErrors {
		proj.Config.IgnoreIncludeErrors = true
	}
	return proj, nil
}

// newSession loads the project and opens an engine session for it.
func (a *app) newSession() (*engine.Session, *project.Project, error) {
	proj, err := a.loadProject()
	if err != nil {
		return nil, nil, err
	}
	s, err := engine.New(proj.Root, proj.Config, engine.Options{
		Logger: a.logger,
		Output: a.out,
		Runner: a.runner,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, proj, nil
}
