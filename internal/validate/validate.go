// Package validate runs every source file through the interpreter and
// collects the files whose output contains errors or warnings.
package validate

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/AndreyAkinshin/phpbuild/internal/config"
	"github.com/AndreyAkinshin/phpbuild/internal/deps"
	"github.com/AndreyAkinshin/phpbuild/internal/fsutil"
	"github.com/AndreyAkinshin/phpbuild/internal/interpreter"
	"github.com/AndreyAkinshin/phpbuild/internal/logging"
	"github.com/AndreyAkinshin/phpbuild/internal/walk"
)

// Options configures a validation run.
type Options struct {
	Paths          config.Paths
	GlobalArgs     string
	Dependencies   []string // Archives unpacked into Paths.Dependencies, in order
	Includes       []string
	Excludes       []string
	FileSuffix     string   // Defaults to walk.DefaultSuffix
	Skip           bool     // Copy files without running the interpreter
	SkipFiles      []string // Path suffixes exempt from validation
	ForceOverwrite bool
	CopyToOutput   bool
}

// Components are the collaborators of a validation run.
type Components struct {
	Executor     *interpreter.Executor
	Materializer *deps.Materializer
	Logger       *zap.Logger
}

// Result summarizes a validation run.
type Result struct {
	Validated int // Files run through the interpreter
	Excluded  int // Interpreter files skipped by SkipFiles
	Copied    int // Files copied into the classes directory
	Deps      deps.Stats
}

// Run validates the source tree. Dependency failures abort the run; per-file
// failures are returned together as a *walk.AggregateError once every file
// has been visited.
func Run(ctx context.Context, opts Options, c Components) (*Result, error) {
	logger := logging.OrNop(c.Logger)
	paths := opts.Paths
	res := &Result{}

	if !opts.Skip {
		stats, err := c.Materializer.Unpack(paths.Dependencies, opts.Dependencies)
		if err != nil {
			return res, err
		}
		res.Deps = stats
	} else {
		logger.Info("validation skipped, copying sources only")
	}

	onFile := func(file string) error {
		if opts.Skip {
			return nil
		}
		if Excluded(file, opts.SkipFiles) {
			logger.Debug("excluded from validation", zap.String("file", file))
			res.Excluded++
			return nil
		}
		req := interpreter.Request{
			GlobalArgs:  opts.GlobalArgs,
			IncludePath: []string{filepath.Dir(file), paths.Dependencies, paths.Source},
			Script:      file,
		}
		res.Validated++
		_, err := c.Executor.ExecuteOutput(ctx, req)
		return err
	}

	onProcessed := func(file string) error {
		if !opts.CopyToOutput && !opts.Skip {
			return nil
		}
		copied, err := fsutil.CopyToFolder(paths.Source, paths.Classes, file, opts.ForceOverwrite)
		if copied {
			res.Copied++
		}
		return err
	}

	walker := &walk.Walker{Suffix: opts.FileSuffix, Logger: logger}
	err := walker.Walk(paths.Source, opts.Includes, opts.Excludes, onFile, onProcessed)
	logger.Debug("validation finished",
		zap.Int("validated", res.Validated),
		zap.Int("excluded", res.Excluded),
		zap.Int("copied", res.Copied))
	return res, err
}

// Excluded reports whether file ends with one of the given path suffixes.
// Backslashes in both are treated as separators.
func Excluded(file string, suffixes []string) bool {
	p := strings.ReplaceAll(filepath.ToSlash(file), "\\", "/")
	for _, s := range suffixes {
		s = strings.ReplaceAll(s, "\\", "/")
		if s != "" && strings.HasSuffix(p, s) {
			return true
		}
	}
	return false
}
