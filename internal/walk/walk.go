// Package walk visits interpreter files under a directory tree, isolating
// per-file failures until the whole tree has been visited.
package walk

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/logging"
)

// DefaultSuffix is the interpreter file suffix used when none is configured.
const DefaultSuffix = ".php"

// DefaultExcludes are always excluded in addition to explicit excludes.
var DefaultExcludes = []string{
	"**/.git/**",
	"**/.gitignore",
	"**/.gitattributes",
	"**/.svn/**",
	"**/CVS/**",
	"**/.cvsignore",
	"**/.hg/**",
	"**/.bzr/**",
	"**/_darcs/**",
	"**/SCCS/**",
	"**/vssver.scc",
	"**/.DS_Store",
}

// Func is a per-file callback. A returned error is recorded and the walk
// moves on to the next file.
type Func func(path string) error

// Walker walks source trees.
type Walker struct {
	Suffix string // Interpreter file suffix; defaults to DefaultSuffix
	Logger *zap.Logger
}

// Walk visits every regular file under root that matches includes (all files
// when includes is empty) and none of the excludes, in lexical order.
//
// onFile is called for files ending in the interpreter suffix. onProcessed is
// called for every visited file afterwards, unless onFile failed for it.
// Either callback may be nil.
//
// If root is not a directory Walk does nothing. Otherwise, once every file
// has been visited, the collected failures are returned as an *AggregateError.
// Patterns use doublestar syntax relative to root; a trailing "/" stands for
// everything below that directory.
func (w *Walker) Walk(root string, includes, excludes []string, onFile, onProcessed Func) error {
	logger := logging.OrNop(w.Logger).With(zap.String("root", root))
	suffix := w.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		logger.Info("directory does not exist, nothing to do")
		return nil
	}

	inc, err := normalizePatterns(includes)
	if err != nil {
		return err
	}
	exc, err := normalizePatterns(append(append([]string(nil), DefaultExcludes...), excludes...))
	if err != nil {
		return err
	}

	logger.Debug("walk started", zap.Strings("includes", inc), zap.Strings("excludes", excludes))

	var (
		failures []*Exception
		visited  int
	)
	record := func(path string, err error) {
		logger.Error("file failed", zap.String("file", path), zap.Error(err))
		failures = append(failures, &Exception{Path: path, Err: err})
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			record(path, errors.IOf(err, "read %s", path))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matchAny(exc, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if len(inc) > 0 && !matchAny(inc, rel) {
			return nil
		}
		if matchAny(exc, rel) {
			return nil
		}

		visited++
		if onFile != nil && strings.HasSuffix(d.Name(), suffix) {
			if err := onFile(path); err != nil {
				record(path, err)
				return nil
			}
		}
		if onProcessed != nil {
			if err := onProcessed(path); err != nil {
				record(path, err)
			}
		}
		return nil
	})
	if walkErr != nil {
		return errors.IOf(walkErr, "walk %s", root)
	}

	logger.Debug("walk finished", zap.Int("files", visited), zap.Int("failures", len(failures)))
	if len(failures) > 0 {
		return &AggregateError{Root: root, Exceptions: failures}
	}
	return nil
}

func normalizePatterns(patterns []string) ([]string, error) {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "/") {
			p += "**"
		}
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Configf("invalid pattern %q", p)
		}
		out = append(out, p)
	}
	return out, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}
