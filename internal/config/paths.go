package config

import "path/filepath"

// Paths holds absolute project directories derived from a Config.
type Paths struct {
	Root             string
	Source           string
	Tests            string
	Dependencies     string
	TestDependencies string
	Classes          string
	TestClasses      string
	Reports          string
}

// ResolvePaths resolves the layout against root. Absolute layout entries are kept.
// cfg must have defaults applied.
func (c *Config) ResolvePaths(root string) Paths {
	l := c.Layout
	return Paths{
		Root:             root,
		Source:           resolve(root, l.Source),
		Tests:            resolve(root, l.Tests),
		Dependencies:     resolve(root, l.Dependencies),
		TestDependencies: resolve(root, l.TestDependencies),
		Classes:          resolve(root, l.Classes),
		TestClasses:      resolve(root, l.TestClasses),
		Reports:          resolve(root, l.Reports),
	}
}

// Archives resolves dependency archive paths against root, keeping their order.
func Archives(root string, deps []string) []string {
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = resolve(root, d)
	}
	return out
}

// HistoryDatabase returns the resolved history database path, or "" when
// history is disabled.
func (c *Config) HistoryDatabase(root string) string {
	if c.History == nil || c.History.Database == "" {
		return ""
	}
	return resolve(root, c.History.Database)
}

// CopyToOutput reports whether visited files are copied into the classes dirs.
func (c *Config) CopyToOutput() bool {
	return c.IncludeInOutput == nil || *c.IncludeInOutput
}

func resolve(root, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
