package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/AndreyAkinshin/phpbuild/internal/errors"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ExitCode returns errors.ExitConfigError.
func (e *ValidationError) ExitCode() int {
	return errors.ExitConfigError
}

// Validate checks a configuration with defaults applied for errors and
// returns warnings for non-fatal issues.
func Validate(cfg *Config) (warnings []string, err error) {
	if err := validateInterpreter(cfg); err != nil {
		return nil, err
	}
	if err := validateFileSuffix(cfg.FileSuffix); err != nil {
		return nil, err
	}
	if err := validatePatterns("includes", cfg.Includes); err != nil {
		return nil, err
	}
	if err := validatePatterns("excludes", cfg.Excludes); err != nil {
		return nil, err
	}
	if err := validateDependencies(cfg); err != nil {
		return nil, err
	}
	if cfg.Tests != nil && strings.ContainsAny(cfg.Tests.Suffix, `/\`) {
		return nil, &ValidationError{Field: "tests.suffix", Message: "must not contain path separators"}
	}

	return layoutWarnings(cfg), nil
}

func validateInterpreter(cfg *Config) error {
	if cfg.Interpreter == nil || strings.TrimSpace(cfg.Interpreter.Path) == "" {
		return &ValidationError{Field: "interpreter.path", Message: "is required"}
	}
	return nil
}

// validateFileSuffix checks the interpreter file suffix.
func validateFileSuffix(suffix string) error {
	if !strings.HasPrefix(suffix, ".") || len(suffix) < 2 {
		return &ValidationError{Field: "file_suffix", Message: `must start with "." and name an extension (e.g. ".php")`}
	}
	if strings.ContainsAny(suffix, `/\`) {
		return &ValidationError{Field: "file_suffix", Message: "must not contain path separators"}
	}
	return nil
}

func validatePatterns(field string, patterns []string) error {
	for i, p := range patterns {
		p = strings.ReplaceAll(p, "\\", "/")
		if strings.HasSuffix(p, "/") {
			p += "**"
		}
		if strings.TrimSpace(p) == "" || !doublestar.ValidatePattern(p) {
			return &ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: fmt.Sprintf("invalid pattern %q", patterns[i]),
			}
		}
	}
	return nil
}

func validateDependencies(cfg *Config) error {
	if cfg.Dependencies == nil {
		return nil
	}
	for scope, list := range map[string][]string{"compile": cfg.Dependencies.Compile, "test": cfg.Dependencies.Test} {
		for i, dep := range list {
			if strings.TrimSpace(dep) == "" {
				return &ValidationError{Field: fmt.Sprintf("dependencies.%s[%d]", scope, i), Message: "must not be empty"}
			}
		}
	}
	return nil
}

func layoutWarnings(cfg *Config) []string {
	if cfg.Layout == nil {
		return nil
	}
	var warnings []string
	l := cfg.Layout
	if filepath.Clean(l.Source) == filepath.Clean(l.Tests) {
		warnings = append(warnings, "layout.source and layout.tests are the same directory; every source file is treated as a test candidate")
	}
	if filepath.Clean(l.Dependencies) == filepath.Clean(l.Source) {
		warnings = append(warnings, "layout.dependencies points at the source directory; archives will be unpacked into your sources")
	}
	return warnings
}
