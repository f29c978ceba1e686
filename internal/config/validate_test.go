package config

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"defaults", func(*Config) {}, ""},
		{"blank interpreter", func(c *Config) { c.Interpreter.Path = " " }, "interpreter.path"},
		{"suffix without dot", func(c *Config) { c.FileSuffix = "php" }, "file_suffix"},
		{"suffix only dot", func(c *Config) { c.FileSuffix = "." }, "file_suffix"},
		{"suffix with separator", func(c *Config) { c.FileSuffix = ".a/b" }, "file_suffix"},
		{"bad include", func(c *Config) { c.Includes = []string{"**/*.php", "[bad"} }, "includes[1]"},
		{"bad exclude", func(c *Config) { c.Excludes = []string{"{a,b"} }, "excludes[0]"},
		{"empty exclude", func(c *Config) { c.Excludes = []string{""} }, "excludes[0]"},
		{"directory pattern", func(c *Config) { c.Excludes = []string{"generated/"} }, ""},
		{"empty dependency", func(c *Config) { c.Dependencies.Test = []string{"a.zip", ""} }, "dependencies.test[1]"},
		{"test suffix separator", func(c *Config) { c.Tests.Suffix = "a/Test" }, "tests.suffix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)

			_, err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var ve *ValidationError
			if !stderrors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Layout.Tests = cfg.Layout.Source + "/"
	cfg.Layout.Dependencies = cfg.Layout.Source

	warnings, err := Validate(cfg)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", warnings)
	}
	if !strings.Contains(warnings[0], "layout.tests") {
		t.Errorf("warnings[0] = %q", warnings[0])
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := &ValidationError{Field: "file_suffix", Message: "bad"}
	if err.Error() != "file_suffix: bad" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.ExitCode() != 2 {
		t.Errorf("ExitCode() = %d, want 2", err.ExitCode())
	}
}
