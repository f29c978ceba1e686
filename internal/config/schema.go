// Package config provides configuration loading and validation for
// .phpbuild/config.{json,yaml,yml,toml}.
package config

// Config represents the complete project configuration.
type Config struct {
	Interpreter         *InterpreterConfig  `json:"interpreter,omitempty"`
	Layout              *LayoutConfig       `json:"layout,omitempty"`
	Dependencies        *DependenciesConfig `json:"dependencies,omitempty"`
	Includes            []string            `json:"includes,omitempty"`
	Excludes            []string            `json:"excludes,omitempty"`
	FileSuffix          string              `json:"file_suffix,omitempty"`
	ForceOverwrite      bool                `json:"force_overwrite,omitempty"`
	IgnoreIncludeErrors bool                `json:"ignore_include_errors,omitempty"`
	IgnoreWarnings      bool                `json:"ignore_warnings,omitempty"`
	IncludeInOutput     *bool               `json:"include_in_output,omitempty"` // Copy visited files into the classes dirs (default: true)
	LogOutput           bool                `json:"log_output,omitempty"`        // Log interpreter output at info level
	Tests               *TestsConfig        `json:"tests,omitempty"`
	Validate            *ValidateConfig     `json:"validate,omitempty"`
	History             *HistoryConfig      `json:"history,omitempty"`
}

// InterpreterConfig configures the interpreter executable.
type InterpreterConfig struct {
	Path string `json:"path,omitempty"`
	Args string `json:"args,omitempty"` // Prepended to every invocation
}

// LayoutConfig defines project directories, relative to the project root.
type LayoutConfig struct {
	Source           string `json:"source,omitempty"`
	Tests            string `json:"tests,omitempty"`
	Dependencies     string `json:"dependencies,omitempty"`
	TestDependencies string `json:"test_dependencies,omitempty"`
	Classes          string `json:"classes,omitempty"`
	TestClasses      string `json:"test_classes,omitempty"`
	Reports          string `json:"reports,omitempty"`
}

// DependenciesConfig lists archive dependencies in resolution order.
type DependenciesConfig struct {
	Compile []string `json:"compile,omitempty"`
	Test    []string `json:"test,omitempty"` // Unpacked after Compile for test runs
}

// TestsConfig configures test discovery.
type TestsConfig struct {
	Suffix string `json:"suffix,omitempty"` // File name suffix before the file suffix, case-insensitive
	File   string `json:"file,omitempty"`   // Run only the test whose path ends with this
}

// ValidateConfig configures syntax validation.
type ValidateConfig struct {
	Skip    bool     `json:"skip,omitempty"`
	Exclude []string `json:"exclude,omitempty"` // Path suffixes exempt from validation
}

// HistoryConfig configures the run history database.
type HistoryConfig struct {
	Database string `json:"database,omitempty"`
}
