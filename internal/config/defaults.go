package config

// Default configuration values.
const (
	DefaultInterpreter     = "php"
	DefaultSourceDir       = "src/main/php"
	DefaultTestsDir        = "src/test/php"
	DefaultDependenciesDir = "target/php-deps"
	DefaultTestDepsDir     = "target/php-test-deps"
	DefaultClassesDir      = "target/classes"
	DefaultTestClassesDir  = "target/test-classes"
	DefaultReportsDir      = "target/surefire-reports"
	DefaultFileSuffix      = ".php"
	DefaultTestSuffix      = "Test"
	DefaultHistoryDatabase = "target/phpbuild-history.db"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config) {
	applyInterpreterDefaults(cfg)
	applyLayoutDefaults(cfg)
	applyTestsDefaults(cfg)

	if cfg.Dependencies == nil {
		cfg.Dependencies = &DependenciesConfig{}
	}
	if cfg.Validate == nil {
		cfg.Validate = &ValidateConfig{}
	}
	if cfg.FileSuffix == "" {
		cfg.FileSuffix = DefaultFileSuffix
	}
	if cfg.IncludeInOutput == nil {
		enabled := true
		cfg.IncludeInOutput = &enabled
	}
	if cfg.History != nil && cfg.History.Database == "" {
		cfg.History.Database = DefaultHistoryDatabase
	}
}

func applyInterpreterDefaults(cfg *Config) {
	if cfg.Interpreter == nil {
		cfg.Interpreter = &InterpreterConfig{}
	}
	if cfg.Interpreter.Path == "" {
		cfg.Interpreter.Path = DefaultInterpreter
	}
}

func applyLayoutDefaults(cfg *Config) {
	if cfg.Layout == nil {
		cfg.Layout = &LayoutConfig{}
	}
	l := cfg.Layout
	setDefault(&l.Source, DefaultSourceDir)
	setDefault(&l.Tests, DefaultTestsDir)
	setDefault(&l.Dependencies, DefaultDependenciesDir)
	setDefault(&l.TestDependencies, DefaultTestDepsDir)
	setDefault(&l.Classes, DefaultClassesDir)
	setDefault(&l.TestClasses, DefaultTestClassesDir)
	setDefault(&l.Reports, DefaultReportsDir)
}

func applyTestsDefaults(cfg *Config) {
	if cfg.Tests == nil {
		cfg.Tests = &TestsConfig{}
	}
	setDefault(&cfg.Tests.Suffix, DefaultTestSuffix)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
