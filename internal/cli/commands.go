package cli

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/phpbuild/internal/config"
	"github.com/AndreyAkinshin/phpbuild/internal/engine"
	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/interpreter"
	"github.com/AndreyAkinshin/phpbuild/internal/schema"
	"github.com/AndreyAkinshin/phpbuild/internal/walk"
)

func (a *app) validateCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Syntax-check every source file",
		Long: `Unpacks the compile dependencies, runs every source file through the
interpreter and copies the sources into the classes directory.

Every file is visited; all failures are reported together at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, proj, err := a.newSession()
			if err != nil {
				return err
			}
			defer s.Close()
			if force {
				proj.Config.ForceOverwrite = true
			}

			res, err := s.Validate(cmd.Context())
			if res != nil {
				a.out.Println("")
				a.out.SummaryHeader("Validation Summary")
				a.out.SummaryItem("Validated", fmt.Sprintf("%d", res.Validated))
				if res.Excluded > 0 {
					a.out.SummaryItem("Excluded", fmt.Sprintf("%d", res.Excluded))
				}
				a.out.SummaryItem("Copied", fmt.Sprintf("%d", res.Copied))
				if res.Deps.Extracted > 0 {
					a.out.SummaryItem("Unpacked", fmt.Sprintf("%d files from %d archives", res.Deps.Extracted, res.Deps.Archives))
				}
			}
			var agg *walk.AggregateError
			switch {
			case err == nil:
				a.out.FinalSuccess("All files are valid.")
			case stderrors.As(err, &agg):
				a.out.Println("")
				a.out.SummarySectionLabel("Failed files:")
				for _, ex := range agg.Exceptions {
					a.out.SummaryAction(failureKind(ex.Err).String(), false, relPath(s.Paths().Source, ex.Path), failureMessage(ex.Err))
				}
				a.out.FinalFailure("%d file(s) failed validation.", len(agg.Exceptions))
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite copied files even when up to date")
	return cmd
}

// failureKind returns the kind carried by err, defaulting to runtime.
func failureKind(err error) errors.ErrorKind {
	var kinded interface{ Kind() errors.ErrorKind }
	if stderrors.As(err, &kinded) {
		return kinded.Kind()
	}
	var be *errors.BuildError
	if stderrors.As(err, &be) {
		return be.Kind
	}
	return errors.KindRuntime
}

func relPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

// failureMessage returns the first diagnostic of a failed interpreter run,
// or the first line of any other error.
func failureMessage(err error) string {
	s := err.Error()
	var execErr *interpreter.ExecError
	if stderrors.As(err, &execErr) && execErr.Diagnostics != "" {
		s = execErr.Diagnostics
	}
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (a *app) testCommand() *cobra.Command {
	var opts engine.TestOptions
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the test suite",
		Long: `Unpacks the compile and test dependencies, runs every test file through
the PHPUnit bridge script and summarizes the XML reports.

A test file is any file whose name ends with <tests.suffix><file_suffix>
(case-insensitive), "Test.php" by default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			_, err = s.Test(cmd.Context(), opts)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.TestFile, "test-file", "", "run only the test whose path ends with these path elements (e.g. AddTest.php or calc/AddTest.php)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite copied files even when up to date")
	return cmd
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show phpbuild and interpreter versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.out.Println("phpbuild %s", Version)

			s, proj, err := a.newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			v, err := s.Version(cmd.Context())
			if err != nil {
				return err
			}
			a.out.Println("interpreter %s (%s)", proj.Config.Interpreter.Path, v)
			return nil
		},
	}
}

func (a *app) configCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := a.loadProject()
			if err != nil {
				return err
			}
			data, err := renderConfig(proj.Config, format)
			if err != nil {
				return err
			}
			a.out.Print("%s", data)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml, json or toml")

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the project configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := a.loadProject()
			if err != nil {
				return err
			}
			a.out.Success("Configuration is valid.")
			a.out.SummaryItem("Config", proj.ConfigPath())
			a.out.SummaryItem("Interpreter", proj.Config.Interpreter.Path)
			a.out.SummaryItem("Source", proj.Config.Layout.Source)
			a.out.SummaryItem("Tests", proj.Config.Layout.Tests)
			if len(proj.Warnings) > 0 {
				a.out.SummaryItem("Warnings", fmt.Sprintf("%d", len(proj.Warnings)))
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schema.Describe()
			if err != nil {
				return err
			}
			a.out.Println("%s", data)
			return nil
		},
	})
	return cmd
}

// renderConfig encodes cfg in the given format, keeping the JSON field names.
func renderConfig(cfg *config.Config, format string) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, err
	}

	switch format {
	case "json":
		return append(data, '\n'), nil
	case "yaml", "yml":
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, err
		}
		blockStyle(&node)
		return yaml.Marshal(&node)
	case "toml":
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, errors.Configf("unknown format %q (want yaml, json or toml)", format)
	}
}

// blockStyle clears the flow and quoting styles a JSON document carries
// into YAML nodes.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
