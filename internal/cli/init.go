package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/phpbuild/internal/config"
	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/project"
)

// gitignoreMarker starts the block phpbuild appends to .gitignore.
const gitignoreMarker = "# phpbuild"

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize a phpbuild project",
		Long: `Creates .phpbuild/config.json with the detected source and test
directories and dependency archives, and adds the build output directory to
.gitignore. Existing files are left alone.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			root, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			return a.initProject(root)
		},
	}
}

// initProject initializes or updates the project at root. It only creates
// files that do not exist.
func (a *app) initProject(root string) error {
	configDir := filepath.Join(root, project.ConfigDirName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.IOf(err, "create %s", configDir)
	}

	var created []string
	var detected *config.Config
	if existing, ok := project.FindConfigFile(root); ok {
		if _, _, err := config.LoadAndValidate(existing); err != nil {
			return err
		}
	} else {
		cfg, err := detectConfig(root)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		data = append(data, '\n')
		configPath := filepath.Join(configDir, config.FileNames[0])
		if err := os.WriteFile(configPath, data, 0644); err != nil {
			return errors.IOf(err, "write %s", configPath)
		}
		created = append(created, project.ConfigDirName+"/"+config.FileNames[0])
		detected = cfg
	}

	if updated, err := updateGitignore(root); err != nil {
		a.out.WarningSimple("could not update .gitignore: %v", err)
	} else if updated {
		created = append(created, ".gitignore")
	}

	a.out.Println("")
	switch {
	case detected != nil:
		a.out.Success("Initialized phpbuild project in %s", root)
		layout := project.DetectLayout(root)
		a.out.SummaryItem("Source", orDefault(layout.Source, config.DefaultSourceDir))
		a.out.SummaryItem("Tests", orDefault(layout.Tests, config.DefaultTestsDir))
		if detected.Dependencies != nil && len(detected.Dependencies.Compile) > 0 {
			a.out.SummaryItem("Dependencies", strings.Join(detected.Dependencies.Compile, ", "))
		}
	case len(created) > 0:
		a.out.Success("Updated phpbuild project")
	default:
		a.out.Info("Project already initialized (nothing to do)")
	}

	if len(created) > 0 {
		a.out.Section("Created:")
		a.out.List(created)
	}
	if detected != nil {
		a.out.Section("Next steps:")
		a.out.Println("  1. Review %s/%s", project.ConfigDirName, config.FileNames[0])
		a.out.Println("  2. Run 'phpbuild validate' to syntax-check the sources")
		a.out.Println("  3. Run 'phpbuild test' to run the test suite")
	}
	return nil
}

// detectConfig builds a config for root from its directory layout. Only
// values that differ from the defaults are set.
func detectConfig(root string) (*config.Config, error) {
	layout := project.DetectLayout(root)
	cfg := &config.Config{Layout: &config.LayoutConfig{}}
	if layout.Source != "" && layout.Source != config.DefaultSourceDir {
		cfg.Layout.Source = layout.Source
	}
	if layout.Tests != "" && layout.Tests != config.DefaultTestsDir {
		cfg.Layout.Tests = layout.Tests
	}
	if *cfg.Layout == (config.LayoutConfig{}) {
		cfg.Layout = nil
	}

	archives, err := project.DiscoverArchives(root)
	if err != nil {
		return nil, errors.IOf(err, "scan %s for dependency archives", root)
	}
	if len(archives) > 0 {
		cfg.Dependencies = &config.DependenciesConfig{Compile: archives}
	}

	return cfg, nil
}

// updateGitignore adds the phpbuild output directory to .gitignore. It
// reports whether the file changed.
func updateGitignore(root string) (bool, error) {
	gitignorePath := filepath.Join(root, ".gitignore")

	entries := []string{
		gitignoreMarker,
		"target/",
	}

	existingContent := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existingContent = string(data)
	} else if !os.IsNotExist(err) {
		return false, err
	}

	if strings.Contains(existingContent, gitignoreMarker) {
		return false, nil
	}

	var content strings.Builder
	if existingContent != "" {
		content.WriteString(existingContent)
		if !strings.HasSuffix(existingContent, "\n") {
			content.WriteString("\n")
		}
		content.WriteString("\n")
	}
	for _, entry := range entries {
		fmt.Fprintln(&content, entry)
	}

	if err := os.WriteFile(gitignorePath, []byte(content.String()), 0644); err != nil {
		return false, err
	}
	return true, nil
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
