package project

import (
	"fmt"
	"path/filepath"

	"github.com/AndreyAkinshin/phpbuild/internal/config"
)

// Project represents a loaded phpbuild project.
type Project struct {
	Root       string
	Config     *config.Config
	ConfigFile string // Empty when running on defaults
	Warnings   []string
}

// LoadProject finds and loads a project from the current directory.
func LoadProject() (*Project, error) {
	root, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadProjectFrom(root)
}

// LoadProjectFrom loads a project from a specified root directory.
// A root without a config file runs on defaults.
func LoadProjectFrom(root string) (*Project, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	configPath, ok := FindConfigFile(root)
	if !ok {
		return &Project{Root: root, Config: config.Default()}, nil
	}

	cfg, warnings, err := config.LoadAndValidate(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return &Project{
		Root:       root,
		Config:     cfg,
		ConfigFile: configPath,
		Warnings:   warnings,
	}, nil
}

// LoadProjectFile loads a project from an explicit config file. The project
// root is the parent of the .phpbuild directory holding the file, or the
// file's own directory otherwise.
func LoadProjectFile(path string) (*Project, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	root := filepath.Dir(path)
	if filepath.Base(root) == ConfigDirName {
		root = filepath.Dir(root)
	}

	cfg, warnings, err := config.LoadAndValidate(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return &Project{
		Root:       root,
		Config:     cfg,
		ConfigFile: path,
		Warnings:   warnings,
	}, nil
}

// ConfigPath returns the path of the loaded config file, or the default
// config.json location when none exists.
func (p *Project) ConfigPath() string {
	if p.ConfigFile != "" {
		return p.ConfigFile
	}
	return filepath.Join(p.Root, ConfigDirName, config.FileNames[0])
}

// Paths returns the absolute project layout.
func (p *Project) Paths() config.Paths {
	return p.Config.ResolvePaths(p.Root)
}
