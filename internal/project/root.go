// Package project provides project discovery and loading functionality.
package project

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/AndreyAkinshin/phpbuild/internal/config"
)

// ConfigDirName is the name of the phpbuild configuration directory.
const ConfigDirName = ".phpbuild"

// ErrNoProjectRoot is returned when no .phpbuild/config.* file is found.
var ErrNoProjectRoot = errors.New(".phpbuild/config.{json,yaml,yml,toml} not found: not a phpbuild project (or any parent up to the root)")

// FindRoot walks up from the current working directory until it finds a config file.
func FindRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return FindRootFrom(cwd)
}

// FindRootFrom walks up from the given directory until it finds a config file.
func FindRootFrom(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if _, ok := FindConfigFile(dir); ok {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", ErrNoProjectRoot
		}
		dir = parent
	}
}

// FindConfigFile returns the first config file present in root's config
// directory, in config.FileNames order.
func FindConfigFile(root string) (string, bool) {
	for _, name := range config.FileNames {
		path := filepath.Join(root, ConfigDirName, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}
