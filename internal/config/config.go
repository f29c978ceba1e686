package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/schema"
)

// FileNames lists the accepted configuration file names in lookup order.
var FileNames = []string{"config.json", "config.yaml", "config.yml", "config.toml"}

// Load reads and parses a configuration file. The format is chosen by extension.
func Load(path string) (*Config, error) {
	data, err := readNormalized(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Configf("failed to parse config file %s: %v", path, err)
	}
	return &cfg, nil
}

// LoadAndValidate reads a config file, checks it against the schema, applies
// defaults, validates, and returns warnings.
func LoadAndValidate(path string) (*Config, []string, error) {
	data, err := readNormalized(path)
	if err != nil {
		return nil, nil, err
	}

	if err := schema.ValidateConfig(data); err != nil {
		return nil, nil, errors.Configf("%s: %v", path, err)
	}

	cfg, unknownWarnings, err := LoadWithWarnings(path, data)
	if err != nil {
		return nil, nil, err
	}

	applyDefaults(cfg)

	validationWarnings, err := Validate(cfg)

	// Combine warnings from both sources.
	allWarnings := make([]string, 0, len(unknownWarnings)+len(validationWarnings))
	allWarnings = append(allWarnings, unknownWarnings...)
	allWarnings = append(allWarnings, validationWarnings...)

	if err != nil {
		return nil, allWarnings, err
	}

	return cfg, allWarnings, nil
}

// readNormalized reads path and converts its content to JSON so that every
// format goes through the same schema and struct decoding.
func readNormalized(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Configf("failed to read config file: %v", err)
	}
	normalized, err := toJSON(filepath.Ext(path), data)
	if err != nil {
		return nil, errors.Configf("failed to parse config file %s: %v", path, err)
	}
	return normalized, nil
}

// toJSON decodes YAML or TOML documents into JSON. JSON input is returned as is.
func toJSON(ext string, data []byte) ([]byte, error) {
	var doc map[string]any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if len(bytes.TrimSpace(data)) == 0 {
			return []byte("{}"), nil
		}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, err
		}
	case ".json", "":
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return json.Marshal(doc)
}
