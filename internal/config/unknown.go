package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/AndreyAkinshin/phpbuild/internal/errors"
)

// LoadWithWarnings decodes normalized JSON config data and returns any unknown field warnings.
func LoadWithWarnings(path string, data []byte) (*Config, []string, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, nil, errors.Configf("failed to parse config file %s: %v", path, err)
	}

	// Detect unknown fields
	warnings := detectUnknownFields(data)

	return &cfg, warnings, nil
}

// nestedSections maps object-valued root fields to their struct types.
var nestedSections = map[string]reflect.Type{
	"interpreter":  reflect.TypeOf(InterpreterConfig{}),
	"layout":       reflect.TypeOf(LayoutConfig{}),
	"dependencies": reflect.TypeOf(DependenciesConfig{}),
	"tests":        reflect.TypeOf(TestsConfig{}),
	"validate":     reflect.TypeOf(ValidateConfig{}),
	"history":      reflect.TypeOf(HistoryConfig{}),
}

// detectUnknownFields compares raw JSON with known struct fields.
// Note: Since this is called after successful Config parsing, a parse failure
// here would indicate an unexpected internal inconsistency.
func detectUnknownFields(data []byte) []string {
	var warnings []string

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return []string{"internal: failed to re-parse config for unknown field detection"}
	}

	knownTopLevel := getJSONFields(reflect.TypeOf(Config{}))
	for _, key := range sortedKeys(raw) {
		if key == "$schema" {
			continue // $schema is explicitly allowed and ignored
		}
		if !knownTopLevel[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q at root level (ignored)", key))
			continue
		}
		if typ, ok := nestedSections[key]; ok {
			warnings = append(warnings, checkSectionUnknownFields(key, raw[key], typ)...)
		}
	}

	return warnings
}

func checkSectionUnknownFields(section string, data json.RawMessage, typ reflect.Type) []string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil // null or non-object; the schema reports it
	}

	var warnings []string
	known := getJSONFields(typ)
	for _, key := range sortedKeys(fields) {
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q in %s (ignored)", key, section))
		}
	}
	return warnings
}

// getJSONFields returns a map of known JSON field names for a struct type.
func getJSONFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		// Extract field name from tag (before comma)
		name := strings.Split(tag, ",")[0]
		if name != "" {
			fields[name] = true
		}
	}
	return fields
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
