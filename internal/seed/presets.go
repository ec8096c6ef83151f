package seed

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

// Presets returns the named dataset shapes shipped with the seeder.
func Presets() (map[string]Options, error) {
	return ParsePresets(presetsYAML)
}

// ParsePresets decodes a YAML document mapping preset names to Options.
func ParsePresets(raw []byte) (map[string]Options, error) {
	var presets map[string]Options
	if err := yaml.Unmarshal(raw, &presets); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	normalized := make(map[string]Options, len(presets))
	for name, opts := range presets {
		normalized[strings.ToLower(name)] = opts
	}
	return normalized, nil
}

// LoadOptionsFile reads a single Options document from a YAML file.
func LoadOptionsFile(path string) (Options, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read preset file: %w", err)
	}
	var opts Options
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return Options{}, fmt.Errorf("parse preset file %s: %w", path, err)
	}
	return opts, nil
}

// ApplyPreset seeds the dataset registered under name. A name ending in .yml
// or .yaml is read from disk instead.
func (s *Seeder) ApplyPreset(name string) (*Result, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml":
		opts, err := LoadOptionsFile(name)
		if err != nil {
			return nil, err
		}
		return s.Run(opts)
	}

	presets, err := Presets()
	if err != nil {
		return nil, err
	}
	opts, ok := presets[strings.ToLower(name)]
	if !ok {
		names := make([]string, 0, len(presets))
		for n := range presets {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(names, ", "))
	}
	return s.Run(opts)
}
