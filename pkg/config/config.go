// Package config holds configuration for the self-modification engine.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for selfmod.
type Config struct {
	// Root is the project root all relative paths resolve against.
	Root string `koanf:"root"`

	// Analysis thresholds and caps.
	Analysis AnalysisConfig `koanf:"analysis"`

	// Backup settings.
	Backup BackupConfig `koanf:"backup"`

	// File exclusion patterns for directory scans.
	Exclude ExcludeConfig `koanf:"exclude"`

	// Output settings.
	Output OutputConfig `koanf:"output"`
}

// AnalysisConfig controls analyzer thresholds.
type AnalysisConfig struct {
	// LongFunctionLines is the span above which a function is flagged.
	LongFunctionLines int `koanf:"long_function_lines"`
	// FallbackSpan is assumed when a node carries no end-line metadata.
	FallbackSpan int `koanf:"fallback_span"`
	// ImportsCap limits how many imports a report exposes.
	ImportsCap int `koanf:"imports_cap"`
}

// BackupConfig controls where pre-mutation copies go.
type BackupConfig struct {
	// Dir is relative to the project root.
	Dir string `koanf:"dir"`
}

// ExcludeConfig defines file exclusion patterns for scans.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns"`
	Dirs      []string `koanf:"dirs"`
	Gitignore bool     `koanf:"gitignore"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Root: ".",
		Analysis: AnalysisConfig{
			LongFunctionLines: 50,
			FallbackSpan:      20,
			ImportsCap:        10,
		},
		Backup: BackupConfig{
			Dir: "backups",
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"test_*.py",
				"*_test.py",
			},
			Dirs: []string{
				".git",
				"__pycache__",
				".venv",
				"venv",
				"node_modules",
				"backups",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads configuration from a file, layered over defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries standard config locations and falls back to defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"selfmod.toml",
		"selfmod.yaml",
		"selfmod.yml",
		"selfmod.json",
		".selfmod.toml",
		".selfmod.yaml",
		".selfmod.yml",
		".selfmod.json",
	}

	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			if cfg, err := Load(name); err == nil {
				return cfg
			}
		}
	}

	return DefaultConfig()
}

// ShouldExclude checks if a path should be excluded from directory scans.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
