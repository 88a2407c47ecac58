// Package config loads the project-local TOML configuration file that
// controls indexing exclusions, learning decay, and cross-language
// resolution.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// IndexingConfig controls what the Indexer walks and parses.
type IndexingConfig struct {
	Exclude     []string `toml:"exclude"`
	MaxFileSize int64    `toml:"max_file_size"`
}

// LearningConfig controls confidence decay.
type LearningConfig struct {
	DecayHalfLife float64 `toml:"decay_half_life"`
}

// CrossLanguageConfig controls cross-file/cross-language resolution.
type CrossLanguageConfig struct {
	Enabled bool `toml:"enabled"`
}

// Config is the root of config.toml.
type Config struct {
	Indexing      IndexingConfig      `toml:"indexing"`
	Learning      LearningConfig      `toml:"learning"`
	CrossLanguage CrossLanguageConfig `toml:"cross_language"`
}

// DefaultConfig returns the configuration defaults used when no TOML
// file is present.
func DefaultConfig() Config {
	return Config{
		Indexing: IndexingConfig{
			Exclude: []string{
				"node_modules", "target", ".git", "dist", "build", "__pycache__",
				".cache", ".pytest_cache", "coverage", ".codegraph", ".venv", "venv", ".tox",
			},
			MaxFileSize: 1_048_576,
		},
		Learning: LearningConfig{
			DecayHalfLife: 90,
		},
		CrossLanguage: CrossLanguageConfig{
			Enabled: true,
		},
	}
}

// Load reads config.toml at path, overlaying it on top of the defaults.
// A missing file is not an error: defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
