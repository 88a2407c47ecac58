package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.Learning.DecayHalfLife = 30
	cfg.Indexing.Exclude = append(cfg.Indexing.Exclude, "vendor")

	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, float64(30), got.Learning.DecayHalfLife)
	require.Contains(t, got.Indexing.Exclude, "vendor")
}

func TestDefaultsMatchSpec(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, int64(1_048_576), cfg.Indexing.MaxFileSize)
	require.True(t, cfg.CrossLanguage.Enabled)
	require.Contains(t, cfg.Indexing.Exclude, ".git")
}
