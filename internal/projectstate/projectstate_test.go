package projectstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveIsStableForSameRoot(t *testing.T) {
	dir := t.TempDir()
	a, err := Resolve(dir)
	require.NoError(t, err)
	b, err := Resolve(dir)
	require.NoError(t, err)
	require.Equal(t, a.StoreDBPath, b.StoreDBPath)
}

func TestResolveDiffersForDifferentRoots(t *testing.T) {
	a, err := Resolve(t.TempDir())
	require.NoError(t, err)
	b, err := Resolve(t.TempDir())
	require.NoError(t, err)
	require.NotEqual(t, a.StoreDBPath, b.StoreDBPath)
}

func TestEnsureDirsWritesGitignore(t *testing.T) {
	dir := t.TempDir()
	l, err := Resolve(dir)
	require.NoError(t, err)
	require.NoError(t, l.EnsureDirs())

	require.DirExists(t, l.CacheDir)
	require.DirExists(t, l.CodegraphDir)

	data, err := os.ReadFile(filepath.Join(l.CodegraphDir, ".gitignore"))
	require.NoError(t, err)
	require.Contains(t, string(data), "learning.db*")
}
