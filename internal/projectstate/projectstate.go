// Package projectstate computes the on-disk layout of a project's
// cached and persisted state: the store database in a per-project
// directory under the user's cache directory, named by a hash of the
// project root path, and the project-local
// .codegraph/ directory holding the learning database, configuration,
// and distilled artifacts.
package projectstate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/websines/codegraph-mcp/internal/store"
)

// Layout is the resolved set of paths for one project root.
type Layout struct {
	ProjectRoot  string
	CacheDir     string // <user cache dir>/codegraph/<hash>
	StoreDBPath  string // CacheDir/store.db
	CodegraphDir string // ProjectRoot/.codegraph
	LearningDB   string // CodegraphDir/learning.db
	ConfigPath   string // CodegraphDir/config.toml
	PatternsJSON string // CodegraphDir/patterns.json
	FailuresJSON string // CodegraphDir/failures.json
	SkillPath    string // CodegraphDir/SKILL.md
}

// Resolve computes the Layout for root, canonicalising it first so the
// same project always hashes to the same cache directory regardless of
// the working directory it was opened from.
func Resolve(root string) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("projectstate: resolve project root: %w", err)
	}

	userCache, err := os.UserCacheDir()
	if err != nil {
		return Layout{}, fmt.Errorf("projectstate: resolve cache dir: %w", err)
	}

	hash := store.ContentHash([]byte(abs))
	cacheDir := filepath.Join(userCache, "codegraph", hash)
	codegraphDir := filepath.Join(abs, ".codegraph")

	return Layout{
		ProjectRoot:  abs,
		CacheDir:     cacheDir,
		StoreDBPath:  filepath.Join(cacheDir, "store.db"),
		CodegraphDir: codegraphDir,
		LearningDB:   filepath.Join(codegraphDir, "learning.db"),
		ConfigPath:   filepath.Join(codegraphDir, "config.toml"),
		PatternsJSON: filepath.Join(codegraphDir, "patterns.json"),
		FailuresJSON: filepath.Join(codegraphDir, "failures.json"),
		SkillPath:    filepath.Join(codegraphDir, "SKILL.md"),
	}, nil
}

// EnsureDirs creates the cache and .codegraph directories, and writes a
// .gitignore excluding the learning database from version control:
// it is local working state, not checked in alongside distilled artifacts.
func (l Layout) EnsureDirs() error {
	if err := os.MkdirAll(l.CacheDir, 0o755); err != nil {
		return fmt.Errorf("projectstate: create cache dir: %w", err)
	}
	if err := os.MkdirAll(l.CodegraphDir, 0o755); err != nil {
		return fmt.Errorf("projectstate: create .codegraph dir: %w", err)
	}
	gitignore := filepath.Join(l.CodegraphDir, ".gitignore")
	if _, err := os.Stat(gitignore); os.IsNotExist(err) {
		if err := os.WriteFile(gitignore, []byte("learning.db*\n"), 0o644); err != nil {
			return fmt.Errorf("projectstate: write .gitignore: %w", err)
		}
	}
	return nil
}
