// Package indexer drives the per-file and cross-file indexing pipeline:
// it decides which files need re-parsing, writes their symbols and
// references to the store, and resolves unqualified references across
// file boundaries.
package indexer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/websines/codegraph-mcp/internal/extract"
	"github.com/websines/codegraph-mcp/internal/store"
)

// Counters reports the outcome of an index run.
type Counters struct {
	FilesScanned     int
	FilesIndexed     int
	FilesSkipped     int
	FilesRemoved     int
	SymbolsFound     int
	EdgesFound       int
	UnresolvedBefore int
	Resolved         int
	UnresolvedAfter  int
	Duration         time.Duration
}

// Indexer owns the registry/exclusion configuration and drives index runs
// against a Store.
type Indexer struct {
	Store       *store.Store
	Registry    *extract.Registry
	Exclude     map[string]bool
	MaxFileSize int64
}

// New builds an Indexer with the given exclusion set and max file size.
func New(s *store.Store, exclude []string, maxFileSize int64) *Indexer {
	ex := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		ex[e] = true
	}
	return &Indexer{
		Store:       s,
		Registry:    extract.NewRegistry(),
		Exclude:     ex,
		MaxFileSize: maxFileSize,
	}
}

// IndexFull re-parses every eligible file under root, regardless of
// whether its content has changed.
func (ix *Indexer) IndexFull(root string) (Counters, error) {
	return ix.run(root, nil, true)
}

// IndexIncremental re-parses only files whose mtime or content hash has
// changed since the last run, and removes files no longer present.
func (ix *Indexer) IndexIncremental(root string) (Counters, error) {
	return ix.run(root, nil, false)
}

// IndexPaths re-parses exactly the given relative paths, unconditionally.
func (ix *Indexer) IndexPaths(root string, paths []string) (Counters, error) {
	return ix.run(root, paths, true)
}

func (ix *Indexer) run(root string, explicitPaths []string, full bool) (Counters, error) {
	start := time.Now()
	var c Counters

	var relPaths []string
	var err error
	if explicitPaths != nil {
		relPaths = explicitPaths
	} else {
		relPaths, err = ix.walk(root)
		if err != nil {
			return c, fmt.Errorf("indexer: walk %s: %w", root, err)
		}
	}

	seen := make(map[string]bool, len(relPaths))
	for _, rel := range relPaths {
		seen[rel] = true
		c.FilesScanned++

		abs := filepath.Join(root, rel)
		info, statErr := os.Stat(abs)
		if statErr != nil {
			c.FilesSkipped++
			continue
		}
		if ix.MaxFileSize > 0 && info.Size() > ix.MaxFileSize {
			c.FilesSkipped++
			continue
		}

		mtime := info.ModTime().Unix()
		existing, metaErr := ix.Store.GetFileMeta(rel)
		if metaErr != nil {
			return c, fmt.Errorf("indexer: file meta %s: %w", rel, metaErr)
		}

		if !full && existing != nil && existing.Mtime == mtime {
			c.FilesSkipped++
			continue
		}

		content, readErr := os.ReadFile(abs)
		if readErr != nil {
			c.FilesSkipped++
			continue
		}

		hash := store.ContentHash(content)
		if !full && existing != nil && existing.Hash == hash {
			// Touch-only change: refresh mtime, skip re-parse.
			if err := ix.Store.UpsertFileMeta(&store.FileMeta{Path: rel, Mtime: mtime, Hash: hash}); err != nil {
				return c, fmt.Errorf("indexer: refresh file meta %s: %w", rel, err)
			}
			c.FilesSkipped++
			continue
		}

		if _, ok := ix.Registry.ForPath(rel); !ok {
			// Unsupported language: still record file-meta so the removal
			// pass and hash-fallback logic treat it consistently, but
			// there is nothing to extract.
			if err := ix.Store.UpsertFileMeta(&store.FileMeta{Path: rel, Mtime: mtime, Hash: hash}); err != nil {
				return c, fmt.Errorf("indexer: file meta %s: %w", rel, err)
			}
			c.FilesSkipped++
			continue
		}

		symbolsFound, edgesFound, indexErr := ix.indexFile(rel, content, mtime, hash)
		if indexErr != nil {
			// Extraction error is non-fatal: log and skip.
			fmt.Fprintf(os.Stderr, "indexer: skipping %s: %v\n", rel, indexErr)
			c.FilesSkipped++
			continue
		}
		c.FilesIndexed++
		c.SymbolsFound += symbolsFound
		c.EdgesFound += edgesFound
	}

	if explicitPaths == nil {
		removed, err := ix.removeStale(seen)
		if err != nil {
			return c, fmt.Errorf("indexer: removal pass: %w", err)
		}
		c.FilesRemoved = removed
	}

	unresolvedBefore, err := ix.countUnresolved()
	if err != nil {
		return c, fmt.Errorf("indexer: count unresolved: %w", err)
	}
	c.UnresolvedBefore = unresolvedBefore

	resolved, err := ix.ResolveCrossFile()
	if err != nil {
		return c, fmt.Errorf("indexer: cross-file resolution: %w", err)
	}
	c.Resolved = resolved

	unresolvedAfter, err := ix.countUnresolved()
	if err != nil {
		return c, fmt.Errorf("indexer: count unresolved after: %w", err)
	}
	c.UnresolvedAfter = unresolvedAfter

	c.Duration = time.Since(start)
	return c, nil
}

// indexFile performs the ordered per-file pipeline:
// delete-old, write-symbols, write-references, update-file-meta.
func (ix *Indexer) indexFile(relPath string, content []byte, mtime int64, hash string) (symbolsFound, edgesFound int, err error) {
	result, err := ix.Registry.Extract(relPath, content)
	if err != nil {
		return 0, 0, err
	}

	if err := ix.Store.DeleteNodesByPrefix(relPath + "::"); err != nil {
		return 0, 0, fmt.Errorf("delete old nodes for %s: %w", relPath, err)
	}
	if err := ix.Store.DeleteNode("file::" + relPath); err != nil {
		return 0, 0, fmt.Errorf("delete old file node for %s: %w", relPath, err)
	}

	localMap := make(map[string]string, len(result.Symbols))
	for _, sym := range result.Symbols {
		id := relPath + "::" + sym.Name
		localMap[sym.Name] = id
		node := &store.Node{
			ID:    id,
			Graph: "code",
			Kind:  string(sym.Kind),
			Data: map[string]any{
				"name":       sym.Name,
				"file":       relPath,
				"line_start": float64(sym.LineStart),
				"line_end":   float64(sym.LineEnd),
				"signature":  sym.Signature,
				"docstring":  sym.Docstring,
			},
		}
		if err := ix.Store.UpsertNode(node); err != nil {
			return 0, 0, fmt.Errorf("write symbol %s: %w", sym.Name, err)
		}
		symbolsFound++
	}

	fileNodeWritten := false
	ensureFileNode := func() error {
		if fileNodeWritten {
			return nil
		}
		fileNodeWritten = true
		return ix.Store.UpsertNode(&store.Node{
			ID:    "file::" + relPath,
			Graph: "code",
			Kind:  "file",
			Data:  map[string]any{"file": relPath},
		})
	}

	for _, ref := range result.References {
		var sourceID string
		switch {
		case ref.FromSymbol != "" && localMap[ref.FromSymbol] != "":
			sourceID = localMap[ref.FromSymbol]
		case ref.FromSymbol != "":
			sourceID = relPath + "::" + ref.FromSymbol
		default:
			sourceID = "file::" + relPath
		}
		if sourceID == "file::"+relPath {
			if err := ensureFileNode(); err != nil {
				return 0, 0, fmt.Errorf("ensure file node for %s: %w", relPath, err)
			}
		}

		var targetID string
		if id, ok := localMap[ref.ToName]; ok {
			targetID = id
		} else {
			targetID = "unresolved::" + ref.ToName
			if err := ix.ensureUnresolvedStub(targetID, ref.ToName); err != nil {
				return 0, 0, fmt.Errorf("ensure unresolved stub %s: %w", ref.ToName, err)
			}
		}

		edge := &store.Edge{
			Source: sourceID,
			Target: targetID,
			Kind:   string(ref.Kind),
			Graph:  "code",
			Data:   map[string]any{"line": float64(ref.Line)},
		}
		if err := ix.Store.UpsertEdge(edge); err != nil {
			return 0, 0, fmt.Errorf("write reference %s->%s: %w", sourceID, targetID, err)
		}
		edgesFound++
	}

	if err := ix.Store.UpsertFileMeta(&store.FileMeta{Path: relPath, Mtime: mtime, Hash: hash}); err != nil {
		return 0, 0, fmt.Errorf("update file meta %s: %w", relPath, err)
	}

	return symbolsFound, edgesFound, nil
}

func (ix *Indexer) ensureUnresolvedStub(id, name string) error {
	existing, err := ix.Store.GetNode(id)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return ix.Store.UpsertNode(&store.Node{
		ID:    id,
		Graph: "code",
		Kind:  "unresolved",
		Data:  map[string]any{"name": name},
	})
}

// removeStale deletes any file recorded in file-meta that was not observed
// during the walk, along with its nodes and file-level node.
func (ix *Indexer) removeStale(seen map[string]bool) (int, error) {
	metas, err := ix.Store.ListFileMeta()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, fm := range metas {
		if seen[fm.Path] {
			continue
		}
		if err := ix.Store.DeleteNodesByPrefix(fm.Path + "::"); err != nil {
			return removed, err
		}
		if err := ix.Store.DeleteNode("file::" + fm.Path); err != nil {
			return removed, err
		}
		if err := ix.Store.DeleteFileMeta(fm.Path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (ix *Indexer) countUnresolved() (int, error) {
	nodes, err := ix.Store.NodesByKind("unresolved")
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// ResolveCrossFile runs the post-index resolution pass: every unresolved
// stub whose name has exactly one match elsewhere in the graph is
// collapsed into that match; stubs with zero or multiple matches are
// left untouched.
func (ix *Indexer) ResolveCrossFile() (int, error) {
	stubs, err := ix.Store.NodesByKind("unresolved")
	if err != nil {
		return 0, err
	}
	resolved := 0
	for _, stub := range stubs {
		name, _ := stub.Data["name"].(string)
		if name == "" {
			continue
		}
		matches, err := ix.Store.FindAllBySuffix(name)
		if err != nil {
			return resolved, err
		}
		if len(matches) != 1 {
			continue
		}
		target := matches[0]
		if _, err := ix.Store.RetargetEdges(stub.ID, target); err != nil {
			return resolved, err
		}
		if err := ix.Store.DeleteNode(stub.ID); err != nil {
			return resolved, err
		}
		resolved++
	}
	return resolved, nil
}

// walk lists every eligible relative path under root, excluding any path
// with a component that exactly matches an entry in ix.Exclude.
func (ix *Indexer) walk(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if ix.isExcluded(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// isExcluded reports whether any path component exactly equals a
// configured exclusion name. Partial name matches never exclude.
func (ix *Indexer) isExcluded(rel string) bool {
	for _, part := range splitPathComponents(rel) {
		if ix.Exclude[part] {
			return true
		}
	}
	return false
}

func splitPathComponents(rel string) []string {
	rel = filepath.ToSlash(rel)
	var parts []string
	for _, p := range filepathSplit(rel) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func filepathSplit(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
