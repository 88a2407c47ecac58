package graph

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/websines/codegraph-mcp/internal/store"
)

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "code.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	nodes := []*store.Node{
		{ID: "a.go::Handle", Graph: "code", Kind: "function", Data: map[string]any{"name": "Handle", "file": "a.go"}},
		{ID: "a.go::HandleOther", Graph: "code", Kind: "function", Data: map[string]any{"name": "HandleOther", "file": "a.go"}},
		{ID: "b.go::other", Graph: "code", Kind: "function", Data: map[string]any{"name": "other", "file": "b.go"}},
	}
	for _, n := range nodes {
		require.NoError(t, s.UpsertNode(n))
	}
	require.NoError(t, s.UpsertEdge(&store.Edge{Source: "a.go::Handle", Target: "b.go::other", Kind: "calls", Graph: "code"}))
	return s
}

func TestSearchScoring(t *testing.T) {
	s := seedStore(t)
	g, err := LoadFromStore(s)
	require.NoError(t, err)

	results := g.Search("Handle", "", "", 10)
	require.Len(t, results, 2)
	require.Equal(t, "Handle", results[0].Data["name"])
}

func TestFileSymbols(t *testing.T) {
	s := seedStore(t)
	g, err := LoadFromStore(s)
	require.NoError(t, err)

	syms := g.FileSymbols("a.go")
	require.Len(t, syms, 2)
}

func TestNeighborsOutDirection(t *testing.T) {
	s := seedStore(t)
	g, err := LoadFromStore(s)
	require.NoError(t, err)

	results := g.Neighbors("a.go::Handle", 1, DirOut, nil)
	require.Len(t, results, 1)
	require.Equal(t, "b.go::other", results[0].Node.ID)
	require.Equal(t, []string{"calls"}, results[0].EdgeKinds)
}

func TestNeighborsExcludesStartNode(t *testing.T) {
	s := seedStore(t)
	g, err := LoadFromStore(s)
	require.NoError(t, err)

	results := g.Neighbors("a.go::Handle", 2, DirBoth, nil)
	for _, r := range results {
		require.NotEqual(t, "a.go::Handle", r.Node.ID)
	}
}

func TestNeighborsEdgeFilter(t *testing.T) {
	s := seedStore(t)
	g, err := LoadFromStore(s)
	require.NoError(t, err)

	results := g.Neighbors("a.go::Handle", 1, DirOut, []string{"imports"})
	require.Empty(t, results)
}

func TestRebuildReflectsStoreChanges(t *testing.T) {
	s := seedStore(t)
	g, err := LoadFromStore(s)
	require.NoError(t, err)
	require.Equal(t, 3, g.NodeCount())

	require.NoError(t, s.UpsertNode(&store.Node{ID: "c.go::New", Graph: "code", Kind: "function", Data: map[string]any{"name": "New", "file": "c.go"}}))
	require.NoError(t, g.Rebuild(s))
	require.Equal(t, 4, g.NodeCount())
}
