package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "code.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNodeRoundTrip(t *testing.T) {
	s := openTestStore(t)

	n := &Node{ID: "file.go::Foo", Graph: "code", Kind: "function", Data: map[string]any{"line": float64(10)}}
	require.NoError(t, s.UpsertNode(n))

	got, err := s.GetNode(n.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, n.Kind, got.Kind)
	require.Equal(t, float64(10), got.Data["line"])

	n.Kind = "method"
	require.NoError(t, s.UpsertNode(n))
	got, err = s.GetNode(n.ID)
	require.NoError(t, err)
	require.Equal(t, "method", got.Kind)
}

func TestGetNodeMissing(t *testing.T) {
	s := openTestStore(t)
	got, err := s.GetNode("missing")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDeleteNodeCascadesEdges(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertNode(&Node{ID: "a", Graph: "code", Kind: "function"}))
	require.NoError(t, s.UpsertNode(&Node{ID: "b", Graph: "code", Kind: "function"}))
	require.NoError(t, s.UpsertEdge(&Edge{Source: "a", Target: "b", Kind: "calls", Graph: "code"}))

	require.NoError(t, s.DeleteNode("a"))

	edges, err := s.EdgesFrom("a")
	require.NoError(t, err)
	require.Empty(t, edges)
}

func TestDeleteNodesByPrefix(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertNode(&Node{ID: "file.go::Foo", Graph: "code", Kind: "function"}))
	require.NoError(t, s.UpsertNode(&Node{ID: "file.go::Bar", Graph: "code", Kind: "function"}))
	require.NoError(t, s.UpsertNode(&Node{ID: "other.go::Baz", Graph: "code", Kind: "function"}))
	require.NoError(t, s.UpsertEdge(&Edge{Source: "file.go::Foo", Target: "other.go::Baz", Kind: "calls", Graph: "code"}))

	require.NoError(t, s.DeleteNodesByPrefix("file.go::"))

	n, err := s.GetNode("file.go::Foo")
	require.NoError(t, err)
	require.Nil(t, n)

	n, err = s.GetNode("other.go::Baz")
	require.NoError(t, err)
	require.NotNil(t, n)

	edges, err := s.EdgesTo("other.go::Baz")
	require.NoError(t, err)
	require.Empty(t, edges)
}

func TestFindAllBySuffix(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertNode(&Node{ID: "a.go::Handle", Graph: "code", Kind: "function"}))
	require.NoError(t, s.UpsertNode(&Node{ID: "b.go::Handle", Graph: "code", Kind: "function"}))
	require.NoError(t, s.UpsertNode(&Node{ID: "b.go::HandleOther", Graph: "code", Kind: "function"}))
	require.NoError(t, s.UpsertNode(&Node{ID: "unresolved::Handle", Graph: "code", Kind: "unresolved"}))

	ids, err := s.FindAllBySuffix("Handle")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.go::Handle", "b.go::Handle"}, ids)
}

func TestRetargetEdgesSimple(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertNode(&Node{ID: "caller", Graph: "code", Kind: "function"}))
	require.NoError(t, s.UpsertNode(&Node{ID: "stub", Graph: "code", Kind: "unresolved"}))
	require.NoError(t, s.UpsertNode(&Node{ID: "real", Graph: "code", Kind: "function"}))
	require.NoError(t, s.UpsertEdge(&Edge{Source: "caller", Target: "stub", Kind: "calls", Graph: "code"}))

	n, err := s.RetargetEdges("stub", "real")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	edges, err := s.EdgesFrom("caller")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, "real", edges[0].Target)
}

func TestRetargetEdgesCollisionDeletes(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertNode(&Node{ID: "caller", Graph: "code", Kind: "function"}))
	require.NoError(t, s.UpsertEdge(&Edge{Source: "caller", Target: "stub", Kind: "calls", Graph: "code"}))
	require.NoError(t, s.UpsertEdge(&Edge{Source: "caller", Target: "real", Kind: "calls", Graph: "code"}))

	n, err := s.RetargetEdges("stub", "real")
	require.NoError(t, err)
	require.Equal(t, 0, n)

	edges, err := s.EdgesFrom("caller")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, "real", edges[0].Target)
}

func TestRetargetEdgesIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertEdge(&Edge{Source: "caller", Target: "stub", Kind: "calls", Graph: "code"}))

	_, err := s.RetargetEdges("stub", "real")
	require.NoError(t, err)

	// second call finds nothing left pointing at "stub"
	n, err := s.RetargetEdges("stub", "real")
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestFileMetaRoundTrip(t *testing.T) {
	s := openTestStore(t)
	fm := &FileMeta{Path: "a/b.go", Mtime: 123, Hash: "deadbeef"}
	require.NoError(t, s.UpsertFileMeta(fm))

	got, err := s.GetFileMeta("a/b.go")
	require.NoError(t, err)
	require.Equal(t, int64(123), got.Mtime)
	require.Equal(t, "deadbeef", got.Hash)

	require.NoError(t, s.DeleteFileMeta("a/b.go"))
	got, err = s.GetFileMeta("a/b.go")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMigrateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "code.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.UpsertNode(&Node{ID: "x", Graph: "code", Kind: "function"}))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	n, err := s2.GetNode("x")
	require.NoError(t, err)
	require.NotNil(t, n)
}

func TestCrossLanguageEdgeRoundTrip(t *testing.T) {
	s := openTestStore(t)
	edge := &CrossLanguageEdge{ClientFile: "client.ts", ServerFile: "server.py", APIPath: "api/users", Confidence: 0.8}
	require.NoError(t, s.UpsertCrossLanguageEdge(edge))

	byClient, err := s.QueryAPIConnections("client.ts")
	require.NoError(t, err)
	require.Len(t, byClient, 1)
	require.Equal(t, "server.py", byClient[0].ServerFile)

	byPathSubstring, err := s.QueryAPIConnections("users")
	require.NoError(t, err)
	require.Len(t, byPathSubstring, 1)
}

func TestCrossLanguageEdgeUpsertUpdatesConfidence(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertCrossLanguageEdge(&CrossLanguageEdge{ClientFile: "a.ts", ServerFile: "b.py", APIPath: "api/x", Confidence: 0.5}))
	require.NoError(t, s.UpsertCrossLanguageEdge(&CrossLanguageEdge{ClientFile: "a.ts", ServerFile: "b.py", APIPath: "api/x", Confidence: 0.9}))

	conns, err := s.QueryAPIConnections("a.ts")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	require.Equal(t, 0.9, conns[0].Confidence)
}

func TestClearCrossLanguageEdges(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertCrossLanguageEdge(&CrossLanguageEdge{ClientFile: "a.ts", ServerFile: "b.py", APIPath: "api/x", Confidence: 0.5}))
	require.NoError(t, s.ClearCrossLanguageEdges())

	conns, err := s.QueryAPIConnections("a.ts")
	require.NoError(t, err)
	require.Empty(t, conns)
}
