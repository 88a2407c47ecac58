package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/websines/codegraph-mcp/internal/store"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "code.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s)
}

func TestStartSessionResetsGraphs(t *testing.T) {
	sess := newTestSession(t)
	require.NoError(t, sess.StartSession("Impl auth", []string{"Design", "Test", "Code"}))

	items, err := sess.Items()
	require.NoError(t, err)
	require.Len(t, items, 3)
	for _, it := range items {
		require.Equal(t, "pending", it.Status)
	}

	nodes, err := sess.Store.AllNodes("session")
	require.NoError(t, err)
	// task + 3 items + context = 5
	require.Len(t, nodes, 5)
}

func TestStartSessionDropsPreviousSession(t *testing.T) {
	sess := newTestSession(t)
	require.NoError(t, sess.StartSession("first", []string{"a"}))
	require.NoError(t, sess.StartSession("second", []string{"b", "c"}))

	items, err := sess.Items()
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestSmartContextScenario(t *testing.T) {
	sess := newTestSession(t)
	require.NoError(t, sess.StartSession("Impl auth", []string{"Design", "Test", "Code"}))
	require.NoError(t, sess.UpdateTask(0, "in_progress"))
	require.NoError(t, sess.AddDecision("Use JWT", "Stateless", nil))
	require.NoError(t, sess.SetContext("src/auth.rs", "AuthHandler"))

	summary, err := sess.SmartContext(nil)
	require.NoError(t, err)
	require.Equal(t, "0/3 tasks completed", summary.Progress)
	require.Len(t, summary.RecentDecisions, 1)
	require.Contains(t, summary.WorkingSymbols, "AuthHandler")
	require.NotNil(t, summary.CurrentItem)
	require.Equal(t, "Design", summary.CurrentItem.Text)
}

func TestAddDecisionResolvesUniqueSymbol(t *testing.T) {
	sess := newTestSession(t)
	require.NoError(t, sess.Store.UpsertNode(&store.Node{ID: "a.go::AuthHandler", Graph: "code", Kind: "function"}))
	require.NoError(t, sess.StartSession("task", nil))

	require.NoError(t, sess.AddDecision("Use JWT", "Stateless", []string{"AuthHandler"}))

	edges, err := sess.Store.AllEdges("cross")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, "a.go::AuthHandler", edges[0].Target)
}

func TestRecentDecisionsCapAtThree(t *testing.T) {
	sess := newTestSession(t)
	require.NoError(t, sess.StartSession("task", nil))
	require.NoError(t, sess.AddDecision("d1", "why1", nil))
	require.NoError(t, sess.AddDecision("d2", "why2", nil))
	require.NoError(t, sess.AddDecision("d3", "why3", nil))
	require.NoError(t, sess.AddDecision("d4", "why4", nil))

	summary, err := sess.SmartContext(nil)
	require.NoError(t, err)
	require.Len(t, summary.RecentDecisions, 3)
	require.Equal(t, "d4", summary.RecentDecisions[len(summary.RecentDecisions)-1].What)
}
