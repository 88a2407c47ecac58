package learning

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/websines/codegraph-mcp/internal/store"
)

func newTestLearning(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	db, err := store.OpenLearningStore(filepath.Join(dir, "learning.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestRecallPatternsScopeFiltered(t *testing.T) {
	s := newTestLearning(t)
	_, err := s.ExtractPattern("use context cancellation", "", nil, store.Scope{Tags: []string{"indexer"}}, 0.6)
	require.NoError(t, err)
	_, err = s.ExtractPattern("use prepared statements", "", nil, store.Scope{Tags: []string{"db"}}, 0.6)
	require.NoError(t, err)

	got, err := s.RecallPatterns("", nil, []string{"indexer"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Contains(t, got[0].Intent, "context cancellation")
}

func TestRecallFailuresCriticalAlwaysIncluded(t *testing.T) {
	s := newTestLearning(t)
	_, err := s.RecordFailure("race in writer", "lock before write", "critical", store.Scope{Tags: []string{"unrelated"}})
	require.NoError(t, err)

	got, err := s.RecallFailures("", nil, []string{"other"}, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestLineageTree(t *testing.T) {
	s := newTestLearning(t)
	root, err := s.RecordAttempt("fix bug", "plan A", "", "")
	require.NoError(t, err)
	child, err := s.RecordAttempt("fix bug", "plan B", "", root.ID)
	require.NoError(t, err)
	require.NoError(t, s.RecordOutcome(child.ID, "success", nil, []string{"a.go"}, nil))

	tree, err := s.GetLineageTree(root.ID)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	require.Equal(t, "success", tree.Children[0].Solution.Outcome)
}

func TestEffectiveConfidenceFreshPattern(t *testing.T) {
	now := time.Now()
	p := &store.Pattern{Confidence: 0.7, CreatedAt: now.Add(-24 * time.Hour), UsageCount: 0}
	eff := EffectiveConfidence(p, now, 90, nil)
	require.True(t, eff > 0.69 && eff < 0.71, "got %v", eff)
}

func TestEffectiveConfidenceHighUsageBoostsScore(t *testing.T) {
	now := time.Now()
	p := &store.Pattern{Confidence: 0.7, CreatedAt: now.Add(-24 * time.Hour), UsageCount: 10, SuccessCount: 10}
	eff := EffectiveConfidence(p, now, 90, nil)
	require.Greater(t, eff, 0.8)
}

func TestEffectiveConfidenceOldPatternDecays(t *testing.T) {
	now := time.Now()
	p := &store.Pattern{Confidence: 0.7, CreatedAt: now.Add(-180 * 24 * time.Hour), UsageCount: 10, SuccessCount: 10}
	eff := EffectiveConfidence(p, now, 90, nil)
	require.Less(t, eff, 0.5)
}

func TestEffectiveConfidenceAlwaysBounded(t *testing.T) {
	now := time.Now()
	cases := []*store.Pattern{
		{Confidence: 1.5, CreatedAt: now, UsageCount: 1000, SuccessCount: 1000},
		{Confidence: -1, CreatedAt: now.Add(-1000 * 24 * time.Hour), UsageCount: 0},
	}
	for _, p := range cases {
		eff := EffectiveConfidence(p, now, 90, nil)
		require.False(t, math.IsNaN(eff))
		require.GreaterOrEqual(t, eff, 0.0)
		require.LessOrEqual(t, eff, 1.0)
	}
}

func TestDetectConflictsOppositeSentiment(t *testing.T) {
	a := &store.Pattern{ID: "a", Intent: "Always use async for database queries", Confidence: 0.9, Scope: store.Scope{Tags: []string{"database"}}}
	b := &store.Pattern{ID: "b", Intent: "Never use async for database queries", Confidence: 0.5, Scope: store.Scope{Tags: []string{"database"}}}

	conflicts := DetectConflicts([]*store.Pattern{a, b})
	require.Len(t, conflicts, 1)
	require.Equal(t, "prefer_first", conflicts[0].Resolution)
}

func TestDetectConflictsNoOverlapNoConflict(t *testing.T) {
	a := &store.Pattern{ID: "a", Intent: "Always use async for database queries", Confidence: 0.9, Scope: store.Scope{Tags: []string{"database"}}}
	b := &store.Pattern{ID: "b", Intent: "Never use async for http requests", Confidence: 0.5, Scope: store.Scope{Tags: []string{"http"}}}

	conflicts := DetectConflicts([]*store.Pattern{a, b})
	require.Empty(t, conflicts)
}

func TestDetectConflictsAffirmationPhrase(t *testing.T) {
	a := &store.Pattern{ID: "a", Intent: "Prefer using retries for flaky network calls", Confidence: 0.9, Scope: store.Scope{Tags: []string{"network"}}}
	b := &store.Pattern{ID: "b", Intent: "Avoid retries for flaky network calls", Confidence: 0.5, Scope: store.Scope{Tags: []string{"network"}}}

	conflicts := DetectConflicts([]*store.Pattern{a, b})
	require.Len(t, conflicts, 1)
	require.Equal(t, "prefer_first", conflicts[0].Resolution)
}

func TestDetectConflictsWordCountFallback(t *testing.T) {
	a := &store.Pattern{ID: "a", Intent: "Ensure database queries get cached for better performance", Confidence: 0.8, Scope: store.Scope{Tags: []string{"cache"}}}
	b := &store.Pattern{ID: "b", Intent: "Prevent database queries get cached for better performance", Confidence: 0.8, Scope: store.Scope{Tags: []string{"cache"}}}

	conflicts := DetectConflicts([]*store.Pattern{a, b})
	require.Len(t, conflicts, 1)
	require.Equal(t, "needs_human_review", conflicts[0].Resolution)
}
