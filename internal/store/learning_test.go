package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestLearningStore(t *testing.T) *LearningStore {
	t.Helper()
	dir := t.TempDir()
	ls, err := OpenLearningStore(filepath.Join(dir, "learning.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ls.Close() })
	return ls
}

func TestPatternRoundTrip(t *testing.T) {
	ls := openTestLearningStore(t)
	p := &Pattern{
		ID:         "pattern-1",
		Intent:     "use context cancellation for long scans",
		Examples:   []string{"ctx.Done()"},
		Scope:      Scope{Tags: []string{"indexer"}},
		Confidence: 0.7,
	}
	require.NoError(t, ls.UpsertPattern(p))

	got, err := ls.GetPattern("pattern-1")
	require.NoError(t, err)
	require.Equal(t, p.Intent, got.Intent)
	require.Equal(t, []string{"indexer"}, got.Scope.Tags)
	require.Nil(t, got.LastValidated)
}

func TestRecordPatternUsageSuccess(t *testing.T) {
	ls := openTestLearningStore(t)
	require.NoError(t, ls.UpsertPattern(&Pattern{ID: "p1", Intent: "x", Confidence: 0.5}))

	require.NoError(t, ls.RecordPatternUsage("p1", true))

	got, err := ls.GetPattern("p1")
	require.NoError(t, err)
	require.Equal(t, 1, got.UsageCount)
	require.Equal(t, 1, got.SuccessCount)
	require.NotNil(t, got.LastValidated)
}

func TestRecordPatternUsageFailure(t *testing.T) {
	ls := openTestLearningStore(t)
	require.NoError(t, ls.UpsertPattern(&Pattern{ID: "p1", Intent: "x", Confidence: 0.5}))

	require.NoError(t, ls.RecordPatternUsage("p1", false))

	got, err := ls.GetPattern("p1")
	require.NoError(t, err)
	require.Equal(t, 1, got.UsageCount)
	require.Equal(t, 0, got.SuccessCount)
	require.Nil(t, got.LastValidated)
}

func TestListPatternsSortedByID(t *testing.T) {
	ls := openTestLearningStore(t)
	require.NoError(t, ls.UpsertPattern(&Pattern{ID: "b", Intent: "x"}))
	require.NoError(t, ls.UpsertPattern(&Pattern{ID: "a", Intent: "y"}))

	got, err := ls.ListPatterns()
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "a", got[0].ID)
	require.Equal(t, "b", got[1].ID)
}

func TestFailureIncrementPrevented(t *testing.T) {
	ls := openTestLearningStore(t)
	require.NoError(t, ls.UpsertFailure(&Failure{ID: "f1", Cause: "nil deref", AvoidanceRule: "check nil", Severity: "critical"}))

	require.NoError(t, ls.IncrementPrevented("f1"))
	require.NoError(t, ls.IncrementPrevented("f1"))

	got, err := ls.GetFailure("f1")
	require.NoError(t, err)
	require.Equal(t, 2, got.TimesPrevented)
}

func TestIncrementPreventedMissing(t *testing.T) {
	ls := openTestLearningStore(t)
	err := ls.IncrementPrevented("missing")
	require.Error(t, err)
}

func TestSolutionLineageTree(t *testing.T) {
	ls := openTestLearningStore(t)
	root := &Solution{ID: "s1", Task: "fix bug", Plan: "try approach A", Outcome: "partial"}
	require.NoError(t, ls.InsertSolution(root))

	child := &Solution{ID: "s2", Task: "fix bug", Plan: "try approach B", Outcome: "partial", ParentID: "s1"}
	require.NoError(t, ls.InsertSolution(child))

	require.NoError(t, ls.UpdateSolutionOutcome("s2", "success", map[string]any{"duration_ms": float64(42)}, []string{"a.go"}, []string{"a.go::Foo"}))

	children, err := ls.ChildSolutions("s1")
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, "success", children[0].Outcome)
	require.Equal(t, []string{"a.go"}, children[0].FilesModified)
}

func TestInstructionRoundTrip(t *testing.T) {
	ls := openTestLearningStore(t)
	require.NoError(t, ls.InsertInstruction(&Instruction{ID: "i1", Category: "gotcha", Text: "don't touch the vendored client", CreatedAt: time.Now()}))

	got, err := ls.ListInstructions()
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "gotcha", got[0].Category)
}

func TestInsertNicheIfNotExistsIgnoresDuplicates(t *testing.T) {
	ls := openTestLearningStore(t)
	n := &Niche{ID: "high-performance", TaskType: "general", Description: "Optimized for speed and efficiency"}
	require.NoError(t, ls.InsertNicheIfNotExists(n))
	require.NoError(t, ls.InsertNicheIfNotExists(n))

	niches, err := ls.ListNiches("general")
	require.NoError(t, err)
	require.Len(t, niches, 1)
}

func TestBestNicheSolutionPicksHighestScore(t *testing.T) {
	ls := openTestLearningStore(t)
	require.NoError(t, ls.InsertNicheIfNotExists(&Niche{ID: "balanced", TaskType: "general", Description: "Balanced approach"}))
	require.NoError(t, ls.InsertSolution(&Solution{ID: "s1", Task: "t", Plan: "p", Outcome: "success"}))
	require.NoError(t, ls.InsertSolution(&Solution{ID: "s2", Task: "t", Plan: "p", Outcome: "success"}))

	require.NoError(t, ls.UpsertNicheSolution(&NicheSolution{NicheID: "balanced", SolutionID: "s1", Vector: FeatureVector{0.5, 0.5, 0.5}, Score: 0.5}))
	require.NoError(t, ls.UpsertNicheSolution(&NicheSolution{NicheID: "balanced", SolutionID: "s2", Vector: FeatureVector{0.6, 0.6, 0.6}, Score: 0.6}))

	best, err := ls.BestNicheSolution("balanced")
	require.NoError(t, err)
	require.Equal(t, "s2", best.SolutionID)
}

func TestBestNicheSolutionEmptyNiche(t *testing.T) {
	ls := openTestLearningStore(t)
	require.NoError(t, ls.InsertNicheIfNotExists(&Niche{ID: "balanced", TaskType: "general", Description: "Balanced approach"}))

	best, err := ls.BestNicheSolution("balanced")
	require.NoError(t, err)
	require.Nil(t, best)
}
