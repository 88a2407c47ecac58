package learning

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/websines/codegraph-mcp/internal/store"
)

func TestFindClosestNicheDominantAxis(t *testing.T) {
	require.Equal(t, nicheHighPerformance, findClosestNiche(store.FeatureVector{Performance: 0.9, Readability: 0.5, Maintainability: 0.4}))
	require.Equal(t, nicheHighReadability, findClosestNiche(store.FeatureVector{Performance: 0.3, Readability: 0.95, Maintainability: 0.2}))
	require.Equal(t, nicheHighMaintainability, findClosestNiche(store.FeatureVector{Performance: 0.1, Readability: 0.2, Maintainability: 0.85}))
}

func TestFindClosestNicheBalancedWhenNoDominantAxis(t *testing.T) {
	require.Equal(t, nicheBalanced, findClosestNiche(store.FeatureVector{Performance: 0.6, Readability: 0.58, Maintainability: 0.55}))
}

func TestAssignToNicheCreatesNicheAndRecordsSolution(t *testing.T) {
	s := newTestLearning(t)
	sol, err := s.RecordAttempt("optimize hot loop", "inline the allocator", "", "")
	require.NoError(t, err)

	nicheID, err := s.AssignToNiche(sol.ID, store.FeatureVector{Performance: 0.95, Readability: 0.4, Maintainability: 0.3}, 0.9)
	require.NoError(t, err)
	require.Equal(t, nicheHighPerformance, nicheID)

	niches, err := s.ListNiches("general")
	require.NoError(t, err)
	require.Len(t, niches, 1)
	require.NotNil(t, niches[0].Best)
	require.Equal(t, sol.ID, niches[0].Best.SolutionID)
}

func TestAssignToNicheKeepsHighestScoringBest(t *testing.T) {
	s := newTestLearning(t)
	a, err := s.RecordAttempt("cache layer", "plan A", "", "")
	require.NoError(t, err)
	b, err := s.RecordAttempt("cache layer", "plan B", "", "")
	require.NoError(t, err)

	_, err = s.AssignToNiche(a.ID, store.FeatureVector{Performance: 0.9, Readability: 0.3, Maintainability: 0.2}, 0.5)
	require.NoError(t, err)
	_, err = s.AssignToNiche(b.ID, store.FeatureVector{Performance: 0.95, Readability: 0.2, Maintainability: 0.1}, 0.8)
	require.NoError(t, err)

	niches, err := s.ListNiches("general")
	require.NoError(t, err)
	require.Len(t, niches, 1)
	require.Equal(t, b.ID, niches[0].Best.SolutionID)
}

func TestRecordOutcomeSuccessAssignsToNiche(t *testing.T) {
	s := newTestLearning(t)
	sol, err := s.RecordAttempt("refactor parser", "split into stages", "", "")
	require.NoError(t, err)

	metrics := map[string]any{"performance": 0.2, "readability": 0.9, "maintainability": 0.5}
	require.NoError(t, s.RecordOutcome(sol.ID, "success", metrics, []string{"parser.go"}, nil))

	niches, err := s.ListNiches("general")
	require.NoError(t, err)
	require.Len(t, niches, 1)
	require.Equal(t, nicheHighReadability, niches[0].Niche.ID)
}

func TestRecordOutcomeFailureDoesNotAssignToNiche(t *testing.T) {
	s := newTestLearning(t)
	sol, err := s.RecordAttempt("refactor parser", "split into stages", "", "")
	require.NoError(t, err)

	require.NoError(t, s.RecordOutcome(sol.ID, "failure", nil, nil, nil))

	niches, err := s.ListNiches("")
	require.NoError(t, err)
	require.Empty(t, niches)
}
