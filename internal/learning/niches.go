package learning

import (
	"fmt"

	"github.com/websines/codegraph-mcp/internal/store"
)

// niche ids and their fixed descriptions, mirroring ensure_niche_exists's
// hardcoded per-id text.
const (
	nicheHighPerformance     = "high-performance"
	nicheHighReadability     = "high-readability"
	nicheHighMaintainability = "high-maintainability"
	nicheBalanced            = "balanced"
)

const nicheTaskType = "general"

var nicheDescriptions = map[string]string{
	nicheHighPerformance:     "Optimized for speed and efficiency",
	nicheHighReadability:     "Optimized for clarity and simplicity",
	nicheHighMaintainability: "Optimized for robustness and maintainability",
	nicheBalanced:            "Balanced approach",
}

// findClosestNiche maps a feature vector to the niche whose trait it most
// strongly exhibits. Ties, and vectors with no clearly dominant axis, fall
// back to the balanced niche.
func findClosestNiche(v store.FeatureVector) string {
	vals := v.ToSlice()
	best := 0
	for i := 1; i < len(vals); i++ {
		if vals[i] > vals[best] {
			best = i
		}
	}
	// require some separation from the runner-up, otherwise the vector is
	// balanced across axes rather than dominated by one.
	for i, val := range vals {
		if i == best {
			continue
		}
		if vals[best]-val < 0.1 {
			return nicheBalanced
		}
	}
	switch best {
	case 0:
		return nicheHighPerformance
	case 1:
		return nicheHighReadability
	case 2:
		return nicheHighMaintainability
	default:
		return nicheBalanced
	}
}

// AssignToNiche ensures the target niche exists and records solutionID's
// membership in it with the given feature vector and score.
func (s *Store) AssignToNiche(solutionID string, v store.FeatureVector, score float64) (string, error) {
	nicheID := findClosestNiche(v)
	if err := s.DB.InsertNicheIfNotExists(&store.Niche{
		ID:          nicheID,
		TaskType:    nicheTaskType,
		Description: nicheDescriptions[nicheID],
	}); err != nil {
		return "", fmt.Errorf("learning: assign to niche: %w", err)
	}
	if err := s.DB.UpsertNicheSolution(&store.NicheSolution{
		NicheID:    nicheID,
		SolutionID: solutionID,
		Vector:     v,
		Score:      score,
	}); err != nil {
		return "", fmt.Errorf("learning: assign to niche: %w", err)
	}
	return nicheID, nil
}

// ListNiches returns every niche for a task type together with its
// best-scoring solution, mirroring list_niches' composition of
// NicheStore::list_niches and get_best_solution.
func (s *Store) ListNiches(taskType string) ([]*store.NicheWithBest, error) {
	niches, err := s.DB.ListNiches(taskType)
	if err != nil {
		return nil, fmt.Errorf("learning: list niches: %w", err)
	}
	out := make([]*store.NicheWithBest, 0, len(niches))
	for _, n := range niches {
		best, err := s.DB.BestNicheSolution(n.ID)
		if err != nil {
			return nil, fmt.Errorf("learning: best solution for niche %s: %w", n.ID, err)
		}
		out = append(out, &store.NicheWithBest{Niche: *n, Best: best})
	}
	return out, nil
}

// featureVectorFromMetrics derives a feature vector from a solution's
// recorded metrics, defaulting any missing axis to a neutral midpoint.
func featureVectorFromMetrics(metrics map[string]any) store.FeatureVector {
	v := store.FeatureVector{Performance: 0.5, Readability: 0.5, Maintainability: 0.5}
	if f, ok := metrics["performance"].(float64); ok {
		v.Performance = f
	}
	if f, ok := metrics["readability"].(float64); ok {
		v.Readability = f
	}
	if f, ok := metrics["maintainability"].(float64); ok {
		v.Maintainability = f
	}
	return v
}
