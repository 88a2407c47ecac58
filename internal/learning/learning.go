// Package learning implements the pattern, failure, and solution-lineage
// stores on top of internal/store, plus the scope-filtered recall
// operations, effective-confidence scoring, and pairwise conflict
// detection.
package learning

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/websines/codegraph-mcp/internal/scope"
	"github.com/websines/codegraph-mcp/internal/store"
)

// Store wraps a store.LearningStore with scope-aware queries.
type Store struct {
	DB *store.LearningStore
}

// New wraps a learning database.
func New(db *store.LearningStore) *Store {
	return &Store{DB: db}
}

func toScopeContext(file string, symbols, tags []string) scope.Context {
	return scope.Context{File: file, Symbols: symbols, Tags: tags}
}

func asScope(s store.Scope) scope.Scope {
	return scope.Scope{
		IncludePaths: s.IncludePaths,
		ExcludePaths: s.ExcludePaths,
		Symbols:      s.Symbols,
		Tags:         s.Tags,
	}
}

// ExtractPattern creates a new pattern record.
func (s *Store) ExtractPattern(intent, mechanism string, examples []string, sc store.Scope, confidence float64) (*store.Pattern, error) {
	p := &store.Pattern{
		ID:         "pattern-" + uuid.NewString(),
		Intent:     intent,
		Mechanism:  mechanism,
		Examples:   examples,
		Scope:      sc,
		Confidence: confidence,
	}
	if err := s.DB.UpsertPattern(p); err != nil {
		return nil, fmt.Errorf("learning: extract pattern: %w", err)
	}
	return p, nil
}

// RecallPatterns returns every pattern whose scope matches ctx, sorted by
// id for deterministic output.
func (s *Store) RecallPatterns(file string, symbols, tags []string) ([]*store.Pattern, error) {
	all, err := s.DB.ListPatterns()
	if err != nil {
		return nil, fmt.Errorf("learning: recall patterns: %w", err)
	}
	ctx := toScopeContext(file, symbols, tags)
	var out []*store.Pattern
	for _, p := range all {
		if asScope(p.Scope).Matches(ctx) {
			out = append(out, p)
		}
	}
	return out, nil
}

// RecordFailure creates a new failure record.
func (s *Store) RecordFailure(cause, avoidanceRule, severity string, sc store.Scope) (*store.Failure, error) {
	f := &store.Failure{
		ID:            "failure-" + uuid.NewString(),
		Cause:         cause,
		AvoidanceRule: avoidanceRule,
		Severity:      severity,
		Scope:         sc,
	}
	if err := s.DB.UpsertFailure(f); err != nil {
		return nil, fmt.Errorf("learning: record failure: %w", err)
	}
	return f, nil
}

// RecallFailures returns every failure matching ctx. Critical failures are
// always included regardless of scope match when includeAllCritical is set.
func (s *Store) RecallFailures(file string, symbols, tags []string, includeAllCritical bool) ([]*store.Failure, error) {
	all, err := s.DB.ListFailures()
	if err != nil {
		return nil, fmt.Errorf("learning: recall failures: %w", err)
	}
	ctx := toScopeContext(file, symbols, tags)
	var out []*store.Failure
	for _, f := range all {
		if includeAllCritical && f.Severity == "critical" {
			out = append(out, f)
			continue
		}
		if asScope(f.Scope).Matches(ctx) {
			out = append(out, f)
		}
	}
	return out, nil
}

// RecordAttempt creates a partial-outcome solution, optionally as a child
// of an existing attempt.
func (s *Store) RecordAttempt(task, plan, approach, parentID string) (*store.Solution, error) {
	sol := &store.Solution{
		ID:       "solution-" + uuid.NewString(),
		Task:     task,
		Plan:     plan,
		Approach: approach,
		Outcome:  "partial",
		ParentID: parentID,
	}
	if err := s.DB.InsertSolution(sol); err != nil {
		return nil, fmt.Errorf("learning: record attempt: %w", err)
	}
	return sol, nil
}

// RecordOutcome transitions a solution to its final outcome. Successful
// outcomes are additionally assigned to a behavioral niche, derived from
// whatever performance/readability/maintainability metrics were recorded.
func (s *Store) RecordOutcome(id, outcome string, metrics map[string]any, filesModified, symbolsModified []string) error {
	if err := s.DB.UpdateSolutionOutcome(id, outcome, metrics, filesModified, symbolsModified); err != nil {
		return fmt.Errorf("learning: record outcome: %w", err)
	}
	if outcome != "success" {
		return nil
	}
	v := featureVectorFromMetrics(metrics)
	score := (v.Performance + v.Readability + v.Maintainability) / 3
	if _, err := s.AssignToNiche(id, v, score); err != nil {
		return fmt.Errorf("learning: record outcome: %w", err)
	}
	return nil
}

// LineageNode is one node of a materialised lineage tree.
type LineageNode struct {
	Solution *store.Solution
	Children []*LineageNode
}

// GetLineageTree returns the root solution and its recursive children
// Always a tree, never a cycle, since parent_id is only set at creation.
func (s *Store) GetLineageTree(id string) (*LineageNode, error) {
	root, err := s.DB.GetSolution(id)
	if err != nil {
		return nil, fmt.Errorf("learning: get lineage root %s: %w", id, err)
	}
	if root == nil {
		return nil, fmt.Errorf("learning: solution %s not found", id)
	}
	return s.buildLineage(root)
}

func (s *Store) buildLineage(sol *store.Solution) (*LineageNode, error) {
	node := &LineageNode{Solution: sol}
	children, err := s.DB.ChildSolutions(sol.ID)
	if err != nil {
		return nil, fmt.Errorf("learning: children of %s: %w", sol.ID, err)
	}
	for _, c := range children {
		childNode, err := s.buildLineage(c)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, childNode)
	}
	return node, nil
}

// EffectiveConfidenceFor computes the effective confidence for
// pattern p as of now, using halfLifeDays and an optional live-graph drift
// checker.
func (s *Store) EffectiveConfidenceFor(p *store.Pattern, now time.Time, halfLifeDays float64, g SymbolChecker) float64 {
	return EffectiveConfidence(p, now, halfLifeDays, g)
}

// SuggestApproach ranks prior solutions for a task by recency among those
// that ended in success, falling back to the most recent attempt of any
// outcome when none succeeded.
func (s *Store) SuggestApproach(task string, solutions []*store.Solution) *store.Solution {
	var best *store.Solution
	var bestAny *store.Solution
	for _, sol := range solutions {
		if sol.Task != task {
			continue
		}
		if bestAny == nil || sol.CreatedAt.After(bestAny.CreatedAt) {
			bestAny = sol
		}
		if sol.Outcome == "success" && (best == nil || sol.CreatedAt.After(best.CreatedAt)) {
			best = sol
		}
	}
	if best != nil {
		return best
	}
	return bestAny
}
