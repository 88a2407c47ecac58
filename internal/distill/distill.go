// Package distill materialises the learning layer into deterministic
// artefacts: patterns.json / failures.json for machine consumption and
// SKILL.md for human/agent consumption.
package distill

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/websines/codegraph-mcp/internal/learning"
	"github.com/websines/codegraph-mcp/internal/store"
)

// SyncStats reports what sync_learnings wrote.
type SyncStats struct {
	PatternsWritten int
	FailuresWritten int
}

// SyncLearnings selects patterns with effective_confidence >= threshold
// and failures that are critical (when includeAllCritical is set),
// returning both the sorted-by-id payloads (for byte-stable output) and a
// stats record.
func SyncLearnings(
	patterns []*store.Pattern,
	failures []*store.Failure,
	threshold float64,
	includeAllCritical bool,
	now time.Time,
	halfLifeDays float64,
	g learning.SymbolChecker,
) ([]byte, []byte, SyncStats, error) {
	var keptPatterns []*store.Pattern
	for _, p := range patterns {
		if learning.EffectiveConfidence(p, now, halfLifeDays, g) >= threshold {
			keptPatterns = append(keptPatterns, p)
		}
	}
	sort.Slice(keptPatterns, func(i, j int) bool { return keptPatterns[i].ID < keptPatterns[j].ID })

	var keptFailures []*store.Failure
	if includeAllCritical {
		for _, f := range failures {
			if f.Severity == "critical" {
				keptFailures = append(keptFailures, f)
			}
		}
	}
	sort.Slice(keptFailures, func(i, j int) bool { return keptFailures[i].ID < keptFailures[j].ID })

	patternsJSON, err := json.MarshalIndent(keptPatterns, "", "  ")
	if err != nil {
		return nil, nil, SyncStats{}, fmt.Errorf("distill: marshal patterns: %w", err)
	}
	failuresJSON, err := json.MarshalIndent(keptFailures, "", "  ")
	if err != nil {
		return nil, nil, SyncStats{}, fmt.Errorf("distill: marshal failures: %w", err)
	}

	return patternsJSON, failuresJSON, SyncStats{
		PatternsWritten: len(keptPatterns),
		FailuresWritten: len(keptFailures),
	}, nil
}

// Category is the fixed display grouping for distilled instructions,
// ordered with Gotchas first.
type Category string

const (
	CategoryGotcha     Category = "Gotchas"
	CategoryDont       Category = "Don't"
	CategoryDo         Category = "Do"
	CategoryConvention Category = "Conventions"
	CategoryNavigation Category = "Navigation"
	CategoryManual     Category = "Manual"
)

// categoryOrder is the fixed rendering order, Gotchas first.
var categoryOrder = []Category{
	CategoryGotcha, CategoryDont, CategoryDo, CategoryConvention, CategoryNavigation, CategoryManual,
}

// Instruction is one distilled line item.
type Instruction struct {
	Category Category
	Text     string
}

// navigationPrefixes maps semantically inferred path-prefix tokens to
// human-readable navigation hints.
var navigationPrefixes = map[string]string{
	"test":      "Tests",
	"util":      "Utilities",
	"api":       "API surface",
	"model":     "Data models",
	"component": "UI components",
	"service":   "Services",
	"store":     "Storage layer",
	"db":        "Storage layer",
}

// DistillProjectSkill builds the categorised instruction set: Do rules
// from high-confidence patterns, Don't rules from critical/major
// failures, Conventions from clusters of >=3 patterns
// sharing a path-prefix or tag, Navigation hints from semantic path
// prefixes, and any manually added instructions.
func DistillProjectSkill(
	patterns []*store.Pattern,
	failures []*store.Failure,
	manual []*store.Instruction,
	threshold float64,
	now time.Time,
	halfLifeDays float64,
	g learning.SymbolChecker,
) []Instruction {
	var out []Instruction

	for _, p := range patterns {
		if learning.EffectiveConfidence(p, now, halfLifeDays, g) >= threshold {
			out = append(out, Instruction{Category: CategoryDo, Text: "Do: " + p.Intent})
		}
	}

	for _, f := range failures {
		if f.Severity == "critical" {
			out = append(out, Instruction{Category: CategoryGotcha, Text: "Don't: " + f.Cause + " — " + f.AvoidanceRule})
		} else if f.Severity == "major" {
			out = append(out, Instruction{Category: CategoryDont, Text: "Don't: " + f.Cause + " — " + f.AvoidanceRule})
		}
	}

	for _, text := range conventionClusters(patterns) {
		out = append(out, Instruction{Category: CategoryConvention, Text: text})
	}

	for _, text := range navigationHints(patterns) {
		out = append(out, Instruction{Category: CategoryNavigation, Text: text})
	}

	for _, m := range manual {
		out = append(out, Instruction{Category: CategoryManual, Text: m.Text})
	}

	return out
}

// conventionClusters groups patterns sharing a non-wildcard path segment
// or a tag into clusters of size >= 3 and phrases each as a convention.
func conventionClusters(patterns []*store.Pattern) []string {
	bySegment := map[string][]*store.Pattern{}
	for _, p := range patterns {
		for _, seg := range pathSegments(p.Scope.IncludePaths) {
			bySegment[seg] = append(bySegment[seg], p)
		}
		for _, t := range p.Scope.Tags {
			bySegment["tag:"+t] = append(bySegment["tag:"+t], p)
		}
	}

	var keys []string
	for k := range bySegment {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		cluster := bySegment[k]
		if len(cluster) < 3 {
			continue
		}
		label := strings.TrimPrefix(k, "tag:")
		out = append(out, fmt.Sprintf("Convention in %q: %d related patterns agree on a shared approach", label, len(cluster)))
	}
	return out
}

func pathSegments(globs []string) []string {
	var out []string
	for _, g := range globs {
		for _, seg := range strings.Split(g, "/") {
			if seg != "" && !strings.ContainsAny(seg, "*?") {
				out = append(out, seg)
			}
		}
	}
	return out
}

// navigationHints infers navigation hints from path prefixes appearing in
// pattern scopes, matched against a fixed semantic vocabulary.
func navigationHints(patterns []*store.Pattern) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range patterns {
		for _, seg := range pathSegments(p.Scope.IncludePaths) {
			lower := strings.ToLower(seg)
			for prefix, hint := range navigationPrefixes {
				if strings.Contains(lower, prefix) && !seen[hint] {
					seen[hint] = true
					out = append(out, fmt.Sprintf("%s live under paths matching %q", hint, seg))
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

// RenderSkillMarkdown renders instructions grouped by category in the
// fixed display order, Gotchas first.
func RenderSkillMarkdown(projectName string, instructions []Instruction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", projectName)

	byCategory := map[Category][]Instruction{}
	for _, in := range instructions {
		byCategory[in.Category] = append(byCategory[in.Category], in)
	}

	for _, cat := range categoryOrder {
		items := byCategory[cat]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", cat)
		for _, in := range items {
			fmt.Fprintf(&b, "- %s\n", in.Text)
		}
		b.WriteString("\n")
	}

	return b.String()
}
