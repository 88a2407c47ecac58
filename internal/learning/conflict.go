package learning

import (
	"regexp"
	"strings"

	"github.com/websines/codegraph-mcp/internal/scope"
	"github.com/websines/codegraph-mcp/internal/store"
)

// Conflict reports two patterns whose intents contradict within an
// overlapping scope.
type Conflict struct {
	PatternA   *store.Pattern
	PatternB   *store.Pattern
	Resolution string // "prefer_first" | "prefer_second" | "needs_human_review"
}

var negationPhrases = []string{
	"don't use", "never use", "avoid using", "do not use", "stop using",
}

var affirmationPhrases = []string{
	"always use", "prefer using", "should use", "ensure using",
}

var negativeWords = []string{"don't", "never", "avoid", "not", "no", "prevent", "stop"}

var positiveWords = []string{"always", "prefer", "do", "yes", "ensure", "should"}

var tokenRE = regexp.MustCompile(`[a-z0-9]+`)

// DetectConflicts finds pairs among patterns whose scopes overlap (shared
// non-wildcard path segment, shared tag, or both scopes empty) and whose
// tokenised intents are similar enough (Jaccard > 0.6) with opposite
// sentiment.
func DetectConflicts(patterns []*store.Pattern) []Conflict {
	var conflicts []Conflict
	for i := 0; i < len(patterns); i++ {
		for j := i + 1; j < len(patterns); j++ {
			a, b := patterns[i], patterns[j]
			if !scopesOverlap(a, b) {
				continue
			}
			if jaccard(tokenize(a.Intent), tokenize(b.Intent)) <= 0.6 {
				continue
			}
			sa := sentiment(a.Intent)
			sb := sentiment(b.Intent)
			if sa == 0 || sb == 0 || sa == sb {
				continue
			}

			resolution := "needs_human_review"
			diff := a.Confidence - b.Confidence
			if diff > 0.2 {
				resolution = "prefer_first"
			} else if diff < -0.2 {
				resolution = "prefer_second"
			}
			conflicts = append(conflicts, Conflict{PatternA: a, PatternB: b, Resolution: resolution})
		}
	}
	return conflicts
}

func scopesOverlap(a, b *store.Pattern) bool {
	if isEmptyScope(a.Scope) && isEmptyScope(b.Scope) {
		return true
	}
	if scope.SharesNonWildcardSegment(a.Scope.IncludePaths, b.Scope.IncludePaths) {
		return true
	}
	aTags := map[string]bool{}
	for _, t := range a.Scope.Tags {
		aTags[t] = true
	}
	for _, t := range b.Scope.Tags {
		if aTags[t] {
			return true
		}
	}
	return false
}

func isEmptyScope(s store.Scope) bool {
	return len(s.IncludePaths) == 0 && len(s.ExcludePaths) == 0 && len(s.Symbols) == 0 && len(s.Tags) == 0
}

func tokenize(s string) map[string]bool {
	out := map[string]bool{}
	for _, tok := range tokenRE.FindAllString(strings.ToLower(s), -1) {
		if len(tok) > 2 {
			out[tok] = true
		}
	}
	return out
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// sentiment returns +1 for affirmation, -1 for negation, 0 for neutral.
// Explicit negation/affirmation phrases outweigh word-level counts; when
// both or neither phrase list matches, it falls back to counting
// negative vs positive words.
func sentiment(intent string) int {
	lower := strings.ToLower(intent)

	hasNegation := containsAny(lower, negationPhrases)
	hasAffirmation := containsAny(lower, affirmationPhrases)

	if hasNegation && !hasAffirmation {
		return -1
	}
	if hasAffirmation && !hasNegation {
		return 1
	}

	negCount := countAny(lower, negativeWords)
	posCount := countAny(lower, positiveWords)
	switch {
	case negCount > posCount:
		return -1
	case posCount > negCount:
		return 1
	default:
		return 0
	}
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func countAny(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}
