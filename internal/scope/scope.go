// Package scope implements the four-field predicate shared by patterns
// and failures: a Scope matches or rejects a query context based on
// glob-matched paths, substring-matched symbols, and tag intersection.
package scope

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Scope mirrors store.Scope; duplicated here (rather than imported) to
// keep this package free of a store dependency — it is a pure predicate
// usable against any context, not just stored patterns/failures.
type Scope struct {
	IncludePaths []string
	ExcludePaths []string
	Symbols      []string
	Tags         []string
}

// Context is the query-side input to Matches.
type Context struct {
	File    string
	Symbols []string
	Tags    []string
}

// IsEmpty reports whether every field of s is unset, in which case Matches
// always returns true.
func (s Scope) IsEmpty() bool {
	return len(s.IncludePaths) == 0 && len(s.ExcludePaths) == 0 && len(s.Symbols) == 0 && len(s.Tags) == 0
}

// Matches implements the scope-inclusion predicate:
//   - Empty scope matches everything.
//   - If include_paths is non-empty and ctx.File is present, at least one
//     include glob must match.
//   - If any exclude_paths glob matches ctx.File, the scope does not match.
//   - If both scope and context have symbols, at least one scope substring
//     must appear case-insensitively in some context symbol.
//   - If both scope and context have tags, the intersection must be
//     non-empty.
func (s Scope) Matches(ctx Context) bool {
	if s.IsEmpty() {
		return true
	}

	if ctx.File != "" {
		for _, g := range s.ExcludePaths {
			if globMatch(g, ctx.File) {
				return false
			}
		}
		if len(s.IncludePaths) > 0 {
			matched := false
			for _, g := range s.IncludePaths {
				if globMatch(g, ctx.File) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}

	if len(s.Symbols) > 0 && len(ctx.Symbols) > 0 {
		matched := false
	outer:
		for _, want := range s.Symbols {
			lw := strings.ToLower(want)
			for _, have := range ctx.Symbols {
				if strings.Contains(strings.ToLower(have), lw) {
					matched = true
					break outer
				}
			}
		}
		if !matched {
			return false
		}
	}

	if len(s.Tags) > 0 && len(ctx.Tags) > 0 {
		set := make(map[string]bool, len(ctx.Tags))
		for _, t := range ctx.Tags {
			set[t] = true
		}
		matched := false
		for _, t := range s.Tags {
			if set[t] {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// globMatch implements the glob syntax (`*` within a path
// segment, `**` across segments, `?` for one character) on top of
// doublestar, which already implements this exact semantics.
func globMatch(pattern, path string) bool {
	ok, err := doublestar.Match(pattern, path)
	if err != nil {
		return false
	}
	return ok
}

// SharesNonWildcardSegment reports whether two path-glob sets share at
// least one literal (non-wildcard) path segment. Used by convention
// clustering and conflict-pair discovery (Open Question 2 —
// resolved to require a non-wildcard shared segment, the stricter
// reading).
func SharesNonWildcardSegment(a, b []string) bool {
	segsA := literalSegments(a)
	if len(segsA) == 0 {
		return false
	}
	segsB := literalSegments(b)
	for s := range segsA {
		if segsB[s] {
			return true
		}
	}
	return false
}

func literalSegments(globs []string) map[string]bool {
	out := map[string]bool{}
	for _, g := range globs {
		for _, seg := range strings.Split(g, "/") {
			if seg == "" || strings.ContainsAny(seg, "*?") {
				continue
			}
			out[seg] = true
		}
	}
	return out
}
