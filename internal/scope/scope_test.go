package scope

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyScopeMatchesEverything(t *testing.T) {
	var s Scope
	require.True(t, s.Matches(Context{File: "anything.go"}))
}

func TestIncludePathsGlob(t *testing.T) {
	s := Scope{IncludePaths: []string{"src/**/*.go"}}
	require.True(t, s.Matches(Context{File: "src/a/b.go"}))
	require.False(t, s.Matches(Context{File: "other/b.go"}))
}

func TestExcludePathsWins(t *testing.T) {
	s := Scope{IncludePaths: []string{"**/*.go"}, ExcludePaths: []string{"**/generated/*.go"}}
	require.False(t, s.Matches(Context{File: "src/generated/x.go"}))
}

func TestSymbolsSubstringCaseInsensitive(t *testing.T) {
	s := Scope{Symbols: []string{"handler"}}
	require.True(t, s.Matches(Context{Symbols: []string{"AuthHandler"}}))
	require.False(t, s.Matches(Context{Symbols: []string{"Other"}}))
}

func TestTagsIntersection(t *testing.T) {
	s := Scope{Tags: []string{"database"}}
	require.True(t, s.Matches(Context{Tags: []string{"api", "database"}}))
	require.False(t, s.Matches(Context{Tags: []string{"api"}}))
}

func TestMatchIsMonotoneInContext(t *testing.T) {
	s := Scope{Symbols: []string{"handler"}, Tags: []string{"database"}}
	base := Context{Symbols: []string{"AuthHandler"}, Tags: []string{"database"}}
	require.True(t, s.Matches(base))

	// Adding another tag or symbol must never flip true -> false.
	more := Context{Symbols: []string{"AuthHandler", "Other"}, Tags: []string{"database", "api"}}
	require.True(t, s.Matches(more))
}

func TestSharesNonWildcardSegment(t *testing.T) {
	require.True(t, SharesNonWildcardSegment([]string{"src/api/**"}, []string{"src/api/v2/*.go"}))
	require.False(t, SharesNonWildcardSegment([]string{"src/**"}, []string{"**/*.go"}))
}
