package distill

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/websines/codegraph-mcp/internal/store"
)

func TestSyncLearningsFiltersByThreshold(t *testing.T) {
	now := time.Now()
	patterns := []*store.Pattern{
		{ID: "p-high", Confidence: 0.95, CreatedAt: now},
		{ID: "p-low", Confidence: 0.1, CreatedAt: now},
	}
	failures := []*store.Failure{
		{ID: "f-crit", Severity: "critical"},
		{ID: "f-minor", Severity: "minor"},
	}

	pjson, fjson, stats, err := SyncLearnings(patterns, failures, 0.5, true, now, 90, nil)
	require.NoError(t, err)
	require.Equal(t, 1, stats.PatternsWritten)
	require.Equal(t, 1, stats.FailuresWritten)

	var gotPatterns []*store.Pattern
	require.NoError(t, json.Unmarshal(pjson, &gotPatterns))
	require.Len(t, gotPatterns, 1)
	require.Equal(t, "p-high", gotPatterns[0].ID)

	var gotFailures []*store.Failure
	require.NoError(t, json.Unmarshal(fjson, &gotFailures))
	require.Len(t, gotFailures, 1)
	require.Equal(t, "f-crit", gotFailures[0].ID)
}

func TestDistillProjectSkillGotchasFirst(t *testing.T) {
	now := time.Now()
	patterns := []*store.Pattern{{ID: "p1", Intent: "use context cancellation", Confidence: 0.9, CreatedAt: now}}
	failures := []*store.Failure{{ID: "f1", Cause: "deadlock", AvoidanceRule: "lock ordering", Severity: "critical"}}

	instructions := DistillProjectSkill(patterns, failures, nil, 0.5, now, 90, nil)
	md := RenderSkillMarkdown("demo", instructions)

	gotchasIdx := indexOf(md, "## Gotchas")
	doIdx := indexOf(md, "## Do")
	require.GreaterOrEqual(t, gotchasIdx, 0)
	require.GreaterOrEqual(t, doIdx, 0)
	require.Less(t, gotchasIdx, doIdx)
}

func TestConventionClusterRequiresThreeMembers(t *testing.T) {
	mk := func(id string) *store.Pattern {
		return &store.Pattern{ID: id, Intent: "x", Scope: store.Scope{IncludePaths: []string{"src/api/**"}}, Confidence: 0.9, CreatedAt: time.Now()}
	}
	two := []*store.Pattern{mk("a"), mk("b")}
	require.Empty(t, conventionClusters(two))

	three := []*store.Pattern{mk("a"), mk("b"), mk("c")}
	require.NotEmpty(t, conventionClusters(three))
}

func TestFrontMatterRoundTrip(t *testing.T) {
	doc, err := RenderInstructionWithFrontMatter("gotcha", "2026-01-01T00:00:00Z", "don't touch the vendored client")
	require.NoError(t, err)

	category, createdAt, text, err := ParseInstructionFrontMatter(doc)
	require.NoError(t, err)
	require.Equal(t, "gotcha", category)
	require.Equal(t, "2026-01-01T00:00:00Z", createdAt)
	require.Equal(t, "don't touch the vendored client", text)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
