// Package crosslang infers REST and GraphQL API connections between
// client-side call sites and server-side route handlers by matching
// regex-extracted path/operation names across the indexed file set.
package crosslang

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/websines/codegraph-mcp/internal/store"
)

// Rule pairs a client-side call pattern with a server-side route pattern
// that are expected to reference the same API path or operation name.
type Rule struct {
	Name         string
	ClientGlob   string
	ServerGlob   string
	ClientRegexp *regexp.Regexp
	ServerRegexp *regexp.Regexp
}

// Stats summarizes one inference run.
type Stats struct {
	ClientCallsFound  int
	ServerRoutesFound int
	ConnectionsMade   int
	Duration          time.Duration
}

// DefaultRules returns the built-in REST-fetch and GraphQL inference rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:         "rest_fetch",
			ClientGlob:   "**/*.{js,ts,jsx,tsx}",
			ServerGlob:   "**/*.{py,rs,js,ts,go}",
			ClientRegexp: regexp.MustCompile(`(?:fetch|axios\.(?:get|post|put|delete|patch))\s*\(\s*['"` + "`" + `]([/\w\-{}:]+)['"` + "`" + `]`),
			ServerRegexp: regexp.MustCompile(`(?:@app\.route|@router\.|router\.(?:get|post|put|delete|patch)|app\.(?:get|post|put|delete|patch))\s*\(\s*['"` + "`" + `]([/\w\-{}:]+)['"` + "`" + `]`),
		},
		{
			Name:         "graphql",
			ClientGlob:   "**/*.{js,ts,jsx,tsx,gql,graphql}",
			ServerGlob:   "**/*.{py,rs,js,ts,go}",
			ClientRegexp: regexp.MustCompile(`(?:query|mutation)\s+(\w+)`),
			ServerRegexp: regexp.MustCompile(`def\s+(?:resolve_)?(\w+)`),
		},
	}
}

// Inferrer runs cross-language API-connection inference against a Store's
// indexed file list.
type Inferrer struct {
	store *store.Store
	rules []Rule
}

// New builds an Inferrer with the default rule set.
func New(s *store.Store) *Inferrer {
	return &Inferrer{store: s, rules: DefaultRules()}
}

// Infer scans every indexed file under root against each rule, records a
// cross_language_edges row for every (client call, server route) pair that
// share a normalized API path, and returns run statistics. When
// forceRebuild is set, previously recorded edges are cleared first.
func (in *Inferrer) Infer(root string, forceRebuild bool) (Stats, error) {
	start := time.Now()
	var stats Stats

	if forceRebuild {
		if err := in.store.ClearCrossLanguageEdges(); err != nil {
			return stats, fmt.Errorf("crosslang: infer: %w", err)
		}
	}

	metas, err := in.store.ListFileMeta()
	if err != nil {
		return stats, fmt.Errorf("crosslang: infer: list files: %w", err)
	}
	files := make([]string, len(metas))
	for i, m := range metas {
		files[i] = m.Path
	}

	for _, rule := range in.rules {
		clientCalls := map[string][]string{}
		for _, f := range files {
			if !matchesGlob(f, rule.ClientGlob) {
				continue
			}
			content, err := os.ReadFile(filepath.Join(root, f))
			if err != nil {
				continue
			}
			for _, m := range rule.ClientRegexp.FindAllStringSubmatch(string(content), -1) {
				if len(m) < 2 {
					continue
				}
				key := normalizePath(m[1])
				clientCalls[key] = append(clientCalls[key], f)
			}
		}
		stats.ClientCallsFound += len(clientCalls)

		serverRoutes := map[string][]string{}
		for _, f := range files {
			if !matchesGlob(f, rule.ServerGlob) {
				continue
			}
			content, err := os.ReadFile(filepath.Join(root, f))
			if err != nil {
				continue
			}
			for _, m := range rule.ServerRegexp.FindAllStringSubmatch(string(content), -1) {
				if len(m) < 2 {
					continue
				}
				key := normalizePath(m[1])
				serverRoutes[key] = append(serverRoutes[key], f)
			}
		}
		stats.ServerRoutesFound += len(serverRoutes)

		for apiPath, clientFiles := range clientCalls {
			serverFiles, ok := serverRoutes[apiPath]
			if !ok {
				continue
			}
			for _, clientFile := range clientFiles {
				for _, serverFile := range serverFiles {
					if err := in.store.UpsertCrossLanguageEdge(&store.CrossLanguageEdge{
						ClientFile: clientFile,
						ServerFile: serverFile,
						APIPath:    apiPath,
						Confidence: 0.8,
					}); err != nil {
						return stats, fmt.Errorf("crosslang: infer: record connection: %w", err)
					}
					stats.ConnectionsMade++
				}
			}
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// GetAPIConnections returns every recorded edge touching path, ranked by
// confidence.
func (in *Inferrer) GetAPIConnections(path string) ([]*store.CrossLanguageEdge, error) {
	edges, err := in.store.QueryAPIConnections(path)
	if err != nil {
		return nil, fmt.Errorf("crosslang: get api connections: %w", err)
	}
	return edges, nil
}

// normalizePath canonicalizes an extracted API path/operation name so the
// same logical route matches regardless of leading slash, path-param
// syntax, or case.
func normalizePath(path string) string {
	p := strings.TrimPrefix(path, "/")
	p = strings.ReplaceAll(p, "${", "{")
	p = strings.ReplaceAll(p, ":id", "{id}")
	p = strings.ReplaceAll(p, ":userId", "{userId}")
	return strings.ToLower(p)
}

// matchesGlob implements the small subset of glob syntax the inference
// rules use: brace-expanded extension lists (**/*.{js,ts}), a bare
// extension (**/*.rs), a single wildcard substring match, or a plain
// substring match.
func matchesGlob(path, pattern string) bool {
	if strings.Contains(pattern, "**/*.") {
		if start, end := strings.Index(pattern, "{"), strings.LastIndex(pattern, "}"); start >= 0 && end > start {
			for _, ext := range strings.Split(pattern[start+1:end], ",") {
				if strings.HasSuffix(path, "."+strings.TrimSpace(ext)) {
					return true
				}
			}
			return false
		}
		ext := pattern[strings.LastIndex(pattern, ".")+1:]
		return strings.HasSuffix(path, "."+ext)
	}
	if strings.Contains(pattern, "*") {
		return strings.Contains(path, strings.Trim(pattern, "*"))
	}
	return strings.Contains(path, pattern)
}
