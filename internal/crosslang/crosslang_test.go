package crosslang

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/websines/codegraph-mcp/internal/store"
)

func TestNormalizePath(t *testing.T) {
	require.Equal(t, "api/users/{id}", normalizePath("/api/users/{id}"))
	require.Equal(t, "users/{id}", normalizePath("/users/:id"))
	require.Equal(t, "users/{userid}", normalizePath("/Users/${userId}"))
}

func TestMatchesGlob(t *testing.T) {
	require.True(t, matchesGlob("src/api/users.ts", "**/*.{js,ts}"))
	require.True(t, matchesGlob("src/main.js", "**/*.{js,ts}"))
	require.False(t, matchesGlob("src/main.rs", "**/*.{js,ts}"))
}

func TestClientPatternExtractsCallPaths(t *testing.T) {
	rule := DefaultRules()[0]
	content := `
		fetch('/api/users')
		axios.get('/api/posts')
		axios.post("/api/comments")
	`
	var paths []string
	for _, m := range rule.ClientRegexp.FindAllStringSubmatch(content, -1) {
		paths = append(paths, m[1])
	}
	require.Len(t, paths, 3)
	require.Contains(t, paths, "/api/users")
	require.Contains(t, paths, "/api/posts")
	require.Contains(t, paths, "/api/comments")
}

func newTestInferrer(t *testing.T) (*Inferrer, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clientPath := filepath.Join(dir, "client.ts")
	require.NoError(t, os.WriteFile(clientPath, []byte(`fetch('/api/users')`), 0o644))
	serverPath := filepath.Join(dir, "server.py")
	require.NoError(t, os.WriteFile(serverPath, []byte(`@app.route('/api/users')`), 0o644))

	require.NoError(t, db.UpsertFileMeta(&store.FileMeta{Path: "client.ts", Hash: "a"}))
	require.NoError(t, db.UpsertFileMeta(&store.FileMeta{Path: "server.py", Hash: "b"}))

	return New(db), dir
}

func TestInferRecordsMatchingConnection(t *testing.T) {
	in, root := newTestInferrer(t)

	stats, err := in.Infer(root, false)
	require.NoError(t, err)
	require.Equal(t, 1, stats.ConnectionsMade)

	conns, err := in.GetAPIConnections("client.ts")
	require.NoError(t, err)
	require.Len(t, conns, 1)
	require.Equal(t, "server.py", conns[0].ServerFile)
	require.Equal(t, "api/users", conns[0].APIPath)
}

func TestInferForceRebuildClearsPriorEdges(t *testing.T) {
	in, root := newTestInferrer(t)

	_, err := in.Infer(root, false)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "server.py")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "server.py"), []byte(`# no routes here`), 0o644))

	_, err = in.Infer(root, true)
	require.NoError(t, err)

	conns, err := in.GetAPIConnections("client.ts")
	require.NoError(t, err)
	require.Empty(t, conns)
}
