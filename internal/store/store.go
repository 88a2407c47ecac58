// Package store implements the persistent layer of the code graph: a
// schema-versioned SQLite database holding nodes, edges, and per-file
// indexing metadata (the "code" database).
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the code graph.
type Store struct {
	db *sql.DB
}

// Node is a tuple (id, graph, kind, data, created_at, updated_at).
type Node struct {
	ID        string
	Graph     string
	Kind      string
	Data      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Edge is a tuple (source, target, kind, graph, data, created_at).
type Edge struct {
	Source    string
	Target    string
	Kind      string
	Graph     string
	Data      map[string]any
	CreatedAt time.Time
}

// FileMeta is (path, mtime, hash, indexed_at).
type FileMeta struct {
	Path      string
	Mtime     int64
	Hash      string
	IndexedAt time.Time
}

// Open opens (and migrates) a SQLite database at dbPath with WAL mode enabled.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for callers that need raw access.
func (s *Store) DB() *sql.DB {
	return s.db
}

type migration struct {
	version int
	ddl     string
}

// migrations is the ordered list of schema versions. Each is applied once,
// recorded transactionally in schema_version.
var migrations = []migration{
	{1, `
CREATE TABLE IF NOT EXISTS nodes (
  id         TEXT PRIMARY KEY,
  graph      TEXT NOT NULL,
  kind       TEXT NOT NULL,
  data       TEXT NOT NULL DEFAULT '{}',
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nodes_graph ON nodes(graph);
CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind);

CREATE TABLE IF NOT EXISTS edges (
  source     TEXT NOT NULL,
  target     TEXT NOT NULL,
  kind       TEXT NOT NULL,
  graph      TEXT NOT NULL,
  data       TEXT NOT NULL DEFAULT '{}',
  created_at INTEGER NOT NULL,
  PRIMARY KEY (source, target, kind, graph)
);
CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target);

CREATE TABLE IF NOT EXISTS files (
  path       TEXT PRIMARY KEY,
  mtime      INTEGER NOT NULL,
  hash       TEXT NOT NULL,
  indexed_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`},
	{2, `
CREATE TABLE IF NOT EXISTS cross_language_edges (
  client_file TEXT NOT NULL,
  server_file TEXT NOT NULL,
  api_path    TEXT NOT NULL,
  method      TEXT NOT NULL DEFAULT '',
  confidence  REAL NOT NULL DEFAULT 0,
  created_at  INTEGER NOT NULL,
  PRIMARY KEY (client_file, server_file, api_path)
);
CREATE INDEX IF NOT EXISTS idx_cross_edges_api_path ON cross_language_edges(api_path);
`},
}

// migrate applies any migrations not yet recorded in schema_version.
// Idempotent: safe to call on every Open.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("store: create schema_version: %w", err)
	}

	applied := map[int]bool{}
	rows, err := s.db.Query(`SELECT version FROM schema_version`)
	if err != nil {
		return fmt.Errorf("store: read schema_version: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("store: scan schema_version: %w", err)
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("store: begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.ddl); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("store: commit migration %d: %w", m.version, err)
		}
	}
	return nil
}

// --- Node operations ---

// UpsertNode inserts or updates a node by id.
func (s *Store) UpsertNode(n *Node) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("store: marshal node data: %w", err)
	}
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now

	_, err = s.db.Exec(
		`INSERT INTO nodes (id, graph, kind, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET graph=excluded.graph, kind=excluded.kind,
		   data=excluded.data, updated_at=excluded.updated_at`,
		n.ID, n.Graph, n.Kind, string(data), n.CreatedAt.Unix(), n.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("store: upsert node %s: %w", n.ID, err)
	}
	return nil
}

// GetNode fetches a node by id. Returns (nil, nil) if not found.
func (s *Store) GetNode(id string) (*Node, error) {
	row := s.db.QueryRow(`SELECT id, graph, kind, data, created_at, updated_at FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get node %s: %w", id, err)
	}
	return n, nil
}

// DeleteNode removes a node by id and cascades to any edges that touch it.
func (s *Store) DeleteNode(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin delete node: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM edges WHERE source = ? OR target = ?`, id, id); err != nil {
		return fmt.Errorf("store: cascade delete edges for %s: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM nodes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete node %s: %w", id, err)
	}
	return tx.Commit()
}

// DeleteNodesByPrefix removes every node whose id starts with prefix, and
// cascades to any edges touching them.
func (s *Store) DeleteNodesByPrefix(prefix string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin prefix delete: %w", err)
	}
	defer tx.Rollback()

	like := escapeLike(prefix) + "%"
	rows, err := tx.Query(`SELECT id FROM nodes WHERE id LIKE ? ESCAPE '\'`, like)
	if err != nil {
		return fmt.Errorf("store: query prefix %s: %w", prefix, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("store: scan prefix id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := tx.Exec(`DELETE FROM edges WHERE source = ? OR target = ?`, id, id); err != nil {
			return fmt.Errorf("store: cascade delete edges for %s: %w", id, err)
		}
	}
	if _, err := tx.Exec(`DELETE FROM nodes WHERE id LIKE ? ESCAPE '\'`, like); err != nil {
		return fmt.Errorf("store: delete prefix %s: %w", prefix, err)
	}
	return tx.Commit()
}

// DeleteGraph removes every node and edge tagged with the given graph
// partition (used to reset the session/cross graphs).
func (s *Store) DeleteGraph(graph string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin delete graph %s: %w", graph, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM edges WHERE graph = ?`, graph); err != nil {
		return fmt.Errorf("store: delete edges for graph %s: %w", graph, err)
	}
	if _, err := tx.Exec(`DELETE FROM nodes WHERE graph = ?`, graph); err != nil {
		return fmt.Errorf("store: delete nodes for graph %s: %w", graph, err)
	}
	return tx.Commit()
}

// AllNodes returns every node in the given graph partition.
func (s *Store) AllNodes(graph string) ([]*Node, error) {
	rows, err := s.db.Query(`SELECT id, graph, kind, data, created_at, updated_at FROM nodes WHERE graph = ?`, graph)
	if err != nil {
		return nil, fmt.Errorf("store: list nodes for graph %s: %w", graph, err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// NodesByKind returns every node of the given kind across all graphs.
func (s *Store) NodesByKind(kind string) ([]*Node, error) {
	rows, err := s.db.Query(`SELECT id, graph, kind, data, created_at, updated_at FROM nodes WHERE kind = ?`, kind)
	if err != nil {
		return nil, fmt.Errorf("store: list nodes by kind %s: %w", kind, err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// FindAllBySuffix returns every node id matching "%::name" in graph "code",
// excluding unresolved stubs. Used by the cross-file resolver.
func (s *Store) FindAllBySuffix(name string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT id FROM nodes WHERE graph = 'code' AND kind != 'unresolved' AND id LIKE ? ESCAPE '\'`,
		"%::"+escapeLike(name),
	)
	if err != nil {
		return nil, fmt.Errorf("store: find by suffix %s: %w", name, err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan suffix id: %w", err)
		}
		if strings.HasSuffix(id, "::"+name) {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

// --- Edge operations ---

// UpsertEdge inserts or updates an edge keyed by (source, target, kind, graph).
func (s *Store) UpsertEdge(e *Edge) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("store: marshal edge data: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err = s.db.Exec(
		`INSERT INTO edges (source, target, kind, graph, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source, target, kind, graph) DO UPDATE SET data=excluded.data`,
		e.Source, e.Target, e.Kind, e.Graph, string(data), e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("store: upsert edge %s->%s: %w", e.Source, e.Target, err)
	}
	return nil
}

// EdgesFrom returns every edge whose source equals id.
func (s *Store) EdgesFrom(id string) ([]*Edge, error) {
	rows, err := s.db.Query(`SELECT source, target, kind, graph, data, created_at FROM edges WHERE source = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("store: edges from %s: %w", id, err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// EdgesTo returns every edge whose target equals id.
func (s *Store) EdgesTo(id string) ([]*Edge, error) {
	rows, err := s.db.Query(`SELECT source, target, kind, graph, data, created_at FROM edges WHERE target = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("store: edges to %s: %w", id, err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// AllEdges returns every edge in the given graph partition.
func (s *Store) AllEdges(graph string) ([]*Edge, error) {
	rows, err := s.db.Query(`SELECT source, target, kind, graph, data, created_at FROM edges WHERE graph = ?`, graph)
	if err != nil {
		return nil, fmt.Errorf("store: all edges for graph %s: %w", graph, err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// RetargetEdges rewrites every edge whose target equals oldTarget to point
// to newTarget. Idempotent under the (source,target,kind,graph) uniqueness
// constraint: collisions with an edge already ending at newTarget are
// deleted from oldTarget first. Returns the number of surviving updates.
func (s *Store) RetargetEdges(oldTarget, newTarget string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin retarget: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT source, target, kind, graph, data, created_at FROM edges WHERE target = ?`, oldTarget)
	if err != nil {
		return 0, fmt.Errorf("store: retarget query: %w", err)
	}
	olds, err := scanEdges(rows)
	rows.Close()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, e := range olds {
		var collision int
		err := tx.QueryRow(
			`SELECT COUNT(*) FROM edges WHERE source = ? AND target = ? AND kind = ? AND graph = ?`,
			e.Source, newTarget, e.Kind, e.Graph,
		).Scan(&collision)
		if err != nil {
			return 0, fmt.Errorf("store: retarget collision check: %w", err)
		}
		if collision > 0 {
			if _, err := tx.Exec(
				`DELETE FROM edges WHERE source = ? AND target = ? AND kind = ? AND graph = ?`,
				e.Source, oldTarget, e.Kind, e.Graph,
			); err != nil {
				return 0, fmt.Errorf("store: retarget delete collision: %w", err)
			}
			continue
		}
		if _, err := tx.Exec(
			`UPDATE edges SET target = ? WHERE source = ? AND target = ? AND kind = ? AND graph = ?`,
			newTarget, e.Source, oldTarget, e.Kind, e.Graph,
		); err != nil {
			return 0, fmt.Errorf("store: retarget update: %w", err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit retarget: %w", err)
	}
	return count, nil
}

// --- File metadata operations ---

// GetFileMeta fetches file metadata by path. Returns (nil, nil) if absent.
func (s *Store) GetFileMeta(path string) (*FileMeta, error) {
	row := s.db.QueryRow(`SELECT path, mtime, hash, indexed_at FROM files WHERE path = ?`, path)
	var fm FileMeta
	var indexedAt int64
	err := row.Scan(&fm.Path, &fm.Mtime, &fm.Hash, &indexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get file meta %s: %w", path, err)
	}
	fm.IndexedAt = time.Unix(indexedAt, 0)
	return &fm, nil
}

// UpsertFileMeta inserts or updates a file-meta row.
func (s *Store) UpsertFileMeta(fm *FileMeta) error {
	if fm.IndexedAt.IsZero() {
		fm.IndexedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO files (path, mtime, hash, indexed_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET mtime=excluded.mtime, hash=excluded.hash, indexed_at=excluded.indexed_at`,
		fm.Path, fm.Mtime, fm.Hash, fm.IndexedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("store: upsert file meta %s: %w", fm.Path, err)
	}
	return nil
}

// ListFileMeta returns all file-meta rows.
func (s *Store) ListFileMeta() ([]*FileMeta, error) {
	rows, err := s.db.Query(`SELECT path, mtime, hash, indexed_at FROM files`)
	if err != nil {
		return nil, fmt.Errorf("store: list file meta: %w", err)
	}
	defer rows.Close()
	var out []*FileMeta
	for rows.Next() {
		var fm FileMeta
		var indexedAt int64
		if err := rows.Scan(&fm.Path, &fm.Mtime, &fm.Hash, &indexedAt); err != nil {
			return nil, fmt.Errorf("store: scan file meta: %w", err)
		}
		fm.IndexedAt = time.Unix(indexedAt, 0)
		out = append(out, &fm)
	}
	return out, rows.Err()
}

// DeleteFileMeta removes a file-meta row by path.
func (s *Store) DeleteFileMeta(path string) error {
	if _, err := s.db.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("store: delete file meta %s: %w", path, err)
	}
	return nil
}

// --- metadata key/value (used e.g. to remember the last-used config hash) ---

// GetMetadata returns a stored metadata value, or "" if absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get metadata %s: %w", key, err)
	}
	return v, nil
}

// SetMetadata stores a metadata value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("store: set metadata %s: %w", key, err)
	}
	return nil
}

// --- Cross-language edges ---

// CrossLanguageEdge links a client-side API call site to the server-side
// route it most likely targets.
type CrossLanguageEdge struct {
	ClientFile string
	ServerFile string
	APIPath    string
	Method     string
	Confidence float64
	CreatedAt  time.Time
}

// UpsertCrossLanguageEdge inserts or refreshes an edge keyed by
// (client_file, server_file, api_path).
func (s *Store) UpsertCrossLanguageEdge(e *CrossLanguageEdge) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO cross_language_edges (client_file, server_file, api_path, method, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(client_file, server_file, api_path) DO UPDATE SET
		   method=excluded.method, confidence=excluded.confidence`,
		e.ClientFile, e.ServerFile, e.APIPath, e.Method, e.Confidence, e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("store: upsert cross-language edge %s->%s: %w", e.ClientFile, e.ServerFile, err)
	}
	return nil
}

// ClearCrossLanguageEdges deletes every recorded cross-language edge, used
// before a forced rebuild.
func (s *Store) ClearCrossLanguageEdges() error {
	if _, err := s.db.Exec(`DELETE FROM cross_language_edges`); err != nil {
		return fmt.Errorf("store: clear cross-language edges: %w", err)
	}
	return nil
}

// QueryAPIConnections returns every edge touching path, either as the
// client file, the server file, or a substring of the api path, ranked by
// confidence.
func (s *Store) QueryAPIConnections(path string) ([]*CrossLanguageEdge, error) {
	rows, err := s.db.Query(
		`SELECT client_file, server_file, api_path, method, confidence, created_at
		 FROM cross_language_edges
		 WHERE client_file = ? OR server_file = ? OR api_path LIKE ?
		 ORDER BY confidence DESC`,
		path, path, "%"+path+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("store: query api connections %s: %w", path, err)
	}
	defer rows.Close()
	var out []*CrossLanguageEdge
	for rows.Next() {
		var e CrossLanguageEdge
		var createdAt int64
		if err := rows.Scan(&e.ClientFile, &e.ServerFile, &e.APIPath, &e.Method, &e.Confidence, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan cross-language edge: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// --- scan helpers ---

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*Node, error) {
	var n Node
	var data string
	var createdAt, updatedAt int64
	if err := row.Scan(&n.ID, &n.Graph, &n.Kind, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	n.CreatedAt = time.Unix(createdAt, 0)
	n.UpdatedAt = time.Unix(updatedAt, 0)
	n.Data = map[string]any{}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &n.Data); err != nil {
			return nil, fmt.Errorf("unmarshal node data: %w", err)
		}
	}
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]*Node, error) {
	var out []*Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan node: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanEdges(rows *sql.Rows) ([]*Edge, error) {
	var out []*Edge
	for rows.Next() {
		var e Edge
		var data string
		var createdAt int64
		if err := rows.Scan(&e.Source, &e.Target, &e.Kind, &e.Graph, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan edge: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		e.Data = map[string]any{}
		if data != "" {
			if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
				return nil, fmt.Errorf("store: unmarshal edge data: %w", err)
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
