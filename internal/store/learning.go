package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Scope is the four-field predicate over (file, symbols, tags) shared by
// patterns and failures.
type Scope struct {
	IncludePaths []string `json:"include_paths,omitempty"`
	ExcludePaths []string `json:"exclude_paths,omitempty"`
	Symbols      []string `json:"symbols,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// Pattern is (id, intent, mechanism?, examples[], scope, confidence,
// usage_count, success_count, last_validated?, created_at, updated_at).
type Pattern struct {
	ID            string
	Intent        string
	Mechanism     string
	Examples      []string
	Scope         Scope
	Confidence    float64
	UsageCount    int
	SuccessCount  int
	LastValidated *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Failure is (id, cause, avoidance_rule, severity, scope, times_prevented,
// created_at, updated_at).
type Failure struct {
	ID             string
	Cause          string
	AvoidanceRule  string
	Severity       string // critical | major | minor
	Scope          Scope
	TimesPrevented int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Solution is (id, task, plan, approach?, outcome, metrics?,
// files_modified[], symbols_modified[], parent_id?, created_at).
type Solution struct {
	ID               string
	Task             string
	Plan             string
	Approach         string
	Outcome          string // success | failure | partial
	Metrics          map[string]any
	FilesModified    []string
	SymbolsModified  []string
	ParentID         string
	CreatedAt        time.Time
}

// Instruction is a manually added distillation entry.
type Instruction struct {
	ID        string
	Category  string
	Text      string
	CreatedAt time.Time
}

// FeatureVector scores a solution along the three axes used to assign it to
// a behavioral niche.
type FeatureVector struct {
	Performance     float64
	Readability     float64
	Maintainability float64
}

// ToSlice returns the vector in (performance, readability, maintainability)
// order.
func (v FeatureVector) ToSlice() [3]float64 {
	return [3]float64{v.Performance, v.Readability, v.Maintainability}
}

// Niche is a named cluster of solutions that share a dominant quality trait
// (high-performance, high-readability, high-maintainability, balanced).
type Niche struct {
	ID          string
	TaskType    string
	Description string
	CreatedAt   time.Time
}

// NicheSolution is a solution's membership in a niche, carrying the feature
// vector and score used to rank it against its niche-mates.
type NicheSolution struct {
	NicheID    string
	SolutionID string
	Vector     FeatureVector
	Score      float64
	CreatedAt  time.Time
}

// BestSolution is the top-scoring solution recorded for a niche.
type BestSolution struct {
	SolutionID string
	Vector     FeatureVector
	Score      float64
}

// NicheWithBest pairs a niche with its best-scoring solution, if any.
type NicheWithBest struct {
	Niche Niche
	Best  *BestSolution
}

var learningMigrations = []migration{
	{1, `
CREATE TABLE IF NOT EXISTS patterns (
  id             TEXT PRIMARY KEY,
  intent         TEXT NOT NULL,
  mechanism      TEXT NOT NULL DEFAULT '',
  examples       TEXT NOT NULL DEFAULT '[]',
  scope          TEXT NOT NULL DEFAULT '{}',
  confidence     REAL NOT NULL DEFAULT 0,
  usage_count    INTEGER NOT NULL DEFAULT 0,
  success_count  INTEGER NOT NULL DEFAULT 0,
  last_validated INTEGER,
  created_at     INTEGER NOT NULL,
  updated_at     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS failures (
  id              TEXT PRIMARY KEY,
  cause           TEXT NOT NULL,
  avoidance_rule  TEXT NOT NULL,
  severity        TEXT NOT NULL,
  scope           TEXT NOT NULL DEFAULT '{}',
  times_prevented INTEGER NOT NULL DEFAULT 0,
  created_at      INTEGER NOT NULL,
  updated_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS solutions (
  id                TEXT PRIMARY KEY,
  task              TEXT NOT NULL,
  plan              TEXT NOT NULL,
  approach          TEXT NOT NULL DEFAULT '',
  outcome           TEXT NOT NULL,
  metrics           TEXT NOT NULL DEFAULT '{}',
  files_modified    TEXT NOT NULL DEFAULT '[]',
  symbols_modified  TEXT NOT NULL DEFAULT '[]',
  parent_id         TEXT,
  created_at        INTEGER NOT NULL,
  FOREIGN KEY (parent_id) REFERENCES solutions(id)
);
CREATE INDEX IF NOT EXISTS idx_solutions_parent ON solutions(parent_id);

CREATE TABLE IF NOT EXISTS instructions (
  id         TEXT PRIMARY KEY,
  category   TEXT NOT NULL,
  text       TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
`},
	{2, `
CREATE TABLE IF NOT EXISTS niches (
  id          TEXT PRIMARY KEY,
  task_type   TEXT NOT NULL,
  description TEXT NOT NULL,
  created_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS niche_solutions (
  niche_id     TEXT NOT NULL,
  solution_id  TEXT NOT NULL,
  performance  REAL NOT NULL,
  readability  REAL NOT NULL,
  maintainability REAL NOT NULL,
  score        REAL NOT NULL,
  created_at   INTEGER NOT NULL,
  PRIMARY KEY (niche_id, solution_id),
  FOREIGN KEY (niche_id) REFERENCES niches(id),
  FOREIGN KEY (solution_id) REFERENCES solutions(id)
);
CREATE INDEX IF NOT EXISTS idx_niche_solutions_niche ON niche_solutions(niche_id);
`},
}

// LearningStore is the SQLite data access layer for patterns, failures,
// solution lineage, and manually authored instructions.
type LearningStore struct {
	db *sql.DB
}

// OpenLearningStore opens (and migrates) the learning database.
func OpenLearningStore(dbPath string) (*LearningStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("learning store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("learning store: ping database: %w", err)
	}
	ls := &LearningStore{db: db}
	if err := ls.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return ls, nil
}

// Close closes the underlying database connection.
func (ls *LearningStore) Close() error { return ls.db.Close() }

// DB returns the underlying *sql.DB.
func (ls *LearningStore) DB() *sql.DB { return ls.db }

func (ls *LearningStore) migrate() error {
	if _, err := ls.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("learning store: create schema_version: %w", err)
	}
	applied := map[int]bool{}
	rows, err := ls.db.Query(`SELECT version FROM schema_version`)
	if err != nil {
		return fmt.Errorf("learning store: read schema_version: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("learning store: scan schema_version: %w", err)
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range learningMigrations {
		if applied[m.version] {
			continue
		}
		tx, err := ls.db.Begin()
		if err != nil {
			return fmt.Errorf("learning store: begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.ddl); err != nil {
			tx.Rollback()
			return fmt.Errorf("learning store: apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("learning store: record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("learning store: commit migration %d: %w", m.version, err)
		}
	}
	return nil
}

// --- Patterns ---

// UpsertPattern inserts or updates a pattern by id.
func (ls *LearningStore) UpsertPattern(p *Pattern) error {
	examples, err := json.Marshal(p.Examples)
	if err != nil {
		return fmt.Errorf("learning store: marshal examples: %w", err)
	}
	scope, err := json.Marshal(p.Scope)
	if err != nil {
		return fmt.Errorf("learning store: marshal scope: %w", err)
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	var lastValidated any
	if p.LastValidated != nil {
		lastValidated = p.LastValidated.Unix()
	}

	_, err = ls.db.Exec(
		`INSERT INTO patterns (id, intent, mechanism, examples, scope, confidence, usage_count, success_count, last_validated, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET intent=excluded.intent, mechanism=excluded.mechanism,
		   examples=excluded.examples, scope=excluded.scope, confidence=excluded.confidence,
		   usage_count=excluded.usage_count, success_count=excluded.success_count,
		   last_validated=excluded.last_validated, updated_at=excluded.updated_at`,
		p.ID, p.Intent, p.Mechanism, string(examples), string(scope), p.Confidence,
		p.UsageCount, p.SuccessCount, lastValidated, p.CreatedAt.Unix(), p.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("learning store: upsert pattern %s: %w", p.ID, err)
	}
	return nil
}

// GetPattern fetches a pattern by id. Returns (nil, nil) if not found.
func (ls *LearningStore) GetPattern(id string) (*Pattern, error) {
	row := ls.db.QueryRow(
		`SELECT id, intent, mechanism, examples, scope, confidence, usage_count, success_count, last_validated, created_at, updated_at
		 FROM patterns WHERE id = ?`, id)
	p, err := scanPattern(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("learning store: get pattern %s: %w", id, err)
	}
	return p, nil
}

// ListPatterns returns every stored pattern, sorted by id.
func (ls *LearningStore) ListPatterns() ([]*Pattern, error) {
	rows, err := ls.db.Query(
		`SELECT id, intent, mechanism, examples, scope, confidence, usage_count, success_count, last_validated, created_at, updated_at
		 FROM patterns ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("learning store: list patterns: %w", err)
	}
	defer rows.Close()
	var out []*Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("learning store: scan pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecordPatternUsage increments usage_count, conditionally success_count,
// and sets last_validated = now on success.
func (ls *LearningStore) RecordPatternUsage(id string, success bool) error {
	tx, err := ls.db.Begin()
	if err != nil {
		return fmt.Errorf("learning store: begin usage update: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if success {
		_, err = tx.Exec(
			`UPDATE patterns SET usage_count = usage_count + 1, success_count = success_count + 1,
			   last_validated = ?, updated_at = ? WHERE id = ?`,
			now, now, id,
		)
	} else {
		_, err = tx.Exec(
			`UPDATE patterns SET usage_count = usage_count + 1, updated_at = ? WHERE id = ?`,
			now, id,
		)
	}
	if err != nil {
		return fmt.Errorf("learning store: update pattern usage %s: %w", id, err)
	}
	return tx.Commit()
}

func scanPattern(row scanner) (*Pattern, error) {
	var p Pattern
	var examples, scope string
	var lastValidated sql.NullInt64
	var createdAt, updatedAt int64
	if err := row.Scan(&p.ID, &p.Intent, &p.Mechanism, &examples, &scope, &p.Confidence,
		&p.UsageCount, &p.SuccessCount, &lastValidated, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(examples), &p.Examples); err != nil {
		return nil, fmt.Errorf("unmarshal pattern examples: %w", err)
	}
	if err := json.Unmarshal([]byte(scope), &p.Scope); err != nil {
		return nil, fmt.Errorf("unmarshal pattern scope: %w", err)
	}
	if lastValidated.Valid {
		t := time.Unix(lastValidated.Int64, 0)
		p.LastValidated = &t
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

// --- Failures ---

// UpsertFailure inserts or updates a failure by id.
func (ls *LearningStore) UpsertFailure(f *Failure) error {
	scope, err := json.Marshal(f.Scope)
	if err != nil {
		return fmt.Errorf("learning store: marshal scope: %w", err)
	}
	now := time.Now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now

	_, err = ls.db.Exec(
		`INSERT INTO failures (id, cause, avoidance_rule, severity, scope, times_prevented, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET cause=excluded.cause, avoidance_rule=excluded.avoidance_rule,
		   severity=excluded.severity, scope=excluded.scope, times_prevented=excluded.times_prevented,
		   updated_at=excluded.updated_at`,
		f.ID, f.Cause, f.AvoidanceRule, f.Severity, string(scope), f.TimesPrevented,
		f.CreatedAt.Unix(), f.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("learning store: upsert failure %s: %w", f.ID, err)
	}
	return nil
}

// GetFailure fetches a failure by id. Returns (nil, nil) if not found.
func (ls *LearningStore) GetFailure(id string) (*Failure, error) {
	row := ls.db.QueryRow(
		`SELECT id, cause, avoidance_rule, severity, scope, times_prevented, created_at, updated_at
		 FROM failures WHERE id = ?`, id)
	f, err := scanFailure(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("learning store: get failure %s: %w", id, err)
	}
	return f, nil
}

// ListFailures returns every stored failure, sorted by id.
func (ls *LearningStore) ListFailures() ([]*Failure, error) {
	rows, err := ls.db.Query(
		`SELECT id, cause, avoidance_rule, severity, scope, times_prevented, created_at, updated_at
		 FROM failures ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("learning store: list failures: %w", err)
	}
	defer rows.Close()
	var out []*Failure
	for rows.Next() {
		f, err := scanFailure(rows)
		if err != nil {
			return nil, fmt.Errorf("learning store: scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// IncrementPrevented atomically bumps times_prevented for a failure.
func (ls *LearningStore) IncrementPrevented(id string) error {
	res, err := ls.db.Exec(
		`UPDATE failures SET times_prevented = times_prevented + 1, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("learning store: increment prevented %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("learning store: increment prevented rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("learning store: increment prevented: failure %s not found", id)
	}
	return nil
}

func scanFailure(row scanner) (*Failure, error) {
	var f Failure
	var scope string
	var createdAt, updatedAt int64
	if err := row.Scan(&f.ID, &f.Cause, &f.AvoidanceRule, &f.Severity, &scope, &f.TimesPrevented,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(scope), &f.Scope); err != nil {
		return nil, fmt.Errorf("unmarshal failure scope: %w", err)
	}
	f.CreatedAt = time.Unix(createdAt, 0)
	f.UpdatedAt = time.Unix(updatedAt, 0)
	return &f, nil
}

// --- Solution lineage ---

// InsertSolution creates a new solution record (record_attempt / first write
// of record_outcome flow).
func (ls *LearningStore) InsertSolution(s *Solution) error {
	metrics, err := json.Marshal(s.Metrics)
	if err != nil {
		return fmt.Errorf("learning store: marshal metrics: %w", err)
	}
	files, err := json.Marshal(s.FilesModified)
	if err != nil {
		return fmt.Errorf("learning store: marshal files_modified: %w", err)
	}
	symbols, err := json.Marshal(s.SymbolsModified)
	if err != nil {
		return fmt.Errorf("learning store: marshal symbols_modified: %w", err)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	var parentID any
	if s.ParentID != "" {
		parentID = s.ParentID
	}

	_, err = ls.db.Exec(
		`INSERT INTO solutions (id, task, plan, approach, outcome, metrics, files_modified, symbols_modified, parent_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Task, s.Plan, s.Approach, s.Outcome, string(metrics), string(files), string(symbols),
		parentID, s.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("learning store: insert solution %s: %w", s.ID, err)
	}
	return nil
}

// UpdateSolutionOutcome transitions a solution's outcome and writes its
// metrics and modified files/symbols (record_outcome).
func (ls *LearningStore) UpdateSolutionOutcome(id, outcome string, metrics map[string]any, filesModified, symbolsModified []string) error {
	m, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("learning store: marshal metrics: %w", err)
	}
	files, err := json.Marshal(filesModified)
	if err != nil {
		return fmt.Errorf("learning store: marshal files_modified: %w", err)
	}
	symbols, err := json.Marshal(symbolsModified)
	if err != nil {
		return fmt.Errorf("learning store: marshal symbols_modified: %w", err)
	}
	res, err := ls.db.Exec(
		`UPDATE solutions SET outcome = ?, metrics = ?, files_modified = ?, symbols_modified = ? WHERE id = ?`,
		outcome, string(m), string(files), string(symbols), id,
	)
	if err != nil {
		return fmt.Errorf("learning store: update solution outcome %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("learning store: update solution outcome rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("learning store: update solution outcome: solution %s not found", id)
	}
	return nil
}

// GetSolution fetches a solution by id. Returns (nil, nil) if not found.
func (ls *LearningStore) GetSolution(id string) (*Solution, error) {
	row := ls.db.QueryRow(
		`SELECT id, task, plan, approach, outcome, metrics, files_modified, symbols_modified, parent_id, created_at
		 FROM solutions WHERE id = ?`, id)
	s, err := scanSolution(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("learning store: get solution %s: %w", id, err)
	}
	return s, nil
}

// ChildSolutions returns every solution whose parent_id equals id.
func (ls *LearningStore) ChildSolutions(id string) ([]*Solution, error) {
	rows, err := ls.db.Query(
		`SELECT id, task, plan, approach, outcome, metrics, files_modified, symbols_modified, parent_id, created_at
		 FROM solutions WHERE parent_id = ? ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("learning store: children of solution %s: %w", id, err)
	}
	defer rows.Close()
	var out []*Solution
	for rows.Next() {
		s, err := scanSolution(rows)
		if err != nil {
			return nil, fmt.Errorf("learning store: scan solution: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RootSolutions returns every solution with no parent, oldest first.
func (ls *LearningStore) RootSolutions() ([]*Solution, error) {
	rows, err := ls.db.Query(
		`SELECT id, task, plan, approach, outcome, metrics, files_modified, symbols_modified, parent_id, created_at
		 FROM solutions WHERE parent_id IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("learning store: root solutions: %w", err)
	}
	defer rows.Close()
	var out []*Solution
	for rows.Next() {
		s, err := scanSolution(rows)
		if err != nil {
			return nil, fmt.Errorf("learning store: scan solution: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSolution(row scanner) (*Solution, error) {
	var s Solution
	var metrics, files, symbols string
	var parentID sql.NullString
	var createdAt int64
	if err := row.Scan(&s.ID, &s.Task, &s.Plan, &s.Approach, &s.Outcome, &metrics, &files, &symbols,
		&parentID, &createdAt); err != nil {
		return nil, err
	}
	s.Metrics = map[string]any{}
	if metrics != "" {
		if err := json.Unmarshal([]byte(metrics), &s.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal solution metrics: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(files), &s.FilesModified); err != nil {
		return nil, fmt.Errorf("unmarshal solution files_modified: %w", err)
	}
	if err := json.Unmarshal([]byte(symbols), &s.SymbolsModified); err != nil {
		return nil, fmt.Errorf("unmarshal solution symbols_modified: %w", err)
	}
	if parentID.Valid {
		s.ParentID = parentID.String
	}
	s.CreatedAt = time.Unix(createdAt, 0)
	return &s, nil
}

// --- Instructions ---

// InsertInstruction adds a manually authored instruction.
func (ls *LearningStore) InsertInstruction(in *Instruction) error {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	_, err := ls.db.Exec(
		`INSERT INTO instructions (id, category, text, created_at) VALUES (?, ?, ?, ?)`,
		in.ID, in.Category, in.Text, in.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("learning store: insert instruction %s: %w", in.ID, err)
	}
	return nil
}

// ListInstructions returns every manually authored instruction, sorted by id.
func (ls *LearningStore) ListInstructions() ([]*Instruction, error) {
	rows, err := ls.db.Query(`SELECT id, category, text, created_at FROM instructions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("learning store: list instructions: %w", err)
	}
	defer rows.Close()
	var out []*Instruction
	for rows.Next() {
		var in Instruction
		var createdAt int64
		if err := rows.Scan(&in.ID, &in.Category, &in.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("learning store: scan instruction: %w", err)
		}
		in.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, &in)
	}
	return out, rows.Err()
}

// --- Behavioral niches ---

// InsertNicheIfNotExists creates a niche row if one doesn't already exist
// for this id, mirroring ensure_niche_exists's INSERT OR IGNORE.
func (ls *LearningStore) InsertNicheIfNotExists(n *Niche) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := ls.db.Exec(
		`INSERT OR IGNORE INTO niches (id, task_type, description, created_at) VALUES (?, ?, ?, ?)`,
		n.ID, n.TaskType, n.Description, n.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("learning store: insert niche %s: %w", n.ID, err)
	}
	return nil
}

// ListNiches returns every niche for a task type, sorted by id. An empty
// taskType lists all niches.
func (ls *LearningStore) ListNiches(taskType string) ([]*Niche, error) {
	var rows *sql.Rows
	var err error
	if taskType == "" {
		rows, err = ls.db.Query(`SELECT id, task_type, description, created_at FROM niches ORDER BY id`)
	} else {
		rows, err = ls.db.Query(`SELECT id, task_type, description, created_at FROM niches WHERE task_type = ? ORDER BY id`, taskType)
	}
	if err != nil {
		return nil, fmt.Errorf("learning store: list niches: %w", err)
	}
	defer rows.Close()
	var out []*Niche
	for rows.Next() {
		var n Niche
		var createdAt int64
		if err := rows.Scan(&n.ID, &n.TaskType, &n.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("learning store: scan niche: %w", err)
		}
		n.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, &n)
	}
	return out, rows.Err()
}

// UpsertNicheSolution records (or updates) a solution's membership and
// score within a niche.
func (ls *LearningStore) UpsertNicheSolution(ns *NicheSolution) error {
	if ns.CreatedAt.IsZero() {
		ns.CreatedAt = time.Now()
	}
	_, err := ls.db.Exec(
		`INSERT INTO niche_solutions (niche_id, solution_id, performance, readability, maintainability, score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(niche_id, solution_id) DO UPDATE SET performance=excluded.performance,
		   readability=excluded.readability, maintainability=excluded.maintainability,
		   score=excluded.score, created_at=excluded.created_at`,
		ns.NicheID, ns.SolutionID, ns.Vector.Performance, ns.Vector.Readability, ns.Vector.Maintainability,
		ns.Score, ns.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("learning store: upsert niche solution %s/%s: %w", ns.NicheID, ns.SolutionID, err)
	}
	return nil
}

// BestNicheSolution returns the highest-scoring solution in a niche.
// Returns (nil, nil) if the niche has no solutions.
func (ls *LearningStore) BestNicheSolution(nicheID string) (*BestSolution, error) {
	row := ls.db.QueryRow(
		`SELECT solution_id, performance, readability, maintainability, score
		 FROM niche_solutions WHERE niche_id = ? ORDER BY score DESC LIMIT 1`, nicheID)
	var b BestSolution
	err := row.Scan(&b.SolutionID, &b.Vector.Performance, &b.Vector.Readability, &b.Vector.Maintainability, &b.Score)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("learning store: best niche solution %s: %w", nicheID, err)
	}
	return &b, nil
}
