// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists research run records in a local SQLite database
// with full-text search over queries and findings.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/debrief-engine/pkg/types"
)

const dbFile = "history.db"

// Run kinds.
const (
	KindTopic      = "topic"
	KindCrossTopic = "cross-topic"
)

// Terminal run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusTimeout   = "timeout"
)

// Run is one recorded research run.
type Run struct {
	ID            string        `json:"id" yaml:"id"`
	Topic         string        `json:"topic,omitempty" yaml:"topic,omitempty"`
	Kind          string        `json:"kind" yaml:"kind"`
	InteractionID string        `json:"interaction_id,omitempty" yaml:"interaction_id,omitempty"`
	Status        string        `json:"status" yaml:"status"`
	Query         string        `json:"query" yaml:"query"`
	Findings      string        `json:"findings,omitempty" yaml:"findings,omitempty"`
	Confidence    int           `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Priority      int           `json:"priority,omitempty" yaml:"priority,omitempty"`
	Sources       []string      `json:"sources,omitempty" yaml:"sources,omitempty"`
	StartedAt     time.Time     `json:"started_at" yaml:"started_at"`
	Duration      time.Duration `json:"duration" yaml:"duration"`
	Error         string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Store manages the research run history SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates the history database at cfg.Dir/history.db,
// creating the schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		dir:        cfg.Dir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			topic TEXT,
			kind TEXT NOT NULL,
			interaction_id TEXT,
			status TEXT NOT NULL,
			query TEXT NOT NULL,
			findings TEXT,
			confidence INTEGER,
			priority INTEGER,
			sources TEXT,
			started_at TEXT NOT NULL,
			duration_ms INTEGER,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_topic ON runs(topic)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='runs_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE runs_fts USING fts5(query, findings, content=runs, content_rowid=rowid)`,
			`CREATE TRIGGER runs_ai AFTER INSERT ON runs BEGIN
				INSERT INTO runs_fts(rowid, query, findings) VALUES (new.rowid, new.query, new.findings);
			END`,
			`CREATE TRIGGER runs_ad AFTER DELETE ON runs BEGIN
				INSERT INTO runs_fts(runs_fts, rowid, query, findings) VALUES('delete', old.rowid, old.query, old.findings);
			END`,
			`CREATE TRIGGER runs_au AFTER UPDATE ON runs BEGIN
				INSERT INTO runs_fts(runs_fts, rowid, query, findings) VALUES('delete', old.rowid, old.query, old.findings);
				INSERT INTO runs_fts(rowid, query, findings) VALUES (new.rowid, new.query, new.findings);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Record inserts a run. A missing ID gets a fresh UUID; a zero StartedAt is
// stamped with the current time.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	sourcesJSON, _ := json.Marshal(run.Sources)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, topic, kind, interaction_id, status, query, findings,
			confidence, priority, sources, started_at, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Topic, run.Kind, run.InteractionID, run.Status, run.Query,
		run.Findings, run.Confidence, run.Priority, string(sourcesJSON),
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.Duration.Milliseconds(),
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// QueryOptions holds parameters for history queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over queries and findings.
	Query string

	// Topic filters by topic name.
	Topic string

	// Kind filters by run kind.
	Kind string

	// Status filters by terminal status.
	Status string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// List queries the run history. Full-text queries rank by relevance;
// filter-only queries return newest first.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]Run, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT r.id, r.topic, r.kind, r.interaction_id, r.status, r.query,
				r.findings, r.confidence, r.priority, r.sources, r.started_at,
				r.duration_ms, r.error
			FROM runs_fts
			JOIN runs r ON r.rowid = runs_fts.rowid
			WHERE runs_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT r.id, r.topic, r.kind, r.interaction_id, r.status, r.query,
				r.findings, r.confidence, r.priority, r.sources, r.started_at,
				r.duration_ms, r.error
			FROM runs r
			WHERE 1=1`)
	}

	if opts.Topic != "" {
		qb.WriteString(` AND r.topic = ?`)
		args = append(args, opts.Topic)
	}

	if opts.Kind != "" {
		qb.WriteString(` AND r.kind = ?`)
		args = append(args, opts.Kind)
	}

	if opts.Status != "" {
		qb.WriteString(` AND r.status = ?`)
		args = append(args, opts.Status)
	}

	if useFTS {
		qb.WriteString(` ORDER BY runs_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY r.started_at DESC`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Get returns a single run by ID.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT r.id, r.topic, r.kind, r.interaction_id, r.status, r.query,
			r.findings, r.confidence, r.priority, r.sources, r.started_at,
			r.duration_ms, r.error
		FROM runs r
		WHERE r.id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("run %s not found", id)
	}
	return run, err
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run         Run
		topic       sql.NullString
		interaction sql.NullString
		findings    sql.NullString
		sourcesJSON sql.NullString
		startedAt   string
		durationMS  sql.NullInt64
		errText     sql.NullString
	)

	if err := sc.Scan(
		&run.ID, &topic, &run.Kind, &interaction, &run.Status, &run.Query,
		&findings, &run.Confidence, &run.Priority, &sourcesJSON, &startedAt,
		&durationMS, &errText,
	); err != nil {
		if err == sql.ErrNoRows {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}

	run.Topic = topic.String
	run.InteractionID = interaction.String
	run.Findings = findings.String
	run.Error = errText.String
	if sourcesJSON.Valid {
		json.Unmarshal([]byte(sourcesJSON.String), &run.Sources)
	}
	if ts, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
		run.StartedAt = ts
	}
	if durationMS.Valid {
		run.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}

	return run, nil
}
