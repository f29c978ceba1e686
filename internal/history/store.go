// Package history records validate and test runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Kind is the type of a recorded run.
type Kind string

const (
	KindValidate Kind = "validate"
	KindTest     Kind = "test"
)

// Status is the outcome of a recorded run.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	StatusError  Status = "error" // Aborted before completion
)

// Run is one recorded run.
type Run struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Tests        int       `json:"tests"`
	Failures     int       `json:"failures"`
	Errors       int       `json:"errors"`
	WalkFailures int       `json:"walk_failures"`
	Status       Status    `json:"status"`
	Suites       []Suite   `json:"suites,omitempty"`
}

// Duration returns the wall-clock time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Suite is one test suite of a recorded test run.
type Suite struct {
	Name     string `json:"name"`
	Tests    int    `json:"tests"`
	Failures int    `json:"failures"`
	Errors   int    `json:"errors"`
	Time     string `json:"time"`
}

// Store wraps the history database.
type Store struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens or creates the history database at path and applies the schema.
// Parent directories are created as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// One writer at a time; runs are recorded sequentially.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &Store{conn: conn, path: path}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	tests INTEGER NOT NULL DEFAULT 0,
	failures INTEGER NOT NULL DEFAULT 0,
	errors INTEGER NOT NULL DEFAULT 0,
	walk_failures INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

CREATE TABLE IF NOT EXISTS suites (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	tests INTEGER NOT NULL,
	failures INTEGER NOT NULL,
	errors INTEGER NOT NULL,
	time TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the path to the database file.
func (s *Store) Path() string {
	return s.path
}

// Record stores a run and its suites.
func (s *Store) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, kind, started_at, finished_at, tests, failures, errors, walk_failures, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.Tests, run.Failures, run.Errors, run.WalkFailures, string(run.Status))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for i, suite := range run.Suites {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO suites (run_id, position, name, tests, failures, errors, time)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, suite.Name, suite.Tests, suite.Failures, suite.Errors, suite.Time)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert suite %s: %w", suite.Name, err)
		}
	}

	return tx.Commit()
}

// Recent returns up to limit runs, newest first, without suites.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, kind, started_at, finished_at, tests, failures, errors, walk_failures, status
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
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

// Get returns a run with its suites. It returns sql.ErrNoRows for unknown ids.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.conn.QueryRowContext(ctx, `
		SELECT id, kind, started_at, finished_at, tests, failures, errors, walk_failures, status
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return Run{}, err
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT name, tests, failures, errors, time
		FROM suites WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return Run{}, fmt.Errorf("query suites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var suite Suite
		if err := rows.Scan(&suite.Name, &suite.Tests, &suite.Failures, &suite.Errors, &suite.Time); err != nil {
			return Run{}, fmt.Errorf("scan suite: %w", err)
		}
		run.Suites = append(run.Suites, suite)
	}
	return run, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run               Run
		kind, status      string
		started, finished string
	)
	err := row.Scan(&run.ID, &kind, &started, &finished,
		&run.Tests, &run.Failures, &run.Errors, &run.WalkFailures, &status)
	if err != nil {
		return Run{}, err
	}
	run.Kind = Kind(kind)
	run.Status = Status(status)
	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return run, nil
}

// timeLayout has a fixed width so stored timestamps sort as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
