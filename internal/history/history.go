// Package history keeps a local SQLite ledger of updater runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// MemoryPath opens a private in-memory ledger.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	job         TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	outcome     TEXT NOT NULL,
	candidate   TEXT NOT NULL DEFAULT '',
	pass        TEXT NOT NULL DEFAULT '',
	items       INTEGER NOT NULL DEFAULT 0,
	attempts    INTEGER NOT NULL DEFAULT 0,
	changed     INTEGER NOT NULL DEFAULT 0,
	hash        TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_job_started ON runs(job, started_at DESC);
`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// ErrMissingRunID is returned when a run has no identifier.
var ErrMissingRunID = errors.New("run id is required")

// Run is one ledger row.
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	ID         string
	Job        string
	Outcome    string
	Candidate  string
	Pass       string
	Hash       string
	Error      string
	Items      int
	Attempts   int
	Changed    bool
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store is the run ledger.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the ledger at path.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("history: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}

	if path == MemoryPath {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()

			return nil, fmt.Errorf("history: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("history: exec schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts a run.
func (s *Store) Record(ctx context.Context, r Run) error {
	if r.ID == "" {
		return ErrMissingRunID
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, job, started_at, finished_at, outcome, candidate, pass, items, attempts, changed, hash, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Job, r.StartedAt.UnixNano(), r.FinishedAt.UnixNano(), r.Outcome, r.Candidate, r.Pass,
		r.Items, r.Attempts, boolToInt(r.Changed), r.Hash, r.Error,
	)
	if err != nil {
		return fmt.Errorf("history: insert run %s: %w", r.ID, err)
	}

	return nil
}

// Recent returns up to limit runs for job, newest first. An empty job
// matches every job.
func (s *Store) Recent(ctx context.Context, job string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job, started_at, finished_at, outcome, candidate, pass, items, attempts, changed, hash, error
		FROM runs
		WHERE ? = '' OR job = ?
		ORDER BY started_at DESC
		LIMIT ?`, job, job, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		var (
			r                 Run
			started, finished int64
			changed           int
		)

		if err := rows.Scan(&r.ID, &r.Job, &started, &finished, &r.Outcome, &r.Candidate, &r.Pass,
			&r.Items, &r.Attempts, &changed, &r.Hash, &r.Error); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}

		r.StartedAt = time.Unix(0, started).UTC()
		r.FinishedAt = time.Unix(0, finished).UTC()
		r.Changed = changed != 0
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate runs: %w", err)
	}

	return runs, nil
}

// LastChange returns the newest run of job that changed the item list,
// or nil when there is none.
func (s *Store) LastChange(ctx context.Context, job string) (*Run, error) {
	var (
		r                 Run
		started, finished int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, job, started_at, finished_at, outcome, candidate, pass, items, attempts, hash, error
		FROM runs
		WHERE job = ? AND changed = 1
		ORDER BY started_at DESC
		LIMIT 1`, job).Scan(&r.ID, &r.Job, &started, &finished, &r.Outcome, &r.Candidate, &r.Pass,
		&r.Items, &r.Attempts, &r.Hash, &r.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("history: last change: %w", err)
	}

	r.StartedAt = time.Unix(0, started).UTC()
	r.FinishedAt = time.Unix(0, finished).UTC()
	r.Changed = true

	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}
