package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/arborflow/taskrecipe/recipe"
)

// SQLiteRecorder is a SQLite-backed RunRecorder, persisting to a single
// runs table since there is no step/checkpoint history to keep.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder opens (creating if needed) a SQLite database at path
// and ensures its schema exists. Use ":memory:" for a throwaway database.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: set busy timeout: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRecorder) createTables(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS runs (
			run_id     TEXT PRIMARY KEY,
			outcome    TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			ended_at   TIMESTAMP NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: create runs table: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) SaveRun(ctx context.Context, run Run) error {
	const q = `
		INSERT INTO runs (run_id, outcome, started_at, ended_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			outcome = excluded.outcome,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at
	`
	_, err := r.db.ExecContext(ctx, q, run.RunID, run.Outcome.String(), run.StartedAt, run.EndedAt)
	if err != nil {
		return fmt.Errorf("sqlite: save run: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) LoadRun(ctx context.Context, runID string) (Run, error) {
	const q = `SELECT run_id, outcome, started_at, ended_at FROM runs WHERE run_id = ?`
	row := r.db.QueryRowContext(ctx, q, runID)

	var run Run
	var outcome string
	if err := row.Scan(&run.RunID, &outcome, &run.StartedAt, &run.EndedAt); err != nil {
		if err == sql.ErrNoRows {
			return Run{}, ErrNotFound
		}
		return Run{}, fmt.Errorf("sqlite: load run: %w", err)
	}
	parsed, err := recipe.ParseDoneWith(outcome)
	if err != nil {
		return Run{}, fmt.Errorf("sqlite: load run: %w", err)
	}
	run.Outcome = parsed
	return run, nil
}

// Close releases the underlying database connection.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
