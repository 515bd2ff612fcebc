package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/arborflow/taskrecipe/recipe"
)

// MySQLRecorder is a MySQL-backed RunRecorder with a pooled *sql.DB and
// the same single-table schema as SQLiteRecorder.
type MySQLRecorder struct {
	db *sql.DB
}

// NewMySQLRecorder opens a MySQL connection pool using dsn (see
// go-sql-driver/mysql's DSN format) and ensures its schema exists.
func NewMySQLRecorder(dsn string) (*MySQLRecorder, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	r := &MySQLRecorder{db: db}
	if err := r.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *MySQLRecorder) createTables(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS runs (
			run_id     VARCHAR(255) PRIMARY KEY,
			outcome    VARCHAR(16) NOT NULL,
			started_at TIMESTAMP(6) NOT NULL,
			ended_at   TIMESTAMP(6) NOT NULL
		) ENGINE=InnoDB
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("mysql: create runs table: %w", err)
	}
	return nil
}

func (r *MySQLRecorder) SaveRun(ctx context.Context, run Run) error {
	const q = `
		INSERT INTO runs (run_id, outcome, started_at, ended_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			outcome = VALUES(outcome),
			started_at = VALUES(started_at),
			ended_at = VALUES(ended_at)
	`
	_, err := r.db.ExecContext(ctx, q, run.RunID, run.Outcome.String(), run.StartedAt, run.EndedAt)
	if err != nil {
		return fmt.Errorf("mysql: save run: %w", err)
	}
	return nil
}

func (r *MySQLRecorder) LoadRun(ctx context.Context, runID string) (Run, error) {
	const q = `SELECT run_id, outcome, started_at, ended_at FROM runs WHERE run_id = ?`
	row := r.db.QueryRowContext(ctx, q, runID)

	var run Run
	var outcome string
	if err := row.Scan(&run.RunID, &outcome, &run.StartedAt, &run.EndedAt); err != nil {
		if err == sql.ErrNoRows {
			return Run{}, ErrNotFound
		}
		return Run{}, fmt.Errorf("mysql: load run: %w", err)
	}
	parsed, err := recipe.ParseDoneWith(outcome)
	if err != nil {
		return Run{}, fmt.Errorf("mysql: load run: %w", err)
	}
	run.Outcome = parsed
	return run, nil
}

// Close releases the underlying connection pool.
func (r *MySQLRecorder) Close() error {
	return r.db.Close()
}
