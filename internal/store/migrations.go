package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for all gotr tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id              TEXT PRIMARY KEY,
		test_root       TEXT NOT NULL,
		started_at      TEXT NOT NULL,
		finished_at     TEXT,
		units           INTEGER NOT NULL DEFAULT 0,
		launch_failures INTEGER NOT NULL DEFAULT 0,
		excluded        INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS unit_results (
		run_id        TEXT NOT NULL REFERENCES runs(id),
		unit_id       TEXT NOT NULL,
		status        TEXT NOT NULL,
		depends_on    TEXT NOT NULL DEFAULT '',
		delay_seconds INTEGER NOT NULL DEFAULT 0,
		exit_code     INTEGER,
		launch_failed INTEGER NOT NULL DEFAULT 0,
		started_at    TEXT,
		finished_at   TEXT,
		stdout_bytes  INTEGER NOT NULL DEFAULT 0,
		stderr_bytes  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, unit_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_unit_results_run_id ON unit_results(run_id)`,
}

// migrate applies the schema statements in order.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
