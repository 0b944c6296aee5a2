package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/gotr/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a
// Store. Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// RecordRun writes the run row and all unit results in one transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, run *model.Run, results []model.UnitResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, test_root, started_at, finished_at, units, launch_failures, excluded)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.TestRoot, formatTime(run.StartedAt), formatNullableTime(run.FinishedAt),
		run.Units, run.LaunchFailures, run.Excluded)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for _, res := range results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO unit_results
			 (run_id, unit_id, status, depends_on, delay_seconds, exit_code, launch_failed,
			  started_at, finished_at, stdout_bytes, stderr_bytes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, res.UnitID, res.Status.String(), res.DependsOn, int64(res.Delay/time.Second),
			res.ExitCode, res.LaunchFailed,
			formatNullableTime(res.StartedAt), formatNullableTime(res.FinishedAt),
			res.StdoutBytes, res.StderrBytes)
		if err != nil {
			return fmt.Errorf("insert unit result %s/%s: %w", run.ID, res.UnitID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("run recorded", "run_id", run.ID, "units", len(results))
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, test_root, started_at, finished_at, units, launch_failures, excluded
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		var (
			run        model.Run
			startedAt  string
			finishedAt sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.TestRoot, &startedAt, &finishedAt,
			&run.Units, &run.LaunchFailures, &run.Excluded); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if run.FinishedAt, err = parseNullableTime(finishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// ListUnitResults returns the unit results of one run ordered by unit id.
func (s *SQLiteStore) ListUnitResults(ctx context.Context, runID string) ([]*model.UnitResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, unit_id, status, depends_on, delay_seconds, exit_code, launch_failed,
		        started_at, finished_at, stdout_bytes, stderr_bytes
		 FROM unit_results WHERE run_id = ? ORDER BY unit_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query unit results: %w", err)
	}
	defer rows.Close()

	var results []*model.UnitResult
	for rows.Next() {
		var (
			res          model.UnitResult
			status       string
			delaySeconds int64
			exitCode     sql.NullInt64
			startedAt    sql.NullString
			finishedAt   sql.NullString
		)
		if err := rows.Scan(&res.RunID, &res.UnitID, &status, &res.DependsOn, &delaySeconds,
			&exitCode, &res.LaunchFailed, &startedAt, &finishedAt,
			&res.StdoutBytes, &res.StderrBytes); err != nil {
			return nil, fmt.Errorf("scan unit result: %w", err)
		}
		res.Status = model.UnitStatus(status)
		res.Delay = time.Duration(delaySeconds) * time.Second
		if exitCode.Valid {
			code := int(exitCode.Int64)
			res.ExitCode = &code
		}
		if res.StartedAt, err = parseNullableTime(startedAt); err != nil {
			return nil, err
		}
		if res.FinishedAt, err = parseNullableTime(finishedAt); err != nil {
			return nil, err
		}
		results = append(results, &res)
	}
	return results, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
