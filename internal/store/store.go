// Package store persists run history. It is write-once, after-the-fact
// record keeping: the scheduler never depends on it.
package store

import (
	"context"

	"github.com/me/gotr/pkg/model"
)

// Store defines the run-history persistence layer.
type Store interface {
	// RecordRun writes a completed run and its unit results atomically.
	RecordRun(ctx context.Context, run *model.Run, results []model.UnitResult) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*model.Run, error)

	// ListUnitResults returns the unit results of one run, by unit id.
	ListUnitResults(ctx context.Context, runID string) ([]*model.UnitResult, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
