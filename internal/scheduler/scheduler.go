// Package scheduler drives registered test units to completion: it starts
// ready units, polls their processes, and releases dependents as ordering
// constraints become satisfied.
package scheduler

import (
	"context"

	"github.com/me/gotr/internal/events"
	"github.com/me/gotr/pkg/model"
)

// Scheduler evaluates unit readiness, launches processes, and polls them to
// completion.
type Scheduler interface {
	// Start begins the polling loop. Blocks until no ready, queued, or
	// running units remain, or until ctx is cancelled.
	Start(ctx context.Context) error

	// Stop asks the loop to exit after the current tick.
	Stop() error

	// Tick runs a single scheduling iteration. It reports whether the run
	// is complete. Exposed for tests.
	Tick() bool

	// Snapshot returns a copy of all units plus current occupancy counts.
	// Safe to call concurrently with the loop.
	Snapshot() ([]model.TestUnit, events.Counts)
}
