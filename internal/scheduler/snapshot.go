package scheduler

import (
	"sync"

	"github.com/me/gotr/internal/events"
	"github.com/me/gotr/pkg/model"
)

// snapshot is the loop's externally readable view. The registry itself is
// single-goroutine state; the loop copies it out here at the end of every
// tick so the status server can read without racing the loop.
type snapshot struct {
	mu     sync.RWMutex
	units  []model.TestUnit
	counts events.Counts
}

// updateSnapshot copies current unit state into the snapshot. Called from the
// loop goroutine only.
func (l *Loop) updateSnapshot() {
	all := l.registry.All()
	units := make([]model.TestUnit, len(all))
	for i, u := range all {
		units[i] = *u
	}
	counts := l.counts()

	l.snap.mu.Lock()
	l.snap.units = units
	l.snap.counts = counts
	l.snap.mu.Unlock()
}

// Snapshot returns a copy of all units (insertion order) plus occupancy
// counts as of the end of the last tick. Safe for concurrent use.
func (l *Loop) Snapshot() ([]model.TestUnit, events.Counts) {
	l.snap.mu.RLock()
	defer l.snap.mu.RUnlock()

	units := make([]model.TestUnit, len(l.snap.units))
	copy(units, l.snap.units)
	return units, l.snap.counts
}
