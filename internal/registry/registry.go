// Package registry holds the in-memory TestUnit collection the scheduler
// operates on. It is pure state: no I/O, no goroutines. A registry is owned
// by exactly one scheduler instance and mutated only from its loop goroutine,
// so no locking is needed.
package registry

import (
	"log/slog"

	"github.com/me/gotr/pkg/model"
)

// Registry is an ordered collection of TestUnits keyed by id.
type Registry struct {
	units  map[string]*model.TestUnit
	order  []string
	logger *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		units:  make(map[string]*model.TestUnit),
		logger: logger.With("component", "registry"),
	}
}

// Add inserts a unit. It fails with *model.ConfigurationError when the
// dependency/delay pair is self-contradictory or the id is already taken.
func (r *Registry) Add(u *model.TestUnit) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if _, exists := r.units[u.ID]; exists {
		return &model.ConfigurationError{UnitID: u.ID, Message: "duplicate unit id"}
	}

	r.units[u.ID] = u
	r.order = append(r.order, u.ID)
	r.logger.Debug("unit added", "unit_id", u.ID, "depends_on", u.DependsOn, "delay", u.Delay)
	return nil
}

// Get returns the unit with the given id, or nil.
func (r *Registry) Get(id string) *model.TestUnit {
	return r.units[id]
}

// Len returns the number of admitted units.
func (r *Registry) Len() int {
	return len(r.order)
}

// All returns every unit in insertion order.
func (r *Registry) All() []*model.TestUnit {
	out := make([]*model.TestUnit, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.units[id])
	}
	return out
}

// ByStatus returns all units currently in the given status, in insertion
// order. Insertion order is not semantically required but keeps scheduling
// deterministic and testable.
func (r *Registry) ByStatus(status model.UnitStatus) []*model.TestUnit {
	var out []*model.TestUnit
	for _, id := range r.order {
		if u := r.units[id]; u.Status == status {
			out = append(out, u)
		}
	}
	return out
}

// Remove deletes a unit unconditionally, regardless of status. Only the
// pre-flight validation pass uses it; nothing is removed once the loop runs.
func (r *Registry) Remove(id string) {
	if _, ok := r.units[id]; !ok {
		return
	}
	delete(r.units, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// ValidateDependencies is the pre-flight pass: every unit whose DependsOn
// names an id that is not in the registry is removed, since its dependency
// can never be satisfied. The removals are returned so the caller can report
// each one; they are warnings, not fatal errors.
func (r *Registry) ValidateDependencies() []*model.UnsatisfiableDependencyError {
	var removed []*model.UnsatisfiableDependencyError
	for _, u := range r.All() {
		if !u.HasDependency() {
			continue
		}
		if _, ok := r.units[u.DependsOn]; !ok {
			r.Remove(u.ID)
			r.logger.Warn("unit removed (unknown dependency)", "unit_id", u.ID, "depends_on", u.DependsOn)
			removed = append(removed, &model.UnsatisfiableDependencyError{
				UnitID:    u.ID,
				DependsOn: u.DependsOn,
			})
		}
	}
	return removed
}

// PromoteIndependent is the initial promotion pass: every unit without a
// dependency moves QUEUED → READY before the first tick. Units with a delay
// stay QUEUED. Returns the promoted units in insertion order.
func (r *Registry) PromoteIndependent() []*model.TestUnit {
	var promoted []*model.TestUnit
	for _, u := range r.All() {
		if u.Status == model.UnitQueued && !u.HasDependency() {
			u.Status = model.UnitReady
			promoted = append(promoted, u)
		}
	}
	return promoted
}
