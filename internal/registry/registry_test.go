package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/me/gotr/internal/logging"
	"github.com/me/gotr/pkg/model"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(logging.Discard())
}

func TestAdd_RejectsInvalidPairs(t *testing.T) {
	tests := []struct {
		name      string
		dependsOn string
		delay     time.Duration
		wantErr   bool
	}{
		{"independent", "", 0, false},
		{"dependency with delay", "a", time.Minute, false},
		{"dependency without delay", "a", 0, true},
		{"delay without dependency", "", 5 * time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRegistry(t)
			u := &model.TestUnit{ID: "u", Status: model.UnitQueued, DependsOn: tt.dependsOn, Delay: tt.delay}
			err := r.Add(u)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Add() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var cfgErr *model.ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Errorf("Add() error type = %T, want *model.ConfigurationError", err)
				}
				if r.Len() != 0 {
					t.Errorf("rejected unit was admitted, Len() = %d", r.Len())
				}
			}
		})
	}
}

func TestAdd_RejectsDuplicateID(t *testing.T) {
	r := newRegistry(t)
	if err := r.Add(model.NewTestUnit("a", "", 0)); err != nil {
		t.Fatalf("Add(a): %v", err)
	}
	err := r.Add(model.NewTestUnit("a", "", 0))
	var cfgErr *model.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Add(duplicate) error = %v, want *model.ConfigurationError", err)
	}
}

func TestByStatus_InsertionOrder(t *testing.T) {
	r := newRegistry(t)
	for _, id := range []string{"c", "a", "b"} {
		if err := r.Add(model.NewTestUnit(id, "", 0)); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}

	got := r.ByStatus(model.UnitQueued)
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("ByStatus returned %d units, want %d", len(got), len(want))
	}
	for i, u := range got {
		if u.ID != want[i] {
			t.Errorf("ByStatus[%d] = %s, want %s", i, u.ID, want[i])
		}
	}

	if units := r.ByStatus(model.UnitRunning); len(units) != 0 {
		t.Errorf("ByStatus(RUNNING) = %d units, want 0", len(units))
	}
}

func TestValidateDependencies_RemovesUnsatisfiable(t *testing.T) {
	r := newRegistry(t)
	if err := r.Add(model.NewTestUnit("a", "", 0)); err != nil {
		t.Fatalf("Add(a): %v", err)
	}
	if err := r.Add(model.NewTestUnit("b", "a", 1)); err != nil {
		t.Fatalf("Add(b): %v", err)
	}
	if err := r.Add(model.NewTestUnit("c", "nonexistent", 1)); err != nil {
		t.Fatalf("Add(c): %v", err)
	}

	removed := r.ValidateDependencies()
	if len(removed) != 1 {
		t.Fatalf("ValidateDependencies removed %d units, want 1", len(removed))
	}
	if removed[0].UnitID != "c" || removed[0].DependsOn != "nonexistent" {
		t.Errorf("removed = %+v", removed[0])
	}
	if r.Get("c") != nil {
		t.Error("unit c still present after pre-flight validation")
	}

	// No admitted unit may reference an id outside the registry afterwards.
	for _, u := range r.All() {
		if u.HasDependency() && r.Get(u.DependsOn) == nil {
			t.Errorf("unit %s still references missing dependency %s", u.ID, u.DependsOn)
		}
	}
}

func TestPromoteIndependent(t *testing.T) {
	r := newRegistry(t)
	if err := r.Add(model.NewTestUnit("a", "", 0)); err != nil {
		t.Fatalf("Add(a): %v", err)
	}
	if err := r.Add(model.NewTestUnit("b", "a", 1)); err != nil {
		t.Fatalf("Add(b): %v", err)
	}

	promoted := r.PromoteIndependent()
	if len(promoted) != 1 || promoted[0].ID != "a" {
		t.Fatalf("PromoteIndependent = %v", promoted)
	}
	if got := r.Get("a").Status; got != model.UnitReady {
		t.Errorf("unit a status = %s, want READY", got)
	}
	if got := r.Get("b").Status; got != model.UnitQueued {
		t.Errorf("unit b status = %s, want QUEUED", got)
	}
}

func TestRemove_IgnoresUnknownID(t *testing.T) {
	r := newRegistry(t)
	r.Remove("missing")
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}
