package model

import (
	"time"
)

// TestUnit is one schedulable test-case execution with an optional ordering
// constraint against another unit.
type TestUnit struct {
	// ID is the fully-qualified test-case name. Unique within a registry,
	// never reused.
	ID string `json:"id"`

	// Status is the current lifecycle state. Mutated only by the scheduler
	// once the unit has been submitted.
	Status UnitStatus `json:"status"`

	// DependsOn names the unit that must reach FINISHED before this one may
	// start. Empty means no dependency.
	DependsOn string `json:"depends_on,omitempty"`

	// Delay is the minimum wait after the dependency's completion before
	// this unit becomes ready. Zero exactly when DependsOn is empty.
	Delay time.Duration `json:"delay"`

	// FinishedAt is set exactly once, when Status transitions to FINISHED.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// StartedAt is set when the process is launched.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// ExitCode is the process exit code, present once the process was
	// observed exited. Nil for launch failures.
	ExitCode *int `json:"exit_code,omitempty"`

	// LaunchFailed marks a unit whose process could not be spawned. Such a
	// unit is FINISHED immediately so dependents are never stranded.
	LaunchFailed bool `json:"launch_failed,omitempty"`
}

// NewTestUnit creates a QUEUED unit from a parsed dependency declaration.
// delayMinutes is the annotation value; it is converted to a duration here so
// the scheduler only ever works in time.Duration.
func NewTestUnit(id, dependsOn string, delayMinutes int) *TestUnit {
	return &TestUnit{
		ID:        id,
		Status:    UnitQueued,
		DependsOn: dependsOn,
		Delay:     time.Duration(delayMinutes) * time.Minute,
	}
}

// HasDependency returns true if this unit is ordered after another unit.
func (u *TestUnit) HasDependency() bool {
	return u.DependsOn != ""
}

// Validate checks the dependency/delay pairing invariant: a delay needs an
// anchor, and a dependency needs an effective wait.
func (u *TestUnit) Validate() error {
	if u.DependsOn != "" && u.Delay <= 0 {
		return &ConfigurationError{
			UnitID:  u.ID,
			Message: "dependency declared without a delay",
		}
	}
	if u.DependsOn == "" && u.Delay != 0 {
		return &ConfigurationError{
			UnitID:  u.ID,
			Message: "delay declared without a dependency",
		}
	}
	if u.Delay < 0 {
		return &ConfigurationError{
			UnitID:  u.ID,
			Message: "negative delay",
		}
	}
	return nil
}
