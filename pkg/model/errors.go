package model

import "fmt"

// ConfigurationError reports a self-contradictory dependency/delay pair on a
// unit. Raised at registration time; setup must not proceed past it.
type ConfigurationError struct {
	UnitID  string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unit %s: invalid configuration: %s", e.UnitID, e.Message)
}

// UnsatisfiableDependencyError reports a unit whose dependency id is not
// present in the registry. Not fatal: the unit is excluded and the run
// proceeds without it.
type UnsatisfiableDependencyError struct {
	UnitID    string
	DependsOn string
}

func (e *UnsatisfiableDependencyError) Error() string {
	return fmt.Sprintf("unit %s: depends on unknown unit %s", e.UnitID, e.DependsOn)
}

// LaunchError reports that a unit's external process could not be spawned.
// Non-fatal to the loop; the unit is finished with LaunchFailed set.
type LaunchError struct {
	UnitID  string
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("unit %s: launch %q: %v", e.UnitID, e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// InvalidTransitionError is returned when a unit status transition is invalid.
type InvalidTransitionError struct {
	UnitID string
	From   UnitStatus
	To     UnitStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("unit %s: invalid status transition %s → %s", e.UnitID, e.From, e.To)
}
