package model

// UnitStatus represents the lifecycle state of a TestUnit.
type UnitStatus string

const (
	// UnitQueued means the unit is waiting on its dependency/delay.
	UnitQueued UnitStatus = "QUEUED"
	// UnitReady means the unit is eligible to start; nothing blocks it.
	UnitReady UnitStatus = "READY"
	// UnitRunning means the external process was started and has not been
	// observed to have exited.
	UnitRunning UnitStatus = "RUNNING"
	// UnitFinished means the process was observed exited (any exit code),
	// or the launch failed. Terminal.
	UnitFinished UnitStatus = "FINISHED"
)

// String returns the string representation of the unit status.
func (s UnitStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the unit is in a final state.
func (s UnitStatus) IsTerminal() bool {
	return s == UnitFinished
}

// ValidUnitTransitions defines the allowed state transitions for TestUnits.
// Units never regress to an earlier state.
var ValidUnitTransitions = map[UnitStatus][]UnitStatus{
	UnitQueued:  {UnitReady},
	UnitReady:   {UnitRunning, UnitFinished},
	UnitRunning: {UnitFinished},
}

// CanTransitionTo returns true if moving from the current status to next is valid.
// Ready may move straight to Finished when the launch itself fails.
func (s UnitStatus) CanTransitionTo(next UnitStatus) bool {
	for _, allowed := range ValidUnitTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
