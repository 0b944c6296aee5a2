// Package events carries the scheduler's observable event stream. Progress is
// reported as typed events through a Bus so harnesses and the status server
// subscribe to structure instead of scraping log text; the human-readable
// lines are just one sink (LogSink).
package events

import "time"

// Type identifies the kind of scheduler event.
type Type string

const (
	// TypeUnitDiscovered is published for every test case found on disk.
	TypeUnitDiscovered Type = "unit_discovered"
	// TypeDependencyInvalid is published when a unit is excluded because its
	// dependency id is not in the registry.
	TypeDependencyInvalid Type = "dependency_invalid"
	// TypeUnitReady is published when a unit becomes eligible to start.
	TypeUnitReady Type = "unit_ready"
	// TypeUnitStarted is published when a unit's process is launched.
	TypeUnitStarted Type = "unit_started"
	// TypeUnitFinished is published when a unit's process is observed exited.
	TypeUnitFinished Type = "unit_finished"
	// TypeUnitLaunchFailed is published when a unit's process could not be
	// spawned; the unit is finished with a failure flag.
	TypeUnitLaunchFailed Type = "unit_launch_failed"
	// TypeUnitOutput carries a raw stdout/stderr chunk from a running unit.
	TypeUnitOutput Type = "unit_output"
	// TypeTickSummary carries per-tick progress counts.
	TypeTickSummary Type = "tick_summary"
	// TypeRunCompleted is published once, when no work remains.
	TypeRunCompleted Type = "run_completed"
)

// Counts summarizes registry occupancy at a point in time.
type Counts struct {
	Queued   int `json:"queued"`
	Ready    int `json:"ready"`
	Running  int `json:"running"`
	Finished int `json:"finished"`
}

// Event is one observable scheduler occurrence.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// UnitID names the unit the event concerns; empty for tick summaries
	// and run completion.
	UnitID string `json:"unit_id,omitempty"`

	// Detail is supplementary human-oriented context (command line,
	// dependency id, error text).
	Detail string `json:"detail,omitempty"`

	// Stream is "stdout" or "stderr" for TypeUnitOutput events.
	Stream string `json:"stream,omitempty"`

	// Output is the raw byte chunk for TypeUnitOutput events.
	Output []byte `json:"output,omitempty"`

	// ExitCode is set on TypeUnitFinished for processes that exited.
	ExitCode *int `json:"exit_code,omitempty"`

	// Counts is set on TypeTickSummary and TypeRunCompleted.
	Counts *Counts `json:"counts,omitempty"`
}

// Publisher is the write side of the event stream, consumed by the scheduler
// and the discovery pipeline.
type Publisher interface {
	Publish(Event)
}
