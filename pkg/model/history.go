package model

import "time"

// Run is the recorded outcome of one scheduler invocation. History is written
// once, after the loop has terminated; the scheduler itself never reads it.
type Run struct {
	ID             string     `json:"id"`
	TestRoot       string     `json:"test_root"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Units          int        `json:"units"`
	LaunchFailures int        `json:"launch_failures"`
	Excluded       int        `json:"excluded"`
}

// UnitResult is the recorded outcome of one unit within a run.
type UnitResult struct {
	RunID        string        `json:"run_id"`
	UnitID       string        `json:"unit_id"`
	Status       UnitStatus    `json:"status"`
	DependsOn    string        `json:"depends_on,omitempty"`
	Delay        time.Duration `json:"delay"`
	ExitCode     *int          `json:"exit_code,omitempty"`
	LaunchFailed bool          `json:"launch_failed"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
	StdoutBytes  int64         `json:"stdout_bytes"`
	StderrBytes  int64         `json:"stderr_bytes"`
}
