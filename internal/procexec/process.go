// Package procexec abstracts the external test process behind a small
// capability interface so the scheduler can be tested without spawning real
// commands.
package procexec

// Process is the capability set the scheduler needs from one external test
// execution. Each Process is owned exclusively by one TestUnit; handles are
// never shared.
type Process interface {
	// Start begins execution. It fails with *model.LaunchError when the
	// underlying command cannot be spawned.
	Start() error

	// IsRunning is a non-blocking liveness check. It reports false both
	// before Start and after the process has been observed exited.
	IsRunning() bool

	// ReadOutput returns the stdout bytes produced since the last call,
	// empty if none. It never blocks, and never loses or duplicates bytes
	// across calls.
	ReadOutput() []byte

	// ReadErrorOutput is ReadOutput for stderr.
	ReadErrorOutput() []byte

	// CommandLine returns the command for diagnostic reporting only.
	CommandLine() string
}

// Exiter is implemented by processes that can report their exit code once
// they have terminated. The scheduler records the code when available but
// does not schedule on it: a non-zero exit is still a completed unit.
type Exiter interface {
	// ExitCode returns the process exit code and true once the process has
	// exited; (0, false) while it is still running or was never started.
	ExitCode() (int, bool)
}
