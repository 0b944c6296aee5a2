package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/me/gotr/internal/events"
	"github.com/me/gotr/internal/procexec"
	"github.com/me/gotr/internal/registry"
	"github.com/me/gotr/pkg/model"
)

// Config holds scheduler configuration.
type Config struct {
	// TickInterval bounds busy-polling between iterations.
	TickInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{TickInterval: time.Second}
}

// Loop implements the Scheduler interface with a single-goroutine polling
// loop. The registry and all unit state are mutated only from that goroutine;
// external observers use Snapshot.
type Loop struct {
	registry *registry.Registry
	procs    map[string]procexec.Process
	config   Config
	events   events.Publisher
	logger   *slog.Logger
	now      func() time.Time
	stopCh   chan struct{}

	snap snapshot
}

// Option configures optional Loop dependencies.
type Option func(*Loop)

// WithClock overrides the loop's time source. Used by tests to exercise
// delay gating without waiting wall-clock minutes.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		l.now = now
	}
}

// NewLoop creates a scheduler loop over an empty registry.
func NewLoop(cfg Config, pub events.Publisher, logger *slog.Logger, opts ...Option) *Loop {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	l := &Loop{
		registry: registry.New(logger),
		procs:    make(map[string]procexec.Process),
		config:   cfg,
		events:   pub,
		logger:   logger.With("component", "scheduler"),
		now:      func() time.Time { return time.Now().UTC() },
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register admits a unit and the process handle that will execute it. Must be
// called before Prepare; nothing may be registered once the loop runs.
func (l *Loop) Register(u *model.TestUnit, p procexec.Process) error {
	if err := l.registry.Add(u); err != nil {
		return err
	}
	l.procs[u.ID] = p
	return nil
}

// Prepare runs the pre-flight dependency validation pass and the initial
// promotion pass. Units whose dependency id is unknown are removed and
// reported; every remaining unit without a dependency becomes READY. The
// removals are returned as warnings.
func (l *Loop) Prepare() []*model.UnsatisfiableDependencyError {
	removed := l.registry.ValidateDependencies()
	for _, rm := range removed {
		delete(l.procs, rm.UnitID)
		l.events.Publish(events.Event{
			Type:   events.TypeDependencyInvalid,
			UnitID: rm.UnitID,
			Detail: rm.DependsOn,
		})
	}

	for _, u := range l.registry.PromoteIndependent() {
		l.events.Publish(events.Event{Type: events.TypeUnitReady, UnitID: u.ID})
	}

	l.updateSnapshot()
	return removed
}

// Start runs ticks until no ready, queued, or running units remain. It
// returns nil on normal completion, ctx.Err() when cancelled mid-run.
func (l *Loop) Start(ctx context.Context) error {
	l.logger.Info("scheduler started", "tick_interval", l.config.TickInterval, "units", l.registry.Len())
	ticker := time.NewTicker(l.config.TickInterval)
	defer ticker.Stop()

	for {
		if done := l.Tick(); done {
			return nil
		}
		select {
		case <-ctx.Done():
			l.logger.Info("scheduler stopping (context cancelled)")
			return ctx.Err()
		case <-l.stopCh:
			l.logger.Info("scheduler stopping (stop called)")
			return nil
		case <-ticker.C:
		}
	}
}

// Stop asks the loop to exit after its current tick.
func (l *Loop) Stop() error {
	close(l.stopCh)
	return nil
}

// Tick runs one scheduling iteration:
//
//  1. Launch READY units and poll RUNNING ones, draining output and
//     recording completions.
//  2. Promote QUEUED units whose dependency finished long enough ago.
//  3. Publish a progress summary.
//  4. Check for termination: zero QUEUED, zero READY and zero RUNNING.
//
// Promotions always lag completions by at least one tick: phase 2 sees only
// FINISHED transitions recorded by phase 1 of this or earlier ticks, and a
// unit promoted in phase 2 is not launched until phase 1 of the next tick.
func (l *Loop) Tick() bool {
	l.serviceActive()
	l.promoteQueued()

	counts := l.counts()
	l.events.Publish(events.Event{Type: events.TypeTickSummary, Counts: &counts})
	l.updateSnapshot()

	if counts.Queued == 0 && counts.Ready == 0 && counts.Running == 0 {
		l.events.Publish(events.Event{Type: events.TypeRunCompleted, Counts: &counts})
		l.logger.Info("no tasks left", "finished", counts.Finished)
		return true
	}
	return false
}

// serviceActive launches READY units and polls RUNNING ones. A unit launched
// this tick is not polled until the next tick.
func (l *Loop) serviceActive() {
	launched := make(map[string]bool)
	for _, u := range l.registry.ByStatus(model.UnitReady) {
		l.launch(u)
		if u.Status == model.UnitRunning {
			launched[u.ID] = true
		}
	}
	for _, u := range l.registry.ByStatus(model.UnitRunning) {
		if launched[u.ID] {
			continue
		}
		l.poll(u)
	}
}

// launch starts a READY unit's process. Launch failures finish the unit
// immediately with a failure flag so dependents are never stranded waiting on
// a dependency that can no longer complete.
func (l *Loop) launch(u *model.TestUnit) {
	proc := l.procs[u.ID]

	if err := proc.Start(); err != nil {
		now := l.now()
		u.Status = model.UnitFinished
		u.LaunchFailed = true
		u.FinishedAt = &now
		l.logger.Error("launch failed", "unit_id", u.ID, "command", proc.CommandLine(), "error", err)
		l.events.Publish(events.Event{
			Type:   events.TypeUnitLaunchFailed,
			UnitID: u.ID,
			Detail: err.Error(),
		})
		return
	}

	now := l.now()
	u.Status = model.UnitRunning
	u.StartedAt = &now
	l.logger.Debug("unit launched", "unit_id", u.ID, "command", proc.CommandLine())
	l.events.Publish(events.Event{
		Type:   events.TypeUnitStarted,
		UnitID: u.ID,
		Detail: proc.CommandLine(),
	})
}

// poll drains a RUNNING unit's output and records its completion once the
// process is observed exited.
func (l *Loop) poll(u *model.TestUnit) {
	proc := l.procs[u.ID]

	l.forwardOutput(u.ID, proc)

	if proc.IsRunning() {
		return
	}

	// Drain once more: bytes may have arrived between the read above and
	// the exit observation.
	l.forwardOutput(u.ID, proc)

	now := l.now()
	u.Status = model.UnitFinished
	u.FinishedAt = &now
	if exiter, ok := proc.(procexec.Exiter); ok {
		if code, exited := exiter.ExitCode(); exited {
			u.ExitCode = &code
		}
	}

	if u.ExitCode != nil {
		l.logger.Info("unit finished", "unit_id", u.ID, "exit_code", *u.ExitCode)
	} else {
		l.logger.Info("unit finished", "unit_id", u.ID)
	}
	l.events.Publish(events.Event{
		Type:     events.TypeUnitFinished,
		UnitID:   u.ID,
		ExitCode: u.ExitCode,
	})
}

// forwardOutput publishes any newly available stdout/stderr chunks.
func (l *Loop) forwardOutput(unitID string, proc procexec.Process) {
	if out := proc.ReadOutput(); len(out) > 0 {
		l.events.Publish(events.Event{
			Type:   events.TypeUnitOutput,
			UnitID: unitID,
			Stream: "stdout",
			Output: out,
		})
	}
	if errOut := proc.ReadErrorOutput(); len(errOut) > 0 {
		l.events.Publish(events.Event{
			Type:   events.TypeUnitOutput,
			UnitID: unitID,
			Stream: "stderr",
			Output: errOut,
		})
	}
}

// promoteQueued moves QUEUED units to READY once their dependency is
// FINISHED and the configured delay has elapsed since its completion.
func (l *Loop) promoteQueued() {
	now := l.now()
	for _, u := range l.registry.ByStatus(model.UnitQueued) {
		dep := l.registry.Get(u.DependsOn)
		if dep == nil || dep.Status != model.UnitFinished || dep.FinishedAt == nil {
			continue
		}
		if now.Sub(*dep.FinishedAt) < u.Delay {
			continue
		}
		u.Status = model.UnitReady
		l.logger.Debug("unit promoted", "unit_id", u.ID, "depends_on", u.DependsOn, "delay", u.Delay)
		l.events.Publish(events.Event{Type: events.TypeUnitReady, UnitID: u.ID})
	}
}

func (l *Loop) counts() events.Counts {
	return events.Counts{
		Queued:   len(l.registry.ByStatus(model.UnitQueued)),
		Ready:    len(l.registry.ByStatus(model.UnitReady)),
		Running:  len(l.registry.ByStatus(model.UnitRunning)),
		Finished: len(l.registry.ByStatus(model.UnitFinished)),
	}
}
