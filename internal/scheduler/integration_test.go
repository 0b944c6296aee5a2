package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/me/gotr/internal/events"
	"github.com/me/gotr/internal/logging"
	"github.com/me/gotr/internal/procexec"
	"github.com/me/gotr/pkg/model"
)

// TestLoop_RealProcesses drives the loop end-to-end with real /bin/sh
// processes and the real event bus: an independent unit plus a dependent one
// with a sub-second delay.
func TestLoop_RealProcesses(t *testing.T) {
	bus := events.NewBus(256)
	defer bus.Close()

	var mu sync.Mutex
	var seen []events.Event
	bus.Subscribe(func(ev events.Event) {
		mu.Lock()
		seen = append(seen, ev)
		mu.Unlock()
	})

	l := NewLoop(Config{TickInterval: 20 * time.Millisecond}, bus, logging.Discard())

	pa := procexec.NewOSProcess("a", "/bin/sh", []string{"-c", "echo from-a"}, "", nil)
	if err := l.Register(model.NewTestUnit("a", "", 0), pa); err != nil {
		t.Fatalf("Register(a): %v", err)
	}
	pb := procexec.NewOSProcess("b", "/bin/sh", []string{"-c", "true"}, "", nil)
	b := &model.TestUnit{ID: "b", Status: model.UnitQueued, DependsOn: "a", Delay: 100 * time.Millisecond}
	if err := l.Register(b, pb); err != nil {
		t.Fatalf("Register(b): %v", err)
	}

	l.Prepare()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	units, counts := l.Snapshot()
	if counts.Finished != 2 || counts.Queued != 0 || counts.Ready != 0 || counts.Running != 0 {
		t.Fatalf("final counts = %+v, want 2 finished and nothing else", counts)
	}

	var a, bFinal model.TestUnit
	for _, u := range units {
		switch u.ID {
		case "a":
			a = u
		case "b":
			bFinal = u
		}
	}
	if a.ExitCode == nil || *a.ExitCode != 0 {
		t.Errorf("a exit code = %v, want 0", a.ExitCode)
	}
	if bFinal.StartedAt == nil || a.FinishedAt == nil {
		t.Fatal("missing timestamps")
	}
	if gap := bFinal.StartedAt.Sub(*a.FinishedAt); gap < 100*time.Millisecond {
		t.Errorf("b started %v after a finished, want >= 100ms delay", gap)
	}

	// The event stream must contain a's forwarded output and the final
	// completion marker. Bus delivery is async: give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		var sawOutput, sawCompleted bool
		for _, ev := range seen {
			if ev.Type == events.TypeUnitOutput && ev.UnitID == "a" && ev.Stream == "stdout" {
				sawOutput = true
			}
			if ev.Type == events.TypeRunCompleted {
				sawCompleted = true
			}
		}
		mu.Unlock()
		if sawOutput && sawCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("missing unit_output or run_completed event on the bus")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestLoop_StartCancel verifies the loop exits with the context error when
// cancelled while a unit is still mid-flight.
func TestLoop_StartCancel(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	l := NewLoop(Config{TickInterval: 20 * time.Millisecond}, bus, logging.Discard())
	p := procexec.NewOSProcess("slow", "/bin/sh", []string{"-c", "sleep 5"}, "", nil)
	if err := l.Register(model.NewTestUnit("slow", "", 0), p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	l.Prepare()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := l.Start(ctx)
	if err != context.DeadlineExceeded {
		t.Fatalf("Start error = %v, want context.DeadlineExceeded", err)
	}
}
