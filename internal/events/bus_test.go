package events

import (
	"testing"
	"time"
)

func TestBus_PublishDelivers(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	got := make(chan Event, 1)
	bus.Subscribe(func(ev Event) { got <- ev })

	bus.Publish(Event{Type: TypeUnitReady, UnitID: "a"})

	select {
	case ev := <-got:
		if ev.Type != TypeUnitReady || ev.UnitID != "a" {
			t.Errorf("got event %+v", ev)
		}
		if ev.Timestamp.IsZero() {
			t.Error("Timestamp not filled in")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	got := make(chan Event, 10)
	unsub := bus.Subscribe(func(ev Event) { got <- ev })
	unsub()

	bus.Publish(Event{Type: TypeUnitReady, UnitID: "a"})

	select {
	case ev := <-got:
		t.Errorf("received event after unsubscribe: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	bus := NewBus(1)
	defer bus.Close()

	// Subscriber that never drains.
	block := make(chan struct{})
	bus.Subscribe(func(Event) { <-block })
	defer close(block)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(Event{Type: TypeTickSummary})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	a := make(chan Event, 1)
	b := make(chan Event, 1)
	bus.Subscribe(func(ev Event) { a <- ev })
	bus.Subscribe(func(ev Event) { b <- ev })

	bus.Publish(Event{Type: TypeRunCompleted})

	for name, ch := range map[string]chan Event{"a": a, "b": b} {
		select {
		case ev := <-ch:
			if ev.Type != TypeRunCompleted {
				t.Errorf("subscriber %s: got %+v", name, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s: event not delivered", name)
		}
	}
}
