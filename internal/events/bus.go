package events

import (
	"sync"
	"time"
)

// Subscriber is a function that receives events.
type Subscriber func(Event)

// Bus is a non-blocking pub/sub event bus. Events are delivered
// asynchronously via buffered channels; if a subscriber's channel is full the
// event is dropped for that subscriber, so a slow consumer can never stall
// the scheduler loop.
type Bus struct {
	mu         sync.RWMutex
	subs       []chan Event
	bufferSize int
}

// NewBus creates an event bus with the given buffer size per subscriber.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Bus{bufferSize: bufferSize}
}

// Subscribe registers fn to receive all events. fn is called from a dedicated
// goroutine, in publish order for that subscriber. Returns an unsubscribe
// function.
func (b *Bus) Subscribe(fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subs = append(b.subs, ch)

	go func() {
		for ev := range ch {
			fn(ev)
		}
	}()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub == ch {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				close(ch)
				break
			}
		}
	}
}

// Publish delivers ev to every subscriber without blocking. A zero Timestamp
// is filled in with the current time.
func (b *Bus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Channel full: drop rather than stall the publisher.
		}
	}
}

// Close closes all subscriber channels and clears subscriptions.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
