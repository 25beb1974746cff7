// Package eventbus implements the bounded FIFO queue that fuses the two
// venues' depth streams and the maker venue's private-order stream into a
// single serialized event sequence. It is the program's one serialization
// point: the Supervisor is its sole consumer, and everything downstream of
// it — LadderManager, DepthManager — runs single-threaded relative to each
// other even though the producers run on their own goroutines.
package eventbus

import (
	"sync"

	"ladder-mm/pkg/types"
)

// DefaultCapacity is used when callers don't have a specific tuning need.
const DefaultCapacity = 256

// Bus is a buffered channel of types.QuoteEvent with at-most-once Close
// semantics. A full bus blocks producers, which is the backpressure
// mechanism called for by the design: there is no drop-oldest behavior.
type Bus struct {
	ch        chan types.QuoteEvent
	closeOnce sync.Once
}

// New creates a Bus with the given buffer capacity.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{ch: make(chan types.QuoteEvent, capacity)}
}

// Publish enqueues an event, blocking if the bus is full. It returns false
// if the bus has been closed and the event was dropped.
func (b *Bus) Publish(ev types.QuoteEvent) (ok bool) {
	defer func() {
		// A send on a closed channel panics; Close() happens concurrently
		// with producer goroutines during shutdown, so recovering here
		// turns that race into a clean "not published" result instead of
		// crashing a stream goroutine mid-drain.
		if recover() != nil {
			ok = false
		}
	}()
	b.ch <- ev
	return true
}

// Events exposes the receive side for the Supervisor's single consumer
// loop: `for ev := range bus.Events() { ... }`.
func (b *Bus) Events() <-chan types.QuoteEvent {
	return b.ch
}

// Close closes the underlying channel exactly once, letting the consumer's
// range loop drain remaining buffered events and then exit.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.ch)
	})
}
