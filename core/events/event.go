package events

import (
	"sync"

	"casechain/core/types"
)

// Event represents a structured state change emitted by the engine.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Buffer collects events in memory until the caller drains them. The engine
// uses one buffer per transaction so aborted calls never publish.
type Buffer struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	b.mu.Lock()
	b.events = append(b.events, evt)
	b.mu.Unlock()
}

// Events returns the buffered events in emission order.
func (b *Buffer) Events() []Event {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

// Types lists the buffered event types, mostly useful in tests.
func (b *Buffer) Types() []string {
	evts := b.Events()
	out := make([]string, 0, len(evts))
	for _, evt := range evts {
		out = append(out, evt.EventType())
	}
	return out
}

// Reset drops all buffered events.
func (b *Buffer) Reset() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.events = nil
	b.mu.Unlock()
}

// Multi fans every event out to each non-nil emitter in order.
type Multi []Emitter

// Emit implements the Emitter interface.
func (m Multi) Emit(evt Event) {
	for _, emitter := range m {
		if emitter != nil {
			emitter.Emit(evt)
		}
	}
}

// Stamped is a committed event carrying its sequence number and commit time.
type Stamped struct {
	Inner     Event
	Sequence  uint64
	Timestamp int64
}

// Stamp attaches commit metadata to evt.
func Stamp(evt Event, seq uint64, ts int64) Stamped {
	return Stamped{Inner: evt, Sequence: seq, Timestamp: ts}
}

// EventType implements the Event interface.
func (s Stamped) EventType() string { return s.Inner.EventType() }

// Event implements the Event interface, carrying the commit metadata.
func (s Stamped) Event() *types.Event {
	evt := s.Inner.Event()
	if evt == nil {
		return nil
	}
	evt.Sequence = s.Sequence
	evt.Timestamp = s.Timestamp
	return evt
}
