package events

import (
	"sync"

	"casechain/core/types"
)

// Broadcaster delivers committed events to live subscribers. Slow
// subscribers lose events rather than blocking the engine.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]chan *types.Event
	buffer int
}

// NewBroadcaster creates a broadcaster with per-subscriber buffers of the
// given size.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broadcaster{subs: make(map[uint64]chan *types.Event), buffer: buffer}
}

// Emit implements the Emitter interface.
func (b *Broadcaster) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	payload := evt.Event()
	if payload == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Subscribe registers a new listener. The returned cancel function must be
// called to release it.
func (b *Broadcaster) Subscribe() (<-chan *types.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan *types.Event, b.buffer)
	b.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
}

// Subscribers reports the number of live subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
