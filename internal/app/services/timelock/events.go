package timelock

import (
	"sync"

	"github.com/R3E-Network/time_vault/internal/app/domain/timelock"
)

// Broadcaster fans emitted notifications out to live subscribers (the
// websocket stream). Slow subscribers drop events rather than block the
// emitting operation.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan timelock.Event]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan timelock.Event]struct{})}
}

// Subscribe registers a listener. The returned cancel function must be called
// when the listener goes away.
func (b *Broadcaster) Subscribe() (<-chan timelock.Event, func()) {
	ch := make(chan timelock.Event, 16)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to all current subscribers.
func (b *Broadcaster) Publish(ev timelock.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
