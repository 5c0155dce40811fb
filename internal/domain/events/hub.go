package events

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// Hub is an in-process, per-owner broadcast of ledger events. Slow
// subscribers miss events instead of stalling publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Event]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers interest in owner's events. The returned cancel func
// must be called to release the subscription; it closes the channel.
func (h *Hub) Subscribe(owner string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if h.subs[owner] == nil {
		h.subs[owner] = make(map[chan Event]struct{})
	}
	h.subs[owner][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[owner][ch]; !ok {
				return
			}
			delete(h.subs[owner], ch)
			if len(h.subs[owner]) == 0 {
				delete(h.subs, owner)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish implements Publisher.
func (h *Hub) Publish(_ context.Context, e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[e.Owner] {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers returns how many subscriptions owner currently holds.
func (h *Hub) Subscribers(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[owner])
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for owner, set := range h.subs {
		for ch := range set {
			close(ch)
		}
		delete(h.subs, owner)
	}
	h.closed = true
}
