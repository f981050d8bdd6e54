// Package store carries the change-notification side of the document
// store: writers announce that a customer's transaction set changed,
// live subscribers get woken up and re-read the store.
package store

import "sync"

// Hub fans out per-customer change notifications. A notification
// carries no payload — subscribers always re-derive their state from
// the store, so coalescing missed notifications is safe.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[int]chan struct{}),
	}
}

// Subscribe registers for change ticks on one customer id. The
// returned channel has capacity one: while a tick is pending, further
// notifications coalesce into it. The cancel func releases the
// registration and must be called on scope exit.
func (h *Hub) Subscribe(customerID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	id := h.next
	h.next++
	if h.subs[customerID] == nil {
		h.subs[customerID] = make(map[int]chan struct{})
	}
	h.subs[customerID][id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if m, ok := h.subs[customerID]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(h.subs, customerID)
			}
		}
	}
	return ch, cancel
}

// Notify wakes every subscriber of the given customer id. Never blocks:
// a subscriber with a tick already pending is skipped.
func (h *Hub) Notify(customerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[customerID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// SubscriberCount reports the number of active subscriptions for a
// customer id (used by tests to verify cancel releases registrations).
func (h *Hub) SubscriberCount(customerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[customerID])
}
