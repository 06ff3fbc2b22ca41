package config

import (
	"sync"
	"sync/atomic"
)

// Holder publishes the active snapshot. Readers call Load once per unit of
// work and keep using that snapshot; writers replace it whole with Store.
type Holder struct {
	current atomic.Pointer[Snapshot]

	mu     sync.Mutex
	nextID int
	subs   map[int]func(*Snapshot)
}

// NewHolder creates a holder publishing initial, or Default() when nil.
func NewHolder(initial *Snapshot) *Holder {
	if initial == nil {
		initial = Default()
	}
	h := &Holder{subs: make(map[int]func(*Snapshot))}
	h.current.Store(initial)
	return h
}

// Load returns the active snapshot. It must not be modified.
func (h *Holder) Load() *Snapshot {
	return h.current.Load()
}

// Store replaces the active snapshot and notifies subscribers. Subscribers
// run on the caller's goroutine.
func (h *Holder) Store(s *Snapshot) {
	if s == nil {
		return
	}
	h.current.Store(s)

	h.mu.Lock()
	subs := make([]func(*Snapshot), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Subscribe registers fn to be called after each Store. The returned
// function removes the subscription.
func (h *Holder) Subscribe(fn func(*Snapshot)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}
