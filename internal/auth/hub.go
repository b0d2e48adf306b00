package auth

import (
	"sync"

	"medadmin/m/internal/session"
)

// Hub fans session state changes out to the views observing them.
type Hub struct {
	mu   sync.Mutex
	next uint64
	subs map[string]map[uint64]func(session.State)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]func(session.State))}
}

// Subscribe registers fn for changes of sessionID. The returned function
// removes the registration and may be called more than once.
func (h *Hub) Subscribe(sessionID string, fn func(session.State)) func() {
	h.mu.Lock()
	h.next++
	id := h.next
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[uint64]func(session.State))
	}
	h.subs[sessionID][id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[sessionID], id)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
		})
	}
}

func (h *Hub) Publish(sessionID string, state session.State) {
	h.mu.Lock()
	fns := make([]func(session.State), 0, len(h.subs[sessionID]))
	for _, fn := range h.subs[sessionID] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
