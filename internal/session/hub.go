package session

import (
	"log/slog"
	"sync"
)

// Hub fans session changes out to subscribers. Once the provider has
// published its first state, new subscribers immediately receive the current
// session (possibly nil), mirroring how identity SDKs replay auth state.
type Hub struct {
	mu          sync.Mutex
	current     *Session
	initialized bool
	listeners   map[uint64]Listener
	nextID      uint64
	logger      *slog.Logger
}

// NewHub creates a hub that has not yet been initialized. Pass nil logger for default.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		listeners: make(map[uint64]Listener),
		logger:    logger.With("component", "session_hub"),
	}
}

// Publish records s as the current session and notifies every subscriber.
// Listeners run on the caller's goroutine, outside the hub's lock.
func (h *Hub) Publish(s *Session) {
	h.mu.Lock()
	h.current = clone(s)
	h.initialized = true
	snapshot := h.current
	targets := make([]Listener, 0, len(h.listeners))
	for _, fn := range h.listeners {
		targets = append(targets, fn)
	}
	h.mu.Unlock()

	h.logger.Debug("session changed", "signed_in", snapshot != nil, "subscribers", len(targets))
	for _, fn := range targets {
		fn(snapshot)
	}
}

// CurrentSession returns the last published session.
func (h *Hub) CurrentSession() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Initialized reports whether the provider has published at least once.
func (h *Hub) Initialized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialized
}

// Subscribe registers fn. If the hub is initialized, fn is called with the
// current session before Subscribe returns.
func (h *Hub) Subscribe(fn Listener) Unsubscribe {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	replay, current := h.initialized, h.current
	h.mu.Unlock()

	if replay {
		fn(current)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}
