package session

import "sync"

// Tracker exposes the current session and whether the provider is still
// initializing. It holds exactly one subscription on the provider for its
// lifetime and re-publishes each change to its own subscribers after its
// state is updated, so a listener woken by the tracker always finds the
// new session in CurrentSession.
type Tracker struct {
	source Source
	fanout *Hub

	mu           sync.RWMutex
	current      *Session
	initializing bool

	unsubscribe Unsubscribe
	closeOnce   sync.Once
}

// NewTracker starts observing source. The tracker reports "initializing, no
// session" until source delivers its first notification.
func NewTracker(source Source) *Tracker {
	t := &Tracker{source: source, fanout: NewHub(nil), initializing: true}
	t.unsubscribe = source.Subscribe(t.observe)
	return t
}

func (t *Tracker) observe(s *Session) {
	t.mu.Lock()
	t.current = s
	t.initializing = false
	t.mu.Unlock()
	t.fanout.Publish(s)
}

// Current returns the observed session and the initializing flag. A nil
// session with initializing=false is a settled signed-out state.
func (t *Tracker) Current() (*Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current, t.initializing
}

// CurrentSession implements Source.
func (t *Tracker) CurrentSession() *Session {
	s, _ := t.Current()
	return s
}

// Subscribe implements Source. Listeners are notified after the tracker
// has recorded the change.
func (t *Tracker) Subscribe(fn Listener) Unsubscribe {
	return t.fanout.Subscribe(fn)
}

// Close releases the tracker's subscription.
func (t *Tracker) Close() {
	t.closeOnce.Do(t.unsubscribe)
}
