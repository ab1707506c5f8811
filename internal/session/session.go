// Package session tracks the identity provider's live session.
//
// The provider owns the session; this package only observes it. A Hub is the
// provider-side fan-out of session changes, a Tracker is the application's
// read model over it, and a Gate bounds how long a caller waits for the
// provider's asynchronous bootstrap to produce a session.
package session

// Session is the provider's view of the signed-in user. It is never persisted
// by the application and is re-observed from the provider on every start.
type Session struct {
	UID           string
	Email         string
	EmailVerified bool
	DisplayName   string
	PhotoURL      string
}

// Listener receives session changes. A nil session means signed out.
type Listener func(*Session)

// Unsubscribe releases a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// Source is anything that publishes session changes.
type Source interface {
	CurrentSession() *Session
	Subscribe(fn Listener) Unsubscribe
}

func clone(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
