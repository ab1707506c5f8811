package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Lifecycle(t *testing.T) {
	hub := NewHub(nil)
	tracker := NewTracker(hub)
	defer tracker.Close()

	t.Run("starts initializing with no session", func(t *testing.T) {
		s, initializing := tracker.Current()
		assert.Nil(t, s)
		assert.True(t, initializing)
	})

	t.Run("first notification of no session settles initialization", func(t *testing.T) {
		hub.Publish(nil)
		s, initializing := tracker.Current()
		assert.Nil(t, s)
		assert.False(t, initializing)
	})

	t.Run("sign-in is observed", func(t *testing.T) {
		hub.Publish(&Session{UID: "u1", EmailVerified: true})
		s, initializing := tracker.Current()
		require.NotNil(t, s)
		assert.Equal(t, "u1", s.UID)
		assert.True(t, s.EmailVerified)
		assert.False(t, initializing)
	})

	t.Run("sign-out is observed", func(t *testing.T) {
		hub.Publish(nil)
		assert.Nil(t, tracker.CurrentSession())
	})
}

func TestTracker_CloseReleasesSubscription(t *testing.T) {
	hub := NewHub(nil)
	tracker := NewTracker(hub)
	assert.Equal(t, 1, hub.Subscribers())

	tracker.Close()
	tracker.Close()
	assert.Equal(t, 0, hub.Subscribers())
}

func TestTracker_InitializedSourceSettlesImmediately(t *testing.T) {
	hub := NewHub(nil)
	hub.Publish(&Session{UID: "u1"})

	tracker := NewTracker(hub)
	defer tracker.Close()

	s, initializing := tracker.Current()
	require.NotNil(t, s)
	assert.False(t, initializing)
}

func TestTracker_SubscribersSeeRecordedState(t *testing.T) {
	hub := NewHub(nil)
	slow := hub.Subscribe(func(*Session) { time.Sleep(time.Millisecond) })
	defer slow()
	tracker := NewTracker(hub)
	defer tracker.Close()

	var seen []string
	unsubscribe := tracker.Subscribe(func(s *Session) {
		if s == nil {
			return
		}
		current := tracker.CurrentSession()
		require.NotNil(t, current)
		seen = append(seen, current.UID)
	})
	defer unsubscribe()

	for _, uid := range []string{"u1", "u2", "u3"} {
		hub.Publish(&Session{UID: uid})
	}
	assert.Equal(t, []string{"u1", "u2", "u3"}, seen)
	assert.Equal(t, 2, hub.Subscribers())
}

func TestGateOverTracker_SessionVisibleOnWake(t *testing.T) {
	for i := 0; i < 50; i++ {
		hub := NewHub(nil)
		slow := hub.Subscribe(func(*Session) { time.Sleep(100 * time.Microsecond) })
		tracker := NewTracker(hub)
		gate := NewGate(tracker, WithTimeout(time.Second))

		done := make(chan *Session, 1)
		go func() {
			_ = gate.AwaitReady(context.Background())
			done <- tracker.CurrentSession()
		}()
		hub.Publish(&Session{UID: "u1"})

		s := <-done
		require.NotNil(t, s, "iteration %d", i)
		assert.Equal(t, "u1", s.UID)

		tracker.Close()
		slow()
	}
}
