package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_ReplaysOnlyAfterInitialization(t *testing.T) {
	hub := NewHub(nil)

	var calls int
	unsubscribe := hub.Subscribe(func(*Session) { calls++ })
	defer unsubscribe()
	assert.Equal(t, 0, calls, "uninitialized hub must not replay")

	hub.Publish(nil)
	assert.Equal(t, 1, calls)
	assert.True(t, hub.Initialized())

	var replayed *Session
	replayedCalls := 0
	unsubscribe2 := hub.Subscribe(func(s *Session) {
		replayed = s
		replayedCalls++
	})
	defer unsubscribe2()
	assert.Equal(t, 1, replayedCalls, "initialized hub replays the current state")
	assert.Nil(t, replayed)
}

func TestHub_PublishCopiesSession(t *testing.T) {
	hub := NewHub(nil)
	s := &Session{UID: "u1", Email: "a@example.com"}
	hub.Publish(s)

	s.UID = "mutated"
	require.NotNil(t, hub.CurrentSession())
	assert.Equal(t, "u1", hub.CurrentSession().UID)
}

func TestHub_UnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	var calls int
	unsubscribe := hub.Subscribe(func(*Session) { calls++ })
	assert.Equal(t, 1, hub.Subscribers())

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, hub.Subscribers())

	hub.Publish(&Session{UID: "u1"})
	assert.Equal(t, 0, calls)
}
