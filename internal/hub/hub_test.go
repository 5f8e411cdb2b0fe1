package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesOnlyTargetUser(t *testing.T) {
	h := New(nil)
	alice := make(Client, 1)
	bob := make(Client, 1)
	h.Subscribe(1, alice)
	h.Subscribe(2, bob)

	h.Publish(1, Event{Type: "friend.requested", Payload: map[string]int{"from": 2}})

	require.Len(t, alice, 1)
	assert.JSONEq(t, `{"type":"friend.requested","payload":{"from":2}}`, string(<-alice))
	assert.Empty(t, bob)
}

func TestPublishDropsForFullClient(t *testing.T) {
	h := New(nil)
	c := make(Client, 1)
	h.Subscribe(1, c)

	h.Publish(1, Event{Type: "a"})
	h.Publish(1, Event{Type: "b"})

	assert.Len(t, c, 1)
}

func TestUnsubscribeClosesClient(t *testing.T) {
	h := New(nil)
	c := make(Client, 1)
	h.Subscribe(1, c)
	assert.Equal(t, 1, h.Connected(1))

	h.Unsubscribe(1, c)
	_, open := <-c
	assert.False(t, open)
	assert.Equal(t, 0, h.Connected(1))

	// a second unsubscribe must not double close
	assert.NotPanics(t, func() { h.Unsubscribe(1, c) })
	h.Publish(1, Event{Type: "ignored"})
}
