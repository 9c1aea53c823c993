package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcaster_PingsSubscribers(t *testing.T) {
	b := NewBroadcaster()
	a := b.Subscribe()
	c := b.Subscribe()
	assert.Equal(t, 2, b.Len())

	b.Broadcast()
	b.Broadcast() // coalesced, must not block

	assert.Len(t, a, 1)
	assert.Len(t, c, 1)

	b.Unsubscribe(a)
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, b.Len())

	b.Unsubscribe(a) // second call is a no-op
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()

	b.Close()
	_, open := <-ch
	assert.False(t, open)

	b.Unsubscribe(ch)
	b.Broadcast()

	late := b.Subscribe()
	_, open = <-late
	assert.False(t, open, "subscriptions after Close are closed")
}
