package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socket-chat/internal/logging"
)

func TestTransport_BroadcastExcept(t *testing.T) {
	tr := NewTransport(logging.Discard())
	a, b, c := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")
	tr.Add(a)
	tr.Add(b)
	tr.Add(c)

	tr.Broadcast(context.Background(), EventUserTyping, UserTyping{Username: "x"}, "b")

	assert.Equal(t, 1, a.count(EventUserTyping))
	assert.Zero(t, b.count(EventUserTyping))
	assert.Equal(t, 1, c.count(EventUserTyping))
}

func TestTransport_FullBufferOnlyAffectsThatRecipient(t *testing.T) {
	tr := NewTransport(logging.Discard())
	a, b := newFakeConn("a"), newFakeConn("b")
	tr.Add(a)
	tr.Add(b)
	a.setFull(true)

	tr.Broadcast(context.Background(), EventNewMessage, Message{Body: "hi"})

	assert.Zero(t, a.count(EventNewMessage))
	assert.Equal(t, 1, b.count(EventNewMessage))
}

func TestTransport_SendToUnknownIsSwallowed(t *testing.T) {
	tr := NewTransport(logging.Discard())
	a := newFakeConn("a")
	tr.Add(a)

	tr.Send(context.Background(), "gone", EventUserList, []UserProfile{})

	assert.Empty(t, a.events())
}

func TestTransport_DropClosesOnceAndStopsDelivery(t *testing.T) {
	tr := NewTransport(logging.Discard())
	a := newFakeConn("a")
	tr.Add(a)

	tr.Drop("a")
	tr.Drop("a")
	tr.Broadcast(context.Background(), EventUserList, []UserProfile{})

	assert.Equal(t, 1, a.closed)
	assert.Empty(t, a.events())
	assert.False(t, tr.Has("a"))
	assert.Zero(t, tr.Len())
}

func TestTransport_OpenKeepsConnectOrder(t *testing.T) {
	tr := NewTransport(logging.Discard())
	for _, id := range []string{"c", "a", "b"} {
		tr.Add(newFakeConn(id))
	}
	tr.Drop("a")

	require.Equal(t, []ConnID{"c", "b"}, tr.Open())
}

func TestTransport_EncodeFailureIsLoggedNotDelivered(t *testing.T) {
	tr := NewTransport(logging.Discard())
	a := newFakeConn("a")
	tr.Add(a)

	tr.Broadcast(context.Background(), "bad", func() {})

	assert.Empty(t, a.events())
}
