package chat

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"socket-chat/internal/logging"
)

type received struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// fakeConn records every frame handed to it.
type fakeConn struct {
	id ConnID

	mu     sync.Mutex
	frames []received
	closed int
	full   bool
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: ConnID(id)} }

func (c *fakeConn) ID() ConnID { return c.id }

func (c *fakeConn) Enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return false
	}
	var r received
	if err := json.Unmarshal(frame, &r); err != nil {
		panic(err)
	}
	c.frames = append(c.frames, r)
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
}

func (c *fakeConn) setFull(full bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full = full
}

func (c *fakeConn) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, f.Event)
	}
	return out
}

func (c *fakeConn) count(event string) int {
	n := 0
	for _, e := range c.events() {
		if e == event {
			n++
		}
	}
	return n
}

// last decodes the data of the most recent frame with the given event.
func (c *fakeConn) last(t *testing.T, event string, v any) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Event == event {
			require.NoError(t, json.Unmarshal(c.frames[i].Data, v))
			return
		}
	}
	t.Fatalf("conn %s never received %q; got %v", c.id, event, c.eventsLocked())
}

// messages decodes every frame with the given event as a Message, in
// arrival order.
func (c *fakeConn) messages(t *testing.T, event string) []Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Message
	for _, f := range c.frames {
		if f.Event != event {
			continue
		}
		var m Message
		require.NoError(t, json.Unmarshal(f.Data, &m))
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) eventsLocked() []string {
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, f.Event)
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

type testHub struct {
	*Hub
	t *testing.T
}

func newTestHub(t *testing.T, opts ...Option) *testHub {
	t.Helper()
	log := logging.Discard()
	opts = append([]Option{WithStrictInvariants(true)}, opts...)
	return &testHub{Hub: NewHub(NewTransport(log), log, opts...), t: t}
}

// connect opens a connection and, when username is non-empty, joins it.
func (h *testHub) connect(id, username string) *fakeConn {
	c := newFakeConn(id)
	h.Connect(c)
	if username != "" {
		h.Handle(h.t.Context(), c.id, JoinEvent{Username: username, Avatar: username + ".png"})
	}
	return c
}
