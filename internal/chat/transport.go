package chat

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"socket-chat/internal/logging"
)

// Conn is one live client connection as seen by the core.
type Conn interface {
	ID() ConnID
	// Enqueue hands a frame to the connection without blocking. It reports
	// false when the frame was dropped.
	Enqueue(frame []byte) bool
	// Close stops the connection's writer. Called once, after the
	// connection has been dropped from the transport.
	Close()
}

// Transport owns the set of open connections and delivers frames to them.
// Delivery to one connection never waits on, or fails because of, another.
type Transport struct {
	mu    sync.RWMutex
	conns map[ConnID]Conn
	order []ConnID
	log   logging.Logger
}

func NewTransport(log logging.Logger) *Transport {
	return &Transport{
		conns: make(map[ConnID]Conn),
		log:   log,
	}
}

func (t *Transport) Add(c Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.conns[c.ID()]; !ok {
		t.order = append(t.order, c.ID())
	}
	t.conns[c.ID()] = c
}

// Drop forgets the connection and closes it. Dropping an unknown id is a no-op.
func (t *Transport) Drop(id ConnID) {
	t.mu.Lock()
	c, ok := t.conns[id]
	if ok {
		delete(t.conns, id)
		if i := slices.Index(t.order, id); i >= 0 {
			t.order = slices.Delete(t.order, i, i+1)
		}
	}
	t.mu.Unlock()

	if ok {
		c.Close()
	}
}

func (t *Transport) Has(id ConnID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.conns[id]
	return ok
}

func (t *Transport) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conns)
}

// Open lists the open connections in connect order.
func (t *Transport) Open() []ConnID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.order)
}

func (t *Transport) Send(ctx context.Context, id ConnID, event string, payload any) {
	t.Deliver(ctx, Only(id), event, payload)
}

// Broadcast sends to every open connection, minus except when given.
func (t *Transport) Broadcast(ctx context.Context, event string, payload any, except ...ConnID) {
	d := Everyone()
	if len(except) > 0 {
		d = EveryoneBut(except[0])
	}
	t.Deliver(ctx, d, event, payload)
}

// Deliver encodes the event once and enqueues it on every connection in d.
func (t *Transport) Deliver(ctx context.Context, d Delivery, event string, payload any) {
	if d.Mode == DeliverNone {
		return
	}
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		t.log.Error(ctx, "encode frame failed", "event", event, "error", err)
		return
	}
	t.DeliverFrame(ctx, d, frame)
}

// DeliverFrame enqueues an already encoded frame.
func (t *Transport) DeliverFrame(ctx context.Context, d Delivery, frame []byte) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, id := range d.Resolve(t.order) {
		c, ok := t.conns[id]
		if !ok {
			continue
		}
		if !c.Enqueue(frame) {
			t.log.Warn(ctx, "send buffer full, frame dropped", "conn", id)
		}
	}
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// EncodeFrame renders the wire envelope {"event": ..., "data": ...}.
func EncodeFrame(event string, payload any) ([]byte, error) {
	return json.Marshal(outboundFrame{Event: event, Data: payload})
}
