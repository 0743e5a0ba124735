package chat

import (
	"context"
	"sync"

	"socket-chat/internal/logging"
)

// PublicFeed carries public room frames to every connection. The default
// feed writes straight to the local transport; RedisRelay spreads them
// across server instances.
type PublicFeed interface {
	Publish(ctx context.Context, frame []byte)
}

type localFeed struct {
	transport *Transport
}

func (f localFeed) Publish(ctx context.Context, frame []byte) {
	f.transport.DeliverFrame(ctx, Everyone(), frame)
}

// Hub drives the per-connection session lifecycle and routes messages.
//
// Every inbound event is processed under mu, from registry lookup through
// enqueueing on the recipients' send buffers, so messages of one
// conversation reach each recipient in the order they were appended.
// Nothing under mu blocks: registries are in memory and Enqueue never waits.
type Hub struct {
	mu        sync.Mutex
	transport *Transport
	registry  *Registry
	convs     *Conversations
	router    *Router
	feed      PublicFeed
	log       logging.Logger
	strict    bool
}

type Option func(*Hub)

// WithPublicFeed replaces the in-process public room fan-out.
func WithPublicFeed(f PublicFeed) Option {
	return func(h *Hub) { h.feed = f }
}

// WithStrictInvariants makes the hub panic when the registry check that
// follows every mutation fails. Meant for development and tests.
func WithStrictInvariants(on bool) Option {
	return func(h *Hub) { h.strict = on }
}

func NewHub(transport *Transport, log logging.Logger, opts ...Option) *Hub {
	registry := NewRegistry()
	convs := NewConversations()
	h := &Hub{
		transport: transport,
		registry:  registry,
		convs:     convs,
		router:    NewRouter(registry, convs),
		feed:      localFeed{transport: transport},
		log:       log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Registry() *Registry           { return h.registry }
func (h *Hub) Conversations() *Conversations { return h.convs }

// Connect registers an open, not yet joined connection. No events are emitted.
func (h *Hub) Connect(c Conn) {
	h.transport.Add(c)
}

// Handle processes one inbound event from conn.
func (h *Hub) Handle(ctx context.Context, conn ConnID, ev Inbound) {
	if _, ok := ev.(DisconnectEvent); ok {
		h.Disconnect(ctx, conn)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch e := ev.(type) {
	case JoinEvent:
		h.join(ctx, conn, e)
	case StartPrivateChatEvent:
		h.startPrivateChat(ctx, conn, e)
	case SendMessageEvent:
		h.sendMessage(ctx, conn, e)
	case TypingEvent:
		h.typing(ctx, conn, e)
	}
}

// Disconnect closes conn and, if it had joined, tells everyone else. When a
// newer connection already owns the username, only the user list is resent.
// Safe to call more than once and concurrently with other events for conn.
func (h *Hub) Disconnect(ctx context.Context, conn ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.transport.Drop(conn)

	p, ok := h.registry.Remove(conn)
	if !ok {
		return
	}
	h.checkInvariants(ctx)

	h.log.Info(ctx, "user left", "conn", conn, "username", p.Username)
	h.transport.Broadcast(ctx, EventUserList, h.registry.Snapshot())
	if _, taken := h.registry.ByUsername(p.Username); taken {
		return
	}
	h.transport.Broadcast(ctx, EventUserDisconnected, p.Username)
}

func (h *Hub) Stats() Stats {
	return Stats{
		Connections:   h.transport.Len(),
		Users:         h.registry.Len(),
		Conversations: h.convs.Len(),
	}
}

func (h *Hub) join(ctx context.Context, conn ConnID, e JoinEvent) {
	if !h.transport.Has(conn) {
		// Already disconnected; a profile registered now would never be removed.
		return
	}
	p := h.registry.Join(conn, ProfileInput{
		Username:   e.Username,
		Avatar:     e.Avatar,
		ProfilePic: e.ProfilePic,
	})
	h.checkInvariants(ctx)

	h.log.Info(ctx, "user joined", "conn", conn, "username", p.Username)
	h.transport.Broadcast(ctx, EventUserList, h.registry.Snapshot())
	h.transport.Broadcast(ctx, EventUserConnected, p, conn)
}

func (h *Hub) startPrivateChat(ctx context.Context, conn ConnID, e StartPrivateChatEvent) {
	p, ok := h.registry.ByConn(conn)
	if !ok {
		return
	}
	if _, ok := h.registry.ByUsername(e.TargetUsername); !ok {
		h.log.Debug(ctx, "private chat target offline", "conn", conn, "target", e.TargetUsername)
		return
	}

	key := KeyFor(p.Username, e.TargetUsername)
	h.transport.Send(ctx, conn, EventPrivateChatStarted, PrivateChatStarted{
		ChatID:   key,
		Username: e.TargetUsername,
		Messages: h.convs.Ensure(key),
	})
}

func (h *Hub) sendMessage(ctx context.Context, conn ConnID, e SendMessageEvent) {
	p, ok := h.registry.ByConn(conn)
	if !ok {
		return
	}
	kind := ParseKind(e.Type, e.FileURL)

	if e.To != "" {
		m, d := h.router.Private(p, e.To, e.Message, kind, e.FileURL)
		h.transport.Deliver(ctx, d, EventPrivateMessage, m)
		return
	}

	m, _ := h.router.Public(p, e.Message, kind, e.FileURL)
	frame, err := EncodeFrame(EventNewMessage, m)
	if err != nil {
		h.log.Error(ctx, "encode public message failed", "error", err)
		return
	}
	h.feed.Publish(ctx, frame)
}

func (h *Hub) typing(ctx context.Context, conn ConnID, e TypingEvent) {
	p, ok := h.registry.ByConn(conn)
	if !ok {
		return
	}
	d := h.router.Typing(p, e.To)
	h.transport.Deliver(ctx, d, EventUserTyping, UserTyping{Username: p.Username, IsTyping: e.IsTyping})
}

// checkInvariants verifies the registry after a mutation. A violation is
// always logged; only strict hubs panic on it.
func (h *Hub) checkInvariants(ctx context.Context) {
	err := h.registry.Verify()
	if err == nil {
		return
	}
	h.log.Error(ctx, "registry check failed", "error", err)
	if h.strict {
		panic(err)
	}
}
