package chat

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type DeliveryMode int

const (
	DeliverNone DeliveryMode = iota
	DeliverAll
	DeliverAllExcept
	DeliverTo
)

// Delivery is the set of connections an outgoing event goes to.
type Delivery struct {
	Mode   DeliveryMode
	Except ConnID   // DeliverAllExcept
	To     []ConnID // DeliverTo, no duplicates
}

func Nobody() Delivery              { return Delivery{Mode: DeliverNone} }
func Everyone() Delivery            { return Delivery{Mode: DeliverAll} }
func EveryoneBut(c ConnID) Delivery { return Delivery{Mode: DeliverAllExcept, Except: c} }

func Only(conns ...ConnID) Delivery {
	to := make([]ConnID, 0, len(conns))
	for _, c := range conns {
		if !slices.Contains(to, c) {
			to = append(to, c)
		}
	}
	return Delivery{Mode: DeliverTo, To: to}
}

// Resolve expands d against the currently open connections.
func (d Delivery) Resolve(open []ConnID) []ConnID {
	switch d.Mode {
	case DeliverAll:
		return slices.Clone(open)
	case DeliverAllExcept:
		out := make([]ConnID, 0, len(open))
		for _, c := range open {
			if c != d.Except {
				out = append(out, c)
			}
		}
		return out
	case DeliverTo:
		return slices.Clone(d.To)
	default:
		return nil
	}
}

// Router turns inbound intents into messages and decides who gets them.
type Router struct {
	identities *Registry
	convs      *Conversations
	newID      func() string
	now        func() time.Time

	mu         sync.Mutex
	lastPublic time.Time
}

func NewRouter(identities *Registry, convs *Conversations) *Router {
	return &Router{
		identities: identities,
		convs:      convs,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

func (r *Router) build(sender UserProfile, body string, kind MessageKind, fileURL string) Message {
	return Message{
		ID:        r.newID(),
		Username:  sender.Username,
		Avatar:    sender.Avatar,
		Body:      body,
		Kind:      kind,
		FileURL:   fileURL,
		Timestamp: r.now().UTC(),
	}
}

// Public builds a room message. It is never stored, but like any log its
// timestamps never go backwards.
func (r *Router) Public(sender UserProfile, body string, kind MessageKind, fileURL string) (Message, Delivery) {
	m := r.build(sender, body, kind, fileURL)

	r.mu.Lock()
	defer r.mu.Unlock()
	if m.Timestamp.Before(r.lastPublic) {
		m.Timestamp = r.lastPublic
	}
	r.lastPublic = m.Timestamp
	return m, Everyone()
}

// Private appends the message to the pair's log. It is delivered to both
// sides only when the target is online; otherwise it just waits in the log.
func (r *Router) Private(sender UserProfile, target, body string, kind MessageKind, fileURL string) (Message, Delivery) {
	key := KeyFor(sender.Username, target)
	m := r.convs.Append(key, r.build(sender, body, kind, fileURL))

	to, ok := r.identities.ByUsername(target)
	if !ok {
		return m, Nobody()
	}
	return m, Only(to, sender.ConnID)
}

// Typing routes a typing signal. An empty target means the public room.
func (r *Router) Typing(sender UserProfile, target string) Delivery {
	if target == "" {
		return EveryoneBut(sender.ConnID)
	}
	to, ok := r.identities.ByUsername(target)
	if !ok {
		return Nobody()
	}
	return Only(to)
}
