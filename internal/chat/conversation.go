package chat

import (
	"strconv"
	"sync"
)

// KeyFor derives the conversation key for a pair of usernames. The result
// does not depend on argument order. The smaller name's byte length is
// prefixed so that names containing the separator cannot collide.
func KeyFor(a, b string) ConversationKey {
	if b < a {
		a, b = b, a
	}
	return ConversationKey(strconv.Itoa(len(a)) + ":" + a + "_" + b)
}

// Conversations holds the append-only message log of every private chat.
// Logs live for the lifetime of the process.
type Conversations struct {
	mu   sync.Mutex
	logs map[ConversationKey][]Message
}

func NewConversations() *Conversations {
	return &Conversations{logs: make(map[ConversationKey][]Message)}
}

// Append adds m to the log for key, creating the log if needed, and returns
// the message as stored. Timestamps never go backwards within one log.
func (c *Conversations) Append(key ConversationKey, m Message) Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.logs[key]
	if n := len(log); n > 0 && m.Timestamp.Before(log[n-1].Timestamp) {
		m.Timestamp = log[n-1].Timestamp
	}
	m.ChatID = key
	c.logs[key] = append(log, m)
	return m
}

// Get returns a copy of the log for key. A missing log reads as empty and is
// not created.
func (c *Conversations) Get(key ConversationKey) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneLog(c.logs[key])
}

// Ensure creates the log for key if absent and returns a copy of it.
func (c *Conversations) Ensure(key ConversationKey) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	log, ok := c.logs[key]
	if !ok {
		c.logs[key] = nil
	}
	return cloneLog(log)
}

func (c *Conversations) Has(key ConversationKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.logs[key]
	return ok
}

func (c *Conversations) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.logs)
}

func cloneLog(log []Message) []Message {
	out := make([]Message, len(log))
	copy(out, log)
	return out
}
