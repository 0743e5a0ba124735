package chat

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (*Router, *Registry, *Conversations) {
	reg := NewRegistry()
	convs := NewConversations()
	r := NewRouter(reg, convs)
	n := 0
	r.newID = func() string { n++; return "m" + strconv.Itoa(n) }
	r.now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	return r, reg, convs
}

func TestRouter_PublicIsBroadcastAndNotStored(t *testing.T) {
	r, reg, convs := newTestRouter()
	alice := reg.Join("h1", ProfileInput{Username: "alice", Avatar: "a.png"})
	reg.Join("h2", ProfileInput{Username: "bob"})

	m, d := r.Public(alice, "hi", KindText, "")

	assert.Equal(t, DeliverAll, d.Mode)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "alice", m.Username)
	assert.Equal(t, "a.png", m.Avatar)
	assert.Equal(t, "hi", m.Body)
	assert.Empty(t, m.ChatID)
	assert.Zero(t, convs.Len(), "public messages are never stored")
}

func TestRouter_PublicTimestampsNeverGoBackwards(t *testing.T) {
	r, reg, _ := newTestRouter()
	alice := reg.Join("h1", ProfileInput{Username: "alice"})

	noon := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	clock := []time.Time{noon, noon.Add(-time.Second), noon.Add(time.Minute)}
	r.now = func() time.Time {
		next := clock[0]
		clock = clock[1:]
		return next
	}

	first, _ := r.Public(alice, "one", KindText, "")
	second, _ := r.Public(alice, "two", KindText, "")
	third, _ := r.Public(alice, "three", KindText, "")

	assert.Equal(t, noon, first.Timestamp)
	assert.Equal(t, noon, second.Timestamp, "clock stepped back, timestamp held")
	assert.Equal(t, noon.Add(time.Minute), third.Timestamp)
}

func TestRouter_PrivateToOnlineTarget(t *testing.T) {
	r, reg, convs := newTestRouter()
	alice := reg.Join("h1", ProfileInput{Username: "alice"})
	reg.Join("h2", ProfileInput{Username: "bob"})

	m, d := r.Private(alice, "bob", "yo", KindText, "")

	assert.Equal(t, DeliverTo, d.Mode)
	assert.ElementsMatch(t, []ConnID{"h1", "h2"}, d.To)
	assert.Equal(t, KeyFor("alice", "bob"), m.ChatID)

	log := convs.Get(KeyFor("bob", "alice"))
	require.Len(t, log, 1)
	assert.Equal(t, m, log[0])
}

func TestRouter_PrivateToOfflineTargetIsStoredOnly(t *testing.T) {
	r, reg, convs := newTestRouter()
	alice := reg.Join("h1", ProfileInput{Username: "alice"})

	m, d := r.Private(alice, "bob", "are you there?", KindText, "")

	assert.Equal(t, DeliverNone, d.Mode)
	assert.Empty(t, d.Resolve([]ConnID{"h1"}))
	log := convs.Get(KeyFor("alice", "bob"))
	require.Len(t, log, 1)
	assert.Equal(t, m.ID, log[0].ID)
}

func TestRouter_PrivateToSelfDeliversOnce(t *testing.T) {
	r, reg, _ := newTestRouter()
	alice := reg.Join("h1", ProfileInput{Username: "alice"})

	_, d := r.Private(alice, "alice", "note to self", KindText, "")
	assert.Equal(t, []ConnID{"h1"}, d.To)
}

func TestRouter_PrivateFileMessage(t *testing.T) {
	r, reg, _ := newTestRouter()
	alice := reg.Join("h1", ProfileInput{Username: "alice"})
	reg.Join("h2", ProfileInput{Username: "bob"})

	m, _ := r.Private(alice, "bob", "", KindFile, "https://cdn/x.png")
	assert.Equal(t, KindFile, m.Kind)
	assert.Equal(t, "https://cdn/x.png", m.FileURL)
}

func TestRouter_Typing(t *testing.T) {
	r, reg, _ := newTestRouter()
	alice := reg.Join("h1", ProfileInput{Username: "alice"})
	reg.Join("h2", ProfileInput{Username: "bob"})
	open := []ConnID{"h1", "h2", "h3"}

	d := r.Typing(alice, "")
	assert.Equal(t, []ConnID{"h2", "h3"}, d.Resolve(open))

	d = r.Typing(alice, "bob")
	assert.Equal(t, []ConnID{"h2"}, d.Resolve(open))

	d = r.Typing(alice, "carol")
	assert.Equal(t, DeliverNone, d.Mode)
}

func TestDelivery_Resolve(t *testing.T) {
	open := []ConnID{"a", "b", "c"}

	assert.Equal(t, open, Everyone().Resolve(open))
	assert.Equal(t, []ConnID{"a", "c"}, EveryoneBut("b").Resolve(open))
	assert.Equal(t, []ConnID{"b", "a"}, Only("b", "a", "b").Resolve(open))
	assert.Nil(t, Nobody().Resolve(open))
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindText, ParseKind("", ""))
	assert.Equal(t, KindText, ParseKind("text", "https://x"))
	assert.Equal(t, KindFile, ParseKind("file", ""))
	assert.Equal(t, KindFile, ParseKind("image", "https://x"))
	assert.Equal(t, KindText, ParseKind("sticker", ""))
}
