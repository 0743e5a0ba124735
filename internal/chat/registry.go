package chat

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps live connections to the profile they joined with, and
// usernames back to the connection currently holding them.
//
// A username belongs to at most one connection. A later join under the same
// name takes the name over; the earlier connection keeps its profile until it
// disconnects, and that disconnect leaves the newer mapping alone.
type Registry struct {
	mu       sync.RWMutex
	profiles map[ConnID]UserProfile
	byName   map[string]ConnID
	order    []ConnID // first-join order of the handles in profiles
}

func NewRegistry() *Registry {
	return &Registry{
		profiles: make(map[ConnID]UserProfile),
		byName:   make(map[string]ConnID),
	}
}

// Join binds conn to the declared profile. Usernames are not validated.
func (r *Registry) Join(conn ConnID, in ProfileInput) UserProfile {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := UserProfile{Username: in.Username, Avatar: in.avatar(), ConnID: conn}

	if prev, ok := r.profiles[conn]; ok {
		// Re-join on the same connection: release the old name if we still hold it.
		if prev.Username != p.Username && r.byName[prev.Username] == conn {
			delete(r.byName, prev.Username)
		}
	} else {
		r.order = append(r.order, conn)
	}

	r.profiles[conn] = p
	r.byName[p.Username] = conn
	return p
}

func (r *Registry) ByConn(conn ConnID) (UserProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[conn]
	return p, ok
}

func (r *Registry) ByUsername(name string) (ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byName[name]
	return c, ok
}

// Remove drops the profile bound to conn and returns it. The username mapping
// is deleted only if it still points at conn.
func (r *Registry) Remove(conn ConnID) (UserProfile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[conn]
	if !ok {
		return UserProfile{}, false
	}
	delete(r.profiles, conn)
	if i := slices.Index(r.order, conn); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	if r.byName[p.Username] == conn {
		delete(r.byName, p.Username)
	}
	return p, true
}

// Snapshot returns every live profile in first-join order.
func (r *Registry) Snapshot() []UserProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]UserProfile, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, r.profiles[c])
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}

// Verify checks that every username mapping points at a live profile that
// carries that username, and that order and profiles agree.
func (r *Registry) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, c := range r.byName {
		p, ok := r.profiles[c]
		if !ok {
			return fmt.Errorf("%w: %q mapped to dead connection %s", ErrInvariant, name, c)
		}
		if p.Username != name {
			return fmt.Errorf("%w: %q mapped to connection %s joined as %q", ErrInvariant, name, c, p.Username)
		}
	}
	if len(r.order) != len(r.profiles) {
		return fmt.Errorf("%w: %d ordered handles for %d profiles", ErrInvariant, len(r.order), len(r.profiles))
	}
	return nil
}
