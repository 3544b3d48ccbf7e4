package hub

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry maps authenticated user identities to their single live
// connection. At most one connection per identity: a newer connection for
// the same user supersedes the older one.
type Registry struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

// NewRegistry creates an empty connection registry
func NewRegistry() *Registry {
	return &Registry{clients: make(map[uuid.UUID]*Client)}
}

// Admit registers a client as the live connection for its identity. If the
// identity already had a connection, the displaced client is returned so the
// caller can close it.
func (r *Registry) Admit(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.clients[c.userID]
	r.clients[c.userID] = c
	return old
}

// Remove deregisters a client. It is a no-op unless the departing client is
// still the current mapping for its identity, so a superseded connection
// going away cannot knock out its replacement.
func (r *Registry) Remove(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clients[c.userID] != c {
		return false
	}
	delete(r.clients, c.userID)
	return true
}

// Lookup returns the live connection for a user, or nil if offline
func (r *Registry) Lookup(userID uuid.UUID) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[userID]
}

// Online returns the identities of all connected users in stable order
func (r *Registry) Online() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

// Count returns the number of live connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// each calls fn for every live connection
func (r *Registry) each(fn func(*Client)) {
	r.mu.RLock()
	snapshot := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		snapshot = append(snapshot, c)
	}
	r.mu.RUnlock()

	for _, c := range snapshot {
		fn(c)
	}
}
