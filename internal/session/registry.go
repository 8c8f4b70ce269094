package session

import "sync"

// Registry owns every live call session. Each call id has its own lock, so
// handlers for distinct calls run in parallel while retried or out-of-order
// webhooks for one call are serialized in arrival order.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	sess *Session
	// gone marks an entry removed while another goroutine was waiting on
	// its lock; the waiter re-resolves against the map instead of touching
	// a dead session.
	gone bool
}

// Handle is a locked borrow of one session. It must be released (or removed)
// before the webhook response is written; it is never retained across requests.
type Handle struct {
	r  *Registry
	id string
	e  *entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]*entry{}}
}

// Obtain locks the session for id, creating it via create when absent.
// The returned flag reports whether this call created the session.
func (r *Registry) Obtain(id string, create func() *Session) (*Handle, bool) {
	for {
		r.mu.Lock()
		e, ok := r.entries[id]
		created := false
		if !ok {
			e = &entry{sess: create()}
			r.entries[id] = e
			created = true
		}
		r.mu.Unlock()

		e.mu.Lock()
		if e.gone {
			e.mu.Unlock()
			continue
		}
		return &Handle{r: r, id: id, e: e}, created
	}
}

// Lookup locks the session for id, or returns nil when none is tracked.
func (r *Registry) Lookup(id string) *Handle {
	for {
		r.mu.Lock()
		e, ok := r.entries[id]
		r.mu.Unlock()
		if !ok {
			return nil
		}

		e.mu.Lock()
		if e.gone {
			e.mu.Unlock()
			continue
		}
		return &Handle{r: r, id: id, e: e}
	}
}

// Exists reports whether a session is tracked for id.
func (r *Registry) Exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Session returns the borrowed session.
func (h *Handle) Session() *Session {
	return h.e.sess
}

// Release unlocks the session without removing it.
func (h *Handle) Release() {
	h.e.mu.Unlock()
}

// Remove deletes the session from the registry and releases the handle.
// Termination is the only caller.
func (h *Handle) Remove() {
	h.r.mu.Lock()
	if cur, ok := h.r.entries[h.id]; ok && cur == h.e {
		delete(h.r.entries, h.id)
	}
	h.r.mu.Unlock()

	h.e.gone = true
	h.e.mu.Unlock()
}
