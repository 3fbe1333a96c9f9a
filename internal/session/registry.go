package session

import (
	"sync"
	"time"
)

// Connection tracks one open transport connection and its binding, if any.
// The record exists only while the connection is open.
type Connection struct {
	ID          string
	ConnectedAt time.Time
	Role        Role
	TransferID  string
}

// Registry is the single source of truth for sessions and connections.
// Only the protocol engine mutates it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	conns    map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		conns:    make(map[string]*Connection),
	}
}

// PutSession inserts or replaces the session for its transfer id.
func (r *Registry) PutSession(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.TransferID] = s
}

// Session looks up a session by transfer id.
func (r *Registry) Session(transferID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[transferID]
	return s, ok
}

// RemoveSession deletes and returns the session, if present.
func (r *Registry) RemoveSession(transferID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[transferID]
	if ok {
		delete(r.sessions, transferID)
	}
	return s, ok
}

// SessionIDs returns the transfer ids of all active sessions.
func (r *Registry) SessionIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// AddConnection registers a freshly opened, unbound connection.
func (r *Registry) AddConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = &Connection{ID: connID, ConnectedAt: time.Now()}
}

// BindConnection attaches a role and transfer id to an open connection.
func (r *Registry) BindConnection(connID string, role Role, transferID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[connID]; ok {
		c.Role = role
		c.TransferID = transferID
	}
}

// Connection returns a copy of the connection record.
func (r *Registry) Connection(connID string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// RemoveConnection deletes the connection record and returns its last state.
func (r *Registry) RemoveConnection(connID string) (Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return Connection{}, false
	}
	delete(r.conns, connID)
	return *c, true
}

// SessionCount reports the number of active sessions.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ConnectionCount reports the number of open connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
