package app

import (
	"sync"

	"live-quiz-service/internal/domain"
)

// Association is the transient per-connection record of what to clean up on
// disconnect. It is written on join/start and read+cleared on disconnect;
// nothing else is ever inferred from the transport connection itself.
type Association struct {
	ConnID string
	RoomID string
	Role   domain.Role
	UserID string
}

// ConnRegistry tracks one Association per live connection.
type ConnRegistry struct {
	mu    sync.RWMutex
	conns map[string]Association
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{conns: make(map[string]Association)}
}

// Attach upserts the association for a connection, overwriting any prior one.
func (r *ConnRegistry) Attach(a Association) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[a.ConnID] = a
}

// Lookup returns the association for connID if one exists.
func (r *ConnRegistry) Lookup(connID string) (Association, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.conns[connID]
	return a, ok
}

// Detach removes the association. Detaching an unknown connection is a no-op,
// which is what makes disconnect handling idempotent.
func (r *ConnRegistry) Detach(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}
