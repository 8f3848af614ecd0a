package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anonto42/snapgram/backend/internal/backend"
	"github.com/anonto42/snapgram/backend/internal/models"
)

type expiringUser struct {
	user      models.User
	expiresAt time.Time
}

// MemoryUserCache implements backend.UserCache with a mutex-guarded map
type MemoryUserCache struct {
	mu    sync.Mutex
	users map[string]expiringUser
}

// NewMemoryUserCache creates an empty MemoryUserCache
func NewMemoryUserCache() *MemoryUserCache {
	return &MemoryUserCache{users: make(map[string]expiringUser)}
}

// Get returns the cached user of a session
func (c *MemoryUserCache) Get(_ context.Context, sessionID string) (*models.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.users[sessionID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.users, sessionID)
		return nil, fmt.Errorf("cached user %s: %w", sessionID, backend.ErrNotFound)
	}
	user := entry.user
	return &user, nil
}

// Set caches user for ttl
func (c *MemoryUserCache) Set(_ context.Context, sessionID string, user *models.User, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.users[sessionID] = expiringUser{user: *user, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Delete evicts the cached user of a session
func (c *MemoryUserCache) Delete(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.users, sessionID)
	return nil
}

// MemoryRevocations implements session.RevocationStore with a map of expiries
type MemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewMemoryRevocations creates an empty MemoryRevocations
func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{revoked: make(map[string]time.Time)}
}

// Revoke marks tokenID revoked for ttl
func (r *MemoryRevocations) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.revoked[tokenID] = time.Now().Add(ttl)
	return nil
}

// IsRevoked reports whether tokenID is currently revoked
func (r *MemoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	until, ok := r.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(r.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

// MemoryMutationGuard tracks the in-flight post mutation of each user in
// process. A user has at most one mutation pending, of any kind.
type MemoryMutationGuard struct {
	mu      sync.Mutex
	pending map[string]pendingMutation
}

type pendingMutation struct {
	kind  string
	until time.Time
}

// NewMemoryMutationGuard creates an empty MemoryMutationGuard
func NewMemoryMutationGuard() *MemoryMutationGuard {
	return &MemoryMutationGuard{pending: make(map[string]pendingMutation)}
}

// Acquire marks kind pending for userID; false if any mutation already was
func (g *MemoryMutationGuard) Acquire(_ context.Context, userID, kind string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.current(userID); ok {
		return false, nil
	}
	g.pending[userID] = pendingMutation{kind: kind, until: time.Now().Add(ttl)}
	return true, nil
}

// Release clears the pending mark if it is still held for kind
func (g *MemoryMutationGuard) Release(_ context.Context, userID, kind string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if m, ok := g.pending[userID]; ok && m.kind == kind {
		delete(g.pending, userID)
	}
	return nil
}

// Pending returns the kind in flight for userID, or "" when idle
func (g *MemoryMutationGuard) Pending(_ context.Context, userID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, _ := g.current(userID)
	return m.kind, nil
}

// current returns the unexpired mutation of userID. Callers hold mu.
func (g *MemoryMutationGuard) current(userID string) (pendingMutation, bool) {
	m, ok := g.pending[userID]
	if !ok {
		return pendingMutation{}, false
	}
	if time.Now().After(m.until) {
		delete(g.pending, userID)
		return pendingMutation{}, false
	}
	return m, true
}
