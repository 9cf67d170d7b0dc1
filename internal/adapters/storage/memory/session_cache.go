package memory

import (
	"context"
	"sync"

	"github.com/havenline/outreach-api/internal/domain"
)

// SessionCache is the process-local implementation of domain.SessionCache.
// All entries are lost on restart; clients then have to start a new session
// and the old sessionId becomes permanently invalid.
type SessionCache struct {
	mu      sync.RWMutex
	entries map[domain.UserID]*domain.SessionEntry
}

func NewSessionCache() *SessionCache {
	return &SessionCache{
		entries: make(map[domain.UserID]*domain.SessionEntry),
	}
}

func (c *SessionCache) Get(ctx context.Context, uid domain.UserID) (*domain.SessionEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}

	cp := *e
	return &cp, nil
}

func (c *SessionCache) Set(ctx context.Context, uid domain.UserID, entry *domain.SessionEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := *entry
	c.entries[uid] = &cp
	return nil
}

func (c *SessionCache) Evict(ctx context.Context, uid domain.UserID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, uid)
	return nil
}
