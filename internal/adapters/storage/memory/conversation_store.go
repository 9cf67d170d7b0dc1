package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/havenline/outreach-api/internal/domain"
)

// ConversationStore is an in-memory implementation of domain.ConversationStore.
type ConversationStore struct {
	mu    sync.RWMutex
	saved map[string]*domain.SavedConversation
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		saved: make(map[string]*domain.SavedConversation),
	}
}

func (s *ConversationStore) SaveConversation(ctx context.Context, c *domain.SavedConversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	s.saved[c.ID] = &cp
	return nil
}

func (s *ConversationStore) ListSavedByUser(ctx context.Context, uid domain.UserID, limit int) ([]*domain.SavedConversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.SavedConversation
	for _, c := range s.saved {
		if c.UserID == uid {
			cp := *c
			out = append(out, &cp)
		}
	}

	// Newest first, as the Firestore backend orders.
	sort.Slice(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ConversationStore) DeleteSaved(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.saved[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.saved, id)
	return nil
}
