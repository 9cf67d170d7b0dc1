package memory

import (
	"context"
	"sync"

	"github.com/havenline/outreach-api/internal/domain"
)

// ProfileStore is an in-memory implementation of domain.ProfileStore.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[domain.UserID]*domain.Profile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[domain.UserID]*domain.Profile),
	}
}

func (s *ProfileStore) CreateProfile(ctx context.Context, p *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.profiles[p.UID] = &cp
	return nil
}

func (s *ProfileStore) GetProfile(ctx context.Context, uid domain.UserID) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}

	cp := *p
	return &cp, nil
}

func (s *ProfileStore) UpdateProfile(ctx context.Context, p *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.UID]; !ok {
		return domain.ErrNotFound
	}

	cp := *p
	s.profiles[p.UID] = &cp
	return nil
}
