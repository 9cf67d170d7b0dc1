package profiles

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/havenline/outreach-api/internal/domain"
)

// Service holds profile CRUD and saved conversation references.
type Service struct {
	profiles      domain.ProfileStore
	conversations domain.ConversationStore
	now           func() time.Time
}

func NewService(profiles domain.ProfileStore, conversations domain.ConversationStore) *Service {
	return &Service{
		profiles:      profiles,
		conversations: conversations,
		now:           time.Now,
	}
}

// CreateProfile stores a new profile. A missing UID gets generated.
func (s *Service) CreateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	if p.UID == "" {
		p.UID = domain.UserID(uuid.NewString())
	}

	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.profiles.CreateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, uid domain.UserID) (*domain.Profile, error) {
	return s.profiles.GetProfile(ctx, uid)
}

// UpdateProfile overwrites the mutable attributes of an existing profile.
func (s *Service) UpdateProfile(ctx context.Context, p *domain.Profile) (*domain.Profile, error) {
	existing, err := s.profiles.GetProfile(ctx, p.UID)
	if err != nil {
		return nil, err
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()

	if err := s.profiles.UpdateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

// SaveConversation stores a reference to a voice conversation for the user.
func (s *Service) SaveConversation(
	ctx context.Context,
	uid domain.UserID,
	conversationID domain.ConversationID,
	title string,
) (*domain.SavedConversation, error) {

	ref := &domain.SavedConversation{
		ID:             uuid.NewString(),
		UserID:         uid,
		ConversationID: conversationID,
		Title:          title,
		SavedAt:        s.now(),
	}

	if err := s.conversations.SaveConversation(ctx, ref); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}
	return ref, nil
}

// ListSavedConversations returns the user's saved references, newest first.
func (s *Service) ListSavedConversations(ctx context.Context, uid domain.UserID, limit int) ([]*domain.SavedConversation, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.conversations.ListSavedByUser(ctx, uid, limit)
}

// DeleteSavedConversation removes one saved reference.
func (s *Service) DeleteSavedConversation(ctx context.Context, id string) error {
	return s.conversations.DeleteSaved(ctx, id)
}
