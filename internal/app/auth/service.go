package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/havenline/outreach-api/internal/domain"
	"github.com/havenline/outreach-api/internal/observability"
)

// ErrInvalidToken wraps any verifier failure so handlers can map it to 401
// without caring which way the token was bad.
var ErrInvalidToken = errors.New("invalid identity token")

// Service handles login via verified identity tokens. OAuth protocol
// internals live entirely in the verifier and the redirect-flow adapter.
type Service struct {
	verifier domain.TokenVerifier
	profiles domain.ProfileStore
	cache    domain.SessionCache
	now      func() time.Time
}

func NewService(verifier domain.TokenVerifier, profiles domain.ProfileStore, cache domain.SessionCache) *Service {
	return &Service{
		verifier: verifier,
		profiles: profiles,
		cache:    cache,
		now:      time.Now,
	}
}

type LoginResult struct {
	IsNewUser bool
	Profile   *domain.Profile
}

// LoginWithIDToken verifies the token and finds or creates the matching
// profile, keyed by the provider subject.
func (s *Service) LoginWithIDToken(ctx context.Context, idToken string) (*LoginResult, error) {
	log := observability.LoggerFromContext(ctx)

	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		log.Warn("identity token rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	uid := domain.UserID(identity.Subject)

	existing, err := s.profiles.GetProfile(ctx, uid)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("profile lookup: %w", err)
		}

		now := s.now()
		p := &domain.Profile{
			UID:       uid,
			Email:     identity.Email,
			Name:      identity.Name,
			Picture:   identity.Picture,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.profiles.CreateProfile(ctx, p); err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}

		log.Info("new user signed in", zap.String("uid", string(uid)))
		return &LoginResult{IsNewUser: true, Profile: p}, nil
	}

	// Refresh the provider-owned attributes on every login.
	existing.Email = identity.Email
	existing.Name = identity.Name
	existing.Picture = identity.Picture
	existing.UpdatedAt = s.now()
	if err := s.profiles.UpdateProfile(ctx, existing); err != nil {
		return nil, fmt.Errorf("refresh profile: %w", err)
	}

	log.Info("user signed in", zap.String("uid", string(uid)))
	return &LoginResult{IsNewUser: false, Profile: existing}, nil
}

// Logout drops the user's active chat session, if any.
func (s *Service) Logout(ctx context.Context, uid domain.UserID) error {
	if err := s.cache.Evict(ctx, uid); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("evict session: %w", err)
	}
	return nil
}
