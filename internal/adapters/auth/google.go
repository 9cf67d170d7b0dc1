package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"github.com/havenline/outreach-api/internal/config"
	"github.com/havenline/outreach-api/internal/domain"
)

// GoogleVerifier validates Google ID tokens against the configured OAuth
// client id. Implements domain.TokenVerifier.
type GoogleVerifier struct {
	audience string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{audience: clientID}
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	payload, err := idtoken.Validate(ctx, token, v.audience)
	if err != nil {
		return nil, fmt.Errorf("validate id token: %w", err)
	}

	return &domain.Identity{
		Subject: payload.Subject,
		Email:   claimString(payload.Claims, "email"),
		Name:    claimString(payload.Claims, "name"),
		Picture: claimString(payload.Claims, "picture"),
	}, nil
}

func claimString(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}

// RedirectFlow implements the browser-redirect login: the full handshake is
// delegated to golang.org/x/oauth2; this side only builds the consent URL
// and swaps the callback code for an id token.
type RedirectFlow struct {
	oauth *oauth2.Config
}

func NewRedirectFlow(cfg config.GoogleConfig) *RedirectFlow {
	return &RedirectFlow{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// LoginURL returns the provider consent URL for the given CSRF state.
func (f *RedirectFlow) LoginURL(state string) string {
	return f.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange swaps the callback code for the id token embedded in the token
// response.
func (f *RedirectFlow) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := f.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("oauth code exchange: %w", err)
	}

	idToken, ok := tok.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", fmt.Errorf("token response carried no id_token")
	}
	return idToken, nil
}
