package domain

import "time"

// Profile is the persisted user profile. UID is the identity provider's
// subject for authenticated users, or a locally generated id for anonymous
// chat users.
type Profile struct {
	UID     UserID
	Email   string
	Name    string
	Picture string

	// Intake-relevant attributes, filled in over time.
	Age      int
	Pronouns string
	Location string
	Needs    []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity is a verified bearer identity from the OAuth provider.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}
