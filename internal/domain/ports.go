package domain

import "context"

// AgentRunner defines how the core application talks to the external
// conversational-AI runner. The runner owns conversation state; this side
// only holds the (userId, sessionId) binding.
type AgentRunner interface {
	// CreateSession opens a new conversation seeded with a natural-language
	// context string (usually the flattened user profile).
	CreateSession(ctx context.Context, userID UserID, contextSeed string) (SessionID, error)

	// StreamReply sends a message and invokes onFragment for every streamed
	// text fragment of the reply, in order.
	StreamReply(ctx context.Context, sessionID SessionID, userID UserID, message string, onFragment func(string)) error
}

// FieldExtractor asks a text-generation capability for a strict JSON object
// of intake fields detectable in one utterance. The raw model output is
// returned as-is; it may be malformed, and decoding it is the caller's
// problem.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, utterance string) (string, error)
}

// IntakeStore persists intake records.
type IntakeStore interface {
	// GetIntake returns ErrNotFound when no record exists for the session.
	GetIntake(ctx context.Context, sessionID SessionID) (*IntakeRecord, error)

	// MergeIntake writes the full record with merge semantics: unrelated
	// top-level attributes of the stored document are left intact.
	MergeIntake(ctx context.Context, rec *IntakeRecord) error
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, uid UserID) (*Profile, error)
	UpdateProfile(ctx context.Context, p *Profile) error
}

// ConversationStore persists saved conversation references.
type ConversationStore interface {
	SaveConversation(ctx context.Context, c *SavedConversation) error
	ListSavedByUser(ctx context.Context, uid UserID, limit int) ([]*SavedConversation, error)
	DeleteSaved(ctx context.Context, id string) error
}

// SessionCache maps a user to their active session entry. The memory backend
// is process-local and volatile; the Redis backend survives restarts and
// works across replicas.
type SessionCache interface {
	// Get returns ErrNotFound when the user has no active session.
	Get(ctx context.Context, uid UserID) (*SessionEntry, error)
	Set(ctx context.Context, uid UserID, entry *SessionEntry) error
	Evict(ctx context.Context, uid UserID) error
}

// Dialer starts outbound calls through the voice provider.
type Dialer interface {
	Dial(ctx context.Context, destination string) (*CallInfo, error)
}

// TranscriptProvider reads conversation transcripts and listings from the
// voice provider.
type TranscriptProvider interface {
	GetTranscript(ctx context.Context, id ConversationID) (*Transcript, error)
	ListConversations(ctx context.Context) ([]ConversationSummary, error)
}

// TokenVerifier validates bearer identity tokens from the OAuth provider.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}
