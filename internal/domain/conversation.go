package domain

import "time"

// SessionEntry is the per-user registry state: the active session id plus the
// one-shot prompt context seeded from the user's profile. ContextSent flips
// after the first message so the full profile is not repeated on every turn.
type SessionEntry struct {
	SessionID   SessionID `json:"session_id"`
	Context     string    `json:"context"`
	ContextSent bool      `json:"context_sent"`
}

// SavedConversation is a stored reference to a voice conversation a user
// wants to keep.
type SavedConversation struct {
	ID             string
	UserID         UserID
	ConversationID ConversationID
	Title          string
	SavedAt        time.Time
}

// CallInfo identifies an initiated outbound call.
type CallInfo struct {
	CallID         CallID
	ConversationID ConversationID
}

// TranscriptTurn is one turn of a voice conversation transcript.
type TranscriptTurn struct {
	Role       Role
	Message    string
	TimeInCall int // seconds from call start
}

// TranscriptMetadata carries conversation-level attributes from the provider.
type TranscriptMetadata struct {
	AgentID  string
	Duration int // seconds
}

// Transcript is the full transcript of one conversation.
type Transcript struct {
	ConversationID ConversationID
	Turns          []TranscriptTurn
	Metadata       TranscriptMetadata
}

// ConversationSummary is one row of the provider's conversation listing.
type ConversationSummary struct {
	ConversationID ConversationID
	AgentID        string
	StartTime      time.Time
	Duration       int
	MessageCount   int
	Status         string
}
