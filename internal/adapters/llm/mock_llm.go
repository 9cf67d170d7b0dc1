package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/havenline/outreach-api/internal/domain"
)

// MockAgent is an in-process stand-in for the Gemini client, used in local
// mode and tests. Fields are settable so tests can script its behavior.
type MockAgent struct {
	// ReplyFragments, when set, is streamed as-is instead of the default
	// echo reply.
	ReplyFragments []string

	// ExtractResponse is returned verbatim by ExtractFields. Defaults to an
	// empty JSON object.
	ExtractResponse string

	mu       sync.Mutex
	sessions map[domain.SessionID]bool
}

func NewMockAgent() *MockAgent {
	return &MockAgent{
		sessions: make(map[domain.SessionID]bool),
	}
}

func (m *MockAgent) CreateSession(ctx context.Context, userID domain.UserID, contextSeed string) (domain.SessionID, error) {
	id := domain.SessionID(uuid.NewString())

	m.mu.Lock()
	m.sessions[id] = true
	m.mu.Unlock()

	return id, nil
}

func (m *MockAgent) StreamReply(
	ctx context.Context,
	sessionID domain.SessionID,
	userID domain.UserID,
	message string,
	onFragment func(string),
) error {

	m.mu.Lock()
	known := m.sessions[sessionID]
	m.mu.Unlock()
	if !known {
		return fmt.Errorf("no live chat for session %s", sessionID)
	}

	if len(m.ReplyFragments) > 0 {
		for _, f := range m.ReplyFragments {
			onFragment(f)
		}
		return nil
	}

	onFragment("I hear you. ")
	onFragment(fmt.Sprintf("You said %q. ", message))
	onFragment("Let's find somewhere safe for tonight first.")
	return nil
}

func (m *MockAgent) ExtractFields(ctx context.Context, utterance string) (string, error) {
	if m.ExtractResponse != "" {
		return m.ExtractResponse, nil
	}
	return "{}", nil
}
