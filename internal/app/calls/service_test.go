package calls

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenline/outreach-api/internal/domain"
)

type fakeDialer struct {
	dialed []string
	info   *domain.CallInfo
	err    error
}

func (d *fakeDialer) Dial(_ context.Context, number string) (*domain.CallInfo, error) {
	d.dialed = append(d.dialed, number)
	if d.err != nil {
		return nil, d.err
	}
	return d.info, nil
}

type fakeTranscripts struct {
	transcript *domain.Transcript
	summaries  []domain.ConversationSummary
	err        error
}

func (p *fakeTranscripts) GetTranscript(context.Context, domain.ConversationID) (*domain.Transcript, error) {
	return p.transcript, p.err
}

func (p *fakeTranscripts) ListConversations(context.Context) ([]domain.ConversationSummary, error) {
	return p.summaries, p.err
}

func TestInitiateCallValidatesNumber(t *testing.T) {
	tests := []struct {
		number string
		valid  bool
	}{
		{"+15551234567", true},
		{"+447911123456", true},
		{"+3312345678", true},
		{"5551234567", false},    // no plus
		{"+05551234567", false},  // leading zero country code
		{"+1555123", true},       // short but within E.164
		{"+1555", false},         // too short
		{"+123456789012345678", false}, // too long
		{"+1 555 123 4567", false},     // spaces
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			dialer := &fakeDialer{info: &domain.CallInfo{CallID: "CA1", ConversationID: "conv1"}}
			svc := NewService(dialer, &fakeTranscripts{})

			info, err := svc.InitiateCall(context.Background(), tt.number)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, domain.CallID("CA1"), info.CallID)
				assert.Equal(t, []string{tt.number}, dialer.dialed)
			} else {
				assert.ErrorIs(t, err, ErrInvalidPhone)
				assert.Empty(t, dialer.dialed, "provider must not be called for an invalid number")
			}
		})
	}
}

func TestInitiateCallProviderFailure(t *testing.T) {
	wantErr := errors.New("upstream 502")
	svc := NewService(&fakeDialer{err: wantErr}, &fakeTranscripts{})

	_, err := svc.InitiateCall(context.Background(), "+15551234567")
	assert.ErrorIs(t, err, wantErr)
}

func TestGetTranscript(t *testing.T) {
	want := &domain.Transcript{
		Turns: []domain.TranscriptTurn{
			{Role: domain.RoleAgent, Message: "Hi, this is Haven."},
			{Role: domain.RoleUser, Message: "Hey."},
		},
		Metadata: domain.TranscriptMetadata{AgentID: "agent-1", Duration: 42},
	}
	svc := NewService(&fakeDialer{}, &fakeTranscripts{transcript: want})

	got, err := svc.GetTranscript(context.Background(), "conv1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestListConversationsFailure(t *testing.T) {
	wantErr := errors.New("upstream down")
	svc := NewService(&fakeDialer{}, &fakeTranscripts{err: wantErr})

	_, err := svc.ListConversations(context.Background())
	assert.ErrorIs(t, err, wantErr)
}
