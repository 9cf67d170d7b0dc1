package calls

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/havenline/outreach-api/internal/domain"
	"github.com/havenline/outreach-api/internal/observability"
)

// ErrInvalidPhone is returned when the destination is not an E.164 number.
var ErrInvalidPhone = errors.New("invalid phone number format, expected E.164 like +15551234567")

var phoneRE = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// Service fronts the voice provider: outbound calls, conversation listings
// and transcripts. Each request attempts its upstream call independently; a
// failing provider fails the request, nothing more.
type Service struct {
	dialer      domain.Dialer
	transcripts domain.TranscriptProvider
}

func NewService(dialer domain.Dialer, transcripts domain.TranscriptProvider) *Service {
	return &Service{
		dialer:      dialer,
		transcripts: transcripts,
	}
}

// InitiateCall starts an outbound call to the given number.
func (s *Service) InitiateCall(ctx context.Context, phoneNumber string) (*domain.CallInfo, error) {
	if !phoneRE.MatchString(phoneNumber) {
		return nil, ErrInvalidPhone
	}

	log := observability.LoggerFromContext(ctx)
	log.Info("initiating outbound call")

	info, err := s.dialer.Dial(ctx, phoneNumber)
	if err != nil {
		log.Error("outbound call failed", zap.Error(err))
		return nil, fmt.Errorf("initiate call: %w", err)
	}

	log.Info("outbound call started",
		zap.String("call_id", string(info.CallID)),
		zap.String("conversation_id", string(info.ConversationID)))

	return info, nil
}

// GetTranscript fetches one conversation's transcript and metadata.
func (s *Service) GetTranscript(ctx context.Context, id domain.ConversationID) (*domain.Transcript, error) {
	t, err := s.transcripts.GetTranscript(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}
	return t, nil
}

// ListConversations lists recent conversations for the configured agent.
func (s *Service) ListConversations(ctx context.Context) ([]domain.ConversationSummary, error) {
	out, err := s.transcripts.ListConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}
