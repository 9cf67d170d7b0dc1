package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/havenline/outreach-api/internal/domain"
	"github.com/havenline/outreach-api/internal/observability"
)

// Service is the form merge engine: it turns one free-text utterance into a
// best-effort structured extraction and folds it into whatever is already
// known for the session.
type Service struct {
	extractor domain.FieldExtractor
	store     domain.IntakeStore
	now       func() time.Time
}

func NewService(extractor domain.FieldExtractor, store domain.IntakeStore) *Service {
	return &Service{
		extractor: extractor,
		store:     store,
		now:       time.Now,
	}
}

// ExtractAndMerge runs the extraction call, merges the decoded payload into
// the stored record and persists the result.
//
// The extraction is best-effort: when the model output does not decode as a
// JSON object the merge is aborted with a log line and the stored record is
// left untouched. A bad response must never corrupt previously known fields.
// There is no retry; the next utterance is the only recovery path.
//
// Callers on the chat path run this through the task runner, so errors
// returned here end up in the completion stream and the log, never at a
// client.
func (s *Service) ExtractAndMerge(
	ctx context.Context,
	sessionID domain.SessionID,
	userID domain.UserID,
	utterance string,
) (*domain.IntakeRecord, error) {

	log := observability.LoggerFromContext(ctx).With(
		zap.String("session_id", string(sessionID)),
		zap.String("user_id", string(userID)),
	)

	raw, err := s.extractor.ExtractFields(ctx, utterance)
	if err != nil {
		return nil, fmt.Errorf("intake extraction call: %w", err)
	}

	incoming, ok := decodePayload(raw)
	if !ok {
		log.Warn("extraction payload did not decode, skipping merge",
			zap.Int("raw_len", len(raw)))
		return nil, nil
	}
	if len(incoming) == 0 {
		log.Debug("extraction payload empty, nothing to merge")
	}

	existing, err := s.store.GetIntake(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("load intake record: %w", err)
		}
		existing = &domain.IntakeRecord{
			SessionID: sessionID,
			UserID:    userID,
			Fields:    map[string]any{},
		}
	}

	rec := &domain.IntakeRecord{
		SessionID:  sessionID,
		UserID:     userID,
		Fields:     mergeFields(existing.Fields, incoming),
		LastUpdate: s.now(),
	}
	recompute(rec)

	if err := s.store.MergeIntake(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist intake record: %w", err)
	}

	log.Info("intake merge completed",
		zap.Int("fields_total", len(rec.Fields)),
		zap.Int("fields_extracted", len(rec.ExtractedFields)),
		zap.Int("completeness", rec.Completeness))

	return rec, nil
}

// GetRecord reads the current intake record for a session. This is the only
// way a client can observe that a background merge has landed.
func (s *Service) GetRecord(ctx context.Context, sessionID domain.SessionID) (*domain.IntakeRecord, error) {
	return s.store.GetIntake(ctx, sessionID)
}
