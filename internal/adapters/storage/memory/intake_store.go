package memory

import (
	"context"
	"sync"

	"github.com/havenline/outreach-api/internal/domain"
)

// IntakeStore is an in-memory implementation of domain.IntakeStore. Not
// persistent; suitable for local mode and tests.
type IntakeStore struct {
	mu      sync.RWMutex
	records map[domain.SessionID]*domain.IntakeRecord
}

func NewIntakeStore() *IntakeStore {
	return &IntakeStore{
		records: make(map[domain.SessionID]*domain.IntakeRecord),
	}
}

func (s *IntakeStore) GetIntake(ctx context.Context, sessionID domain.SessionID) (*domain.IntakeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *IntakeStore) MergeIntake(ctx context.Context, rec *domain.IntakeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneRecord(rec)
	// Merge semantics: an empty UserID must not clobber a stored one.
	if stored.UserID == "" {
		if prev, ok := s.records[rec.SessionID]; ok {
			stored.UserID = prev.UserID
		}
	}

	s.records[rec.SessionID] = stored
	return nil
}

// Len reports the number of stored records, for tests.
func (s *IntakeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneRecord(rec *domain.IntakeRecord) *domain.IntakeRecord {
	out := *rec

	out.Fields = make(map[string]any, len(rec.Fields))
	for k, v := range rec.Fields {
		out.Fields[k] = v
	}
	out.ExtractedFields = append([]string(nil), rec.ExtractedFields...)
	out.MissingFields = append([]string(nil), rec.MissingFields...)

	return &out
}
