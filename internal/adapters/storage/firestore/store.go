package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/havenline/outreach-api/internal/domain"
)

// Store implements domain.ProfileStore, domain.IntakeStore and
// domain.ConversationStore on one Firestore client.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for the given project.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) profilesCol() *firestore.CollectionRef {
	return s.client.Collection("profiles")
}

func (s *Store) profileDoc(uid domain.UserID) *firestore.DocumentRef {
	return s.profilesCol().Doc(string(uid))
}

func (s *Store) intakeCol() *firestore.CollectionRef {
	return s.client.Collection("intake_sessions")
}

func (s *Store) intakeDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.intakeCol().Doc(string(id))
}

func (s *Store) savedCol() *firestore.CollectionRef {
	return s.client.Collection("saved_conversations")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type profileDoc struct {
	Email    string    `firestore:"email"`
	Name     string    `firestore:"name"`
	Picture  string    `firestore:"picture"`
	Age      int       `firestore:"age"`
	Pronouns string    `firestore:"pronouns"`
	Location string    `firestore:"location"`
	Needs    []string  `firestore:"needs"`
	Created  time.Time `firestore:"created_at"`
	Updated  time.Time `firestore:"updated_at"`
}

type intakeDoc struct {
	UserID          string         `firestore:"user_id"`
	Fields          map[string]any `firestore:"fields"`
	ExtractedFields []string       `firestore:"extracted_fields"`
	MissingFields   []string       `firestore:"missing_fields"`
	Completeness    int            `firestore:"completeness"`
	Confidence      int            `firestore:"confidence"`
	LastUpdate      time.Time      `firestore:"last_update"`
}

type savedConversationDoc struct {
	UserID         string    `firestore:"user_id"`
	ConversationID string    `firestore:"conversation_id"`
	Title          string    `firestore:"title"`
	SavedAt        time.Time `firestore:"saved_at"`
}

// ─────────────────────────────────────────
// ProfileStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateProfile(ctx context.Context, p *domain.Profile) error {
	_, err := s.profileDoc(p.UID).Create(ctx, toProfileDoc(p))
	if err != nil {
		return fmt.Errorf("firestore CreateProfile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, uid domain.UserID) (*domain.Profile, error) {
	snap, err := s.profileDoc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetProfile: %w", err)
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetProfile decode: %w", err)
	}

	return fromProfileDoc(uid, &doc), nil
}

func (s *Store) UpdateProfile(ctx context.Context, p *domain.Profile) error {
	_, err := s.profileDoc(p.UID).Set(ctx, toProfileDoc(p), firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore UpdateProfile: %w", err)
	}
	return nil
}

func toProfileDoc(p *domain.Profile) map[string]interface{} {
	return map[string]interface{}{
		"email":      p.Email,
		"name":       p.Name,
		"picture":    p.Picture,
		"age":        p.Age,
		"pronouns":   p.Pronouns,
		"location":   p.Location,
		"needs":      p.Needs,
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}
}

func fromProfileDoc(uid domain.UserID, doc *profileDoc) *domain.Profile {
	return &domain.Profile{
		UID:       uid,
		Email:     doc.Email,
		Name:      doc.Name,
		Picture:   doc.Picture,
		Age:       doc.Age,
		Pronouns:  doc.Pronouns,
		Location:  doc.Location,
		Needs:     doc.Needs,
		CreatedAt: doc.Created,
		UpdatedAt: doc.Updated,
	}
}

// ─────────────────────────────────────────
// IntakeStore implementation
// ─────────────────────────────────────────

func (s *Store) GetIntake(ctx context.Context, sessionID domain.SessionID) (*domain.IntakeRecord, error) {
	snap, err := s.intakeDoc(sessionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("firestore GetIntake: %w", err)
	}

	var doc intakeDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetIntake decode: %w", err)
	}

	return &domain.IntakeRecord{
		SessionID:       sessionID,
		UserID:          domain.UserID(doc.UserID),
		Fields:          doc.Fields,
		ExtractedFields: doc.ExtractedFields,
		MissingFields:   doc.MissingFields,
		Completeness:    doc.Completeness,
		Confidence:      doc.Confidence,
		LastUpdate:      doc.LastUpdate,
	}, nil
}

func (s *Store) MergeIntake(ctx context.Context, rec *domain.IntakeRecord) error {
	doc := map[string]interface{}{
		"user_id":          string(rec.UserID),
		"fields":           rec.Fields,
		"extracted_fields": rec.ExtractedFields,
		"missing_fields":   rec.MissingFields,
		"completeness":     rec.Completeness,
		"confidence":       rec.Confidence,
		"last_update":      rec.LastUpdate,
	}

	// Set + MergeAll so unrelated top-level attributes of the stored
	// document survive the write.
	_, err := s.intakeDoc(rec.SessionID).Set(ctx, doc, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore MergeIntake: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) SaveConversation(ctx context.Context, c *domain.SavedConversation) error {
	doc := savedConversationDoc{
		UserID:         string(c.UserID),
		ConversationID: string(c.ConversationID),
		Title:          c.Title,
		SavedAt:        c.SavedAt,
	}

	_, err := s.savedCol().Doc(c.ID).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore SaveConversation: %w", err)
	}
	return nil
}

func (s *Store) ListSavedByUser(ctx context.Context, uid domain.UserID, limit int) ([]*domain.SavedConversation, error) {
	q := s.savedCol().Where("user_id", "==", string(uid)).OrderBy("saved_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.SavedConversation
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListSavedByUser: %w", err)
		}

		var doc savedConversationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode savedConversationDoc: %w", err)
		}

		out = append(out, &domain.SavedConversation{
			ID:             snap.Ref.ID,
			UserID:         domain.UserID(doc.UserID),
			ConversationID: domain.ConversationID(doc.ConversationID),
			Title:          doc.Title,
			SavedAt:        doc.SavedAt,
		})
	}
	return out, nil
}

func (s *Store) DeleteSaved(ctx context.Context, id string) error {
	_, err := s.savedCol().Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("firestore DeleteSaved: %w", err)
	}
	return nil
}
