package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/havenline/outreach-api/internal/app/intake"
	"github.com/havenline/outreach-api/internal/app/tasks"
	"github.com/havenline/outreach-api/internal/domain"
	"github.com/havenline/outreach-api/internal/observability"
)

// Service is the session/state registry: it binds each user to exactly one
// active session with the agent runner and carries the one-shot profile
// context for that session.
type Service struct {
	runner   domain.AgentRunner
	cache    domain.SessionCache
	profiles domain.ProfileStore
	intake   *intake.Service
	tasks    *tasks.Runner
}

func NewService(
	runner domain.AgentRunner,
	cache domain.SessionCache,
	profiles domain.ProfileStore,
	intakeSvc *intake.Service,
	runnerTasks *tasks.Runner,
) *Service {
	return &Service{
		runner:   runner,
		cache:    cache,
		profiles: profiles,
		intake:   intakeSvc,
		tasks:    runnerTasks,
	}
}

type StartSessionOutput struct {
	UserID    domain.UserID
	SessionID domain.SessionID
}

// StartSession opens a new conversation for the user, generating a userId
// when the caller has none yet. The session is seeded with the user's stored
// profile flattened into a context string; the context is kept in the cache
// so the first message can carry it.
//
// Starting a new session replaces any previous one: the old sessionId
// becomes permanently invalid for this user.
func (s *Service) StartSession(ctx context.Context, userID domain.UserID) (*StartSessionOutput, error) {
	if userID == "" {
		userID = domain.UserID(uuid.NewString())
	}

	log := observability.LoggerFromContext(ctx).With(
		zap.String("user_id", string(userID)),
	)
	log.Info("starting chat session")

	seed := ""
	if p, err := s.profiles.GetProfile(ctx, userID); err == nil {
		seed = contextFromProfile(p)
	} else if !errors.Is(err, domain.ErrNotFound) {
		log.Warn("profile lookup failed, seeding session without context", zap.Error(err))
	}

	sessionID, err := s.runner.CreateSession(ctx, userID, seed)
	if err != nil {
		log.Error("runner session create failed", zap.Error(err))
		return nil, fmt.Errorf("create agent session: %w", err)
	}

	entry := &domain.SessionEntry{
		SessionID:   sessionID,
		Context:     seed,
		ContextSent: false,
	}
	if err := s.cache.Set(ctx, userID, entry); err != nil {
		log.Error("session cache write failed", zap.Error(err))
		return nil, fmt.Errorf("record session: %w", err)
	}

	log.Info("chat session started", zap.String("session_id", string(sessionID)))

	return &StartSessionOutput{UserID: userID, SessionID: sessionID}, nil
}

// SendMessage forwards one utterance to the agent runner and returns the
// concatenated reply. The sessionId must match the cached session for the
// user; on mismatch the call is rejected before the runner is touched.
//
// After the reply is assembled the same utterance is replayed through the
// form merge engine on the task runner, detached from this call.
func (s *Service) SendMessage(
	ctx context.Context,
	userID domain.UserID,
	sessionID domain.SessionID,
	text string,
) (string, error) {

	log := observability.LoggerFromContext(ctx).With(
		zap.String("user_id", string(userID)),
		zap.String("session_id", string(sessionID)),
	)

	entry, err := s.cache.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidSession
		}
		return "", fmt.Errorf("session lookup: %w", err)
	}
	if entry.SessionID != sessionID {
		log.Warn("sessionId mismatch, rejecting message")
		return "", domain.ErrInvalidSession
	}

	outbound := text
	if !entry.ContextSent && entry.Context != "" {
		outbound = entry.Context + "\n\n" + text
		entry.ContextSent = true
		if err := s.cache.Set(ctx, userID, entry); err != nil {
			// The worst case is re-sending the context on the next turn.
			log.Warn("failed to mark context as sent", zap.Error(err))
		}
	}

	var reply strings.Builder
	err = s.runner.StreamReply(ctx, sessionID, userID, outbound, func(fragment string) {
		reply.WriteString(fragment)
	})
	if err != nil {
		log.Error("runner reply failed", zap.Error(err))
		return "", fmt.Errorf("generate reply: %w", err)
	}

	log.Info("chat reply completed", zap.Int("reply_len", reply.Len()))

	s.tasks.Go(tasks.Task{
		Name: "intake-merge",
		Run: func(taskCtx context.Context) error {
			_, err := s.intake.ExtractAndMerge(taskCtx, sessionID, userID, text)
			return err
		},
	})

	return reply.String(), nil
}

// EndSession drops the user's registry entry. The sessionId stops being
// valid; the runner-side conversation is simply abandoned.
func (s *Service) EndSession(ctx context.Context, userID domain.UserID) error {
	return s.cache.Evict(ctx, userID)
}
