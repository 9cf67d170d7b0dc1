package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	authadapter "github.com/havenline/outreach-api/internal/adapters/auth"
	httpadapter "github.com/havenline/outreach-api/internal/adapters/http"
	"github.com/havenline/outreach-api/internal/adapters/llm"
	firestorestore "github.com/havenline/outreach-api/internal/adapters/storage/firestore"
	memstore "github.com/havenline/outreach-api/internal/adapters/storage/memory"
	redisstore "github.com/havenline/outreach-api/internal/adapters/storage/redis"
	"github.com/havenline/outreach-api/internal/adapters/voice/elevenlabs"
	authapp "github.com/havenline/outreach-api/internal/app/auth"
	"github.com/havenline/outreach-api/internal/app/calls"
	"github.com/havenline/outreach-api/internal/app/chat"
	"github.com/havenline/outreach-api/internal/app/intake"
	"github.com/havenline/outreach-api/internal/app/profiles"
	"github.com/havenline/outreach-api/internal/app/tasks"
	"github.com/havenline/outreach-api/internal/config"
	"github.com/havenline/outreach-api/internal/domain"
	"github.com/havenline/outreach-api/internal/observability"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	observability.Init(cfg.LogLevel, cfg.LogFormat)
	log := observability.Logger()

	// LLM: mock or Vertex (useful for dev)
	var agent interface {
		domain.AgentRunner
		domain.FieldExtractor
	}
	if cfg.UseMockLLM {
		log.Info("using mock agent runner")
		agent = llm.NewMockAgent()
	} else {
		log.Info("using Vertex agent runner",
			zap.String("project", cfg.GCPProjectID),
			zap.String("model", cfg.ModelName))
		gemini, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatal("initializing Vertex client", zap.Error(err))
		}
		agent = gemini
	}

	// Storage: Firestore or Memory
	var (
		profileStore      domain.ProfileStore
		intakeStore       domain.IntakeStore
		conversationStore domain.ConversationStore
	)
	switch cfg.StorageBackend {
	case "firestore":
		log.Info("using Firestore storage", zap.String("project", cfg.GCPProjectID))
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatal("initializing Firestore store", zap.Error(err))
		}
		defer fsStore.Close()

		// 1 store, implements 3 interfaces
		profileStore = fsStore
		intakeStore = fsStore
		conversationStore = fsStore

	default:
		log.Info("using in-memory storage")
		profileStore = memstore.NewProfileStore()
		intakeStore = memstore.NewIntakeStore()
		conversationStore = memstore.NewConversationStore()
	}

	// Session cache: Redis or Memory
	var sessionCache domain.SessionCache
	if cfg.SessionCacheBackend == "redis" {
		log.Info("using Redis session cache", zap.String("address", cfg.Redis.Address))
		rdb := redisstore.NewClient(cfg.Redis)
		defer rdb.Close()
		sessionCache = redisstore.NewSessionCache(rdb, 0)
	} else {
		log.Info("using in-memory session cache")
		sessionCache = memstore.NewSessionCache()
	}

	runner := tasks.NewRunner(0)
	runner.Start(1)
	defer runner.Shutdown()

	// Drain the completion stream so task results always end up consumed.
	go func() {
		for range runner.Results() {
		}
	}()

	voice := elevenlabs.NewClient(cfg.ElevenLabs)

	intakeSvc := intake.NewService(agent, intakeStore)
	chatSvc := chat.NewService(agent, sessionCache, profileStore, intakeSvc, runner)
	callsSvc := calls.NewService(voice, voice)
	profilesSvc := profiles.NewService(profileStore, conversationStore)
	authSvc := authapp.NewService(
		authadapter.NewGoogleVerifier(cfg.Google.ClientID),
		profileStore,
		sessionCache,
	)

	var flow *httpadapter.RedirectEndpoints
	if cfg.Google.ClientID != "" && cfg.Google.ClientSecret != "" {
		redirect := authadapter.NewRedirectFlow(cfg.Google)
		flow = &httpadapter.RedirectEndpoints{
			LoginURL: redirect.LoginURL,
			Exchange: func(r *http.Request, code string) (string, error) {
				return redirect.Exchange(r.Context(), code)
			},
		}
	}

	handler := httpadapter.NewServer(chatSvc, intakeSvc, callsSvc, profilesSvc, authSvc, flow)

	addr := ":" + cfg.Port
	log.Info("outreach API listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
