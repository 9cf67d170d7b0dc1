package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/havenline/outreach-api/internal/config"
	"github.com/havenline/outreach-api/internal/domain"
)

// GeminiClient implements domain.AgentRunner and domain.FieldExtractor on
// Vertex AI (Gemini). Conversation state is held here as live chat handles,
// one per session; losing the process loses the sessions, which matches the
// registry's volatility contract.
type GeminiClient struct {
	client          *genai.Client
	modelName       string
	extractionModel string

	mu    sync.Mutex
	chats map[domain.SessionID]*genai.Chat
}

// NewGeminiClient creates a Vertex-backed client from config.
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	if cfg.GCPProjectID == "" || cfg.GCPLocation == "" {
		return nil, fmt.Errorf("gcp_project and gcp_location must be set for the Gemini client")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  cfg.GCPProjectID,
		Location: cfg.GCPLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Vertex AI client: %w", err)
	}

	return &GeminiClient{
		client:          client,
		modelName:       cfg.ModelName,
		extractionModel: cfg.ExtractionModel,
		chats:           make(map[domain.SessionID]*genai.Chat),
	}, nil
}

// CreateSession opens a chat seeded with the identity prompt plus the
// caller's context string, with web search enabled as a tool.
func (g *GeminiClient) CreateSession(
	ctx context.Context,
	userID domain.UserID,
	contextSeed string,
) (domain.SessionID, error) {

	temp := float32(0.7)
	topP := float32(0.9)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(BuildSystemPrompt(contextSeed), genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   2048,
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	chat, err := g.client.Chats.Create(ctx, g.modelName, cfg, nil)
	if err != nil {
		return "", fmt.Errorf("create chat session: %w", err)
	}

	sessionID := domain.SessionID(uuid.NewString())

	g.mu.Lock()
	g.chats[sessionID] = chat
	g.mu.Unlock()

	return sessionID, nil
}

// StreamReply sends one message on the session's chat and forwards each
// streamed text fragment.
func (g *GeminiClient) StreamReply(
	ctx context.Context,
	sessionID domain.SessionID,
	userID domain.UserID,
	message string,
	onFragment func(string),
) error {

	g.mu.Lock()
	chat, ok := g.chats[sessionID]
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("no live chat for session %s", sessionID)
	}

	for resp, err := range chat.SendMessageStream(ctx, genai.Part{Text: message}) {
		if err != nil {
			return fmt.Errorf("gemini stream: %w", err)
		}
		if text := resp.Text(); text != "" {
			onFragment(text)
		}
	}
	return nil
}

// ExtractFields runs the strict-JSON extraction prompt against the smaller
// extraction model. The raw output is returned undecoded: the prompt asks
// for JSON but nothing constrains the model to produce it.
func (g *GeminiClient) ExtractFields(ctx context.Context, utterance string) (string, error) {
	temp := float32(0.1)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: 512,
	}

	res, err := g.client.Models.GenerateContent(
		ctx,
		g.extractionModel,
		genai.Text(BuildExtractionPrompt(utterance)),
		cfg,
	)
	if err != nil {
		return "", fmt.Errorf("gemini extraction: %w", err)
	}

	return res.Text(), nil
}
