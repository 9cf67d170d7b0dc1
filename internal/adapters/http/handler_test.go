package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/havenline/outreach-api/internal/adapters/http"
	"github.com/havenline/outreach-api/internal/adapters/llm"
	"github.com/havenline/outreach-api/internal/adapters/storage/memory"
	authapp "github.com/havenline/outreach-api/internal/app/auth"
	"github.com/havenline/outreach-api/internal/app/calls"
	"github.com/havenline/outreach-api/internal/app/chat"
	"github.com/havenline/outreach-api/internal/app/intake"
	"github.com/havenline/outreach-api/internal/app/profiles"
	"github.com/havenline/outreach-api/internal/app/tasks"
	"github.com/havenline/outreach-api/internal/domain"
)

type stubDialer struct {
	info *domain.CallInfo
	err  error
}

func (d stubDialer) Dial(context.Context, string) (*domain.CallInfo, error) {
	return d.info, d.err
}

type stubTranscripts struct {
	transcript *domain.Transcript
	summaries  []domain.ConversationSummary
	err        error
}

func (p stubTranscripts) GetTranscript(context.Context, domain.ConversationID) (*domain.Transcript, error) {
	return p.transcript, p.err
}

func (p stubTranscripts) ListConversations(context.Context) ([]domain.ConversationSummary, error) {
	return p.summaries, p.err
}

type stubVerifier struct {
	identity *domain.Identity
	err      error
}

func (v stubVerifier) Verify(context.Context, string) (*domain.Identity, error) {
	return v.identity, v.err
}

type serverFixture struct {
	handler  http.Handler
	dialer   *stubDialer
	voice    *stubTranscripts
	verifier *stubVerifier
	agent    *llm.MockAgent
}

func newTestServer(t *testing.T) *serverFixture {
	t.Helper()

	agent := llm.NewMockAgent()
	sessionCache := memory.NewSessionCache()
	profileStore := memory.NewProfileStore()
	conversationStore := memory.NewConversationStore()
	intakeStore := memory.NewIntakeStore()

	runner := tasks.NewRunner(8)
	runner.Start(1)
	t.Cleanup(runner.Shutdown)

	dialer := &stubDialer{info: &domain.CallInfo{CallID: "CA1", ConversationID: "conv-1"}}
	voice := &stubTranscripts{}
	verifier := &stubVerifier{identity: &domain.Identity{
		Subject: "google-sub-1",
		Email:   "alex@example.com",
		Name:    "Alex",
	}}

	intakeSvc := intake.NewService(agent, intakeStore)
	chatSvc := chat.NewService(agent, sessionCache, profileStore, intakeSvc, runner)
	callsSvc := calls.NewService(dialer, voice)
	profilesSvc := profiles.NewService(profileStore, conversationStore)
	authSvc := authapp.NewService(verifier, profileStore, sessionCache)

	return &serverFixture{
		handler:  httpadapter.NewServer(chatSvc, intakeSvc, callsSvc, profilesSvc, authSvc, nil),
		dialer:   dialer,
		voice:    voice,
		verifier: verifier,
		agent:    agent,
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodGet, "/healthz", nil)
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id on the response")
	}
}

func TestChatSessionAndMessageFlow(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodPost, "/chat/session", map[string]string{})
	if w.Code != http.StatusOK {
		t.Fatalf("start session: expected 200, got %d: %s", w.Code, w.Body)
	}

	var session struct {
		UserID    string `json:"userId"`
		SessionID string `json:"sessionId"`
	}
	decodeBody(t, w, &session)
	if session.UserID == "" || session.SessionID == "" {
		t.Fatalf("expected generated ids, got %+v", session)
	}

	w = doJSON(t, fx.handler, http.MethodPost, "/chat/message", map[string]string{
		"userId":    session.UserID,
		"sessionId": session.SessionID,
		"message":   "hi, I need somewhere to sleep tonight",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("send message: expected 200, got %d: %s", w.Code, w.Body)
	}

	var msg struct {
		Reply string `json:"reply"`
	}
	decodeBody(t, w, &msg)
	if msg.Reply == "" {
		t.Fatal("expected a non-empty reply")
	}
}

func TestChatMessageInvalidSession(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodPost, "/chat/message", map[string]string{
		"userId":    "nobody",
		"sessionId": "stale",
		"message":   "hello?",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body)
	}

	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, w, &body)
	if body.Error != "invalid session" {
		t.Fatalf("expected invalid session error, got %q", body.Error)
	}
}

func TestChatMessageMissingFields(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodPost, "/chat/message", map[string]string{
		"userId": "u1",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCallEndpoint(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodPost, "/call", map[string]string{
		"phoneNumber": "+15551234567",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	var resp struct {
		CallID         string `json:"callId"`
		ConversationID string `json:"conversationId"`
	}
	decodeBody(t, w, &resp)
	if resp.CallID != "CA1" || resp.ConversationID != "conv-1" {
		t.Fatalf("unexpected call response: %+v", resp)
	}
}

func TestCallEndpointRejectsBadNumber(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodPost, "/call", map[string]string{
		"phoneNumber": "555-1234",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCallEndpointUpstreamFailure(t *testing.T) {
	fx := newTestServer(t)
	fx.dialer.info = nil
	fx.dialer.err = errors.New("provider down")

	w := doJSON(t, fx.handler, http.MethodPost, "/call", map[string]string{
		"phoneNumber": "+15551234567",
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestTranscriptEndpoint(t *testing.T) {
	fx := newTestServer(t)
	fx.voice.transcript = &domain.Transcript{
		ConversationID: "conv-1",
		Turns: []domain.TranscriptTurn{
			{Role: domain.RoleAgent, Message: "Hi, this is Haven.", TimeInCall: 0},
			{Role: domain.RoleUser, Message: "Hey.", TimeInCall: 3},
		},
		Metadata: domain.TranscriptMetadata{AgentID: "agent-1", Duration: 42},
	}

	w := doJSON(t, fx.handler, http.MethodGet, "/conversation/conv-1/transcript", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	var resp struct {
		Transcript []struct {
			Role      string `json:"role"`
			Message   string `json:"message"`
			Timestamp int    `json:"timestamp"`
		} `json:"transcript"`
		Metadata struct {
			Duration int    `json:"duration"`
			AgentID  string `json:"agentId"`
		} `json:"metadata"`
	}
	decodeBody(t, w, &resp)

	if len(resp.Transcript) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(resp.Transcript))
	}
	if resp.Transcript[0].Role != "agent" || resp.Transcript[1].Timestamp != 3 {
		t.Fatalf("unexpected transcript: %+v", resp.Transcript)
	}
	if resp.Metadata.Duration != 42 || resp.Metadata.AgentID != "agent-1" {
		t.Fatalf("unexpected metadata: %+v", resp.Metadata)
	}
}

func TestTranscriptEndpointBadPath(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodGet, "/conversation/conv-1", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAuthGoogleMissingToken(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodPost, "/auth/google", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, w, &body)
	if body.Error != "Missing idToken" {
		t.Fatalf("expected Missing idToken, got %q", body.Error)
	}
}

func TestAuthGoogleInvalidToken(t *testing.T) {
	fx := newTestServer(t)
	fx.verifier.identity = nil
	fx.verifier.err = errors.New("signature mismatch")

	w := doJSON(t, fx.handler, http.MethodPost, "/auth/google", map[string]string{
		"idToken": "garbage",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthGoogleNewUser(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodPost, "/auth/google", map[string]string{
		"idToken": "a.b.c",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	var resp struct {
		Success   bool `json:"success"`
		IsNewUser bool `json:"isNewUser"`
		Profile   struct {
			UID   string `json:"uid"`
			Email string `json:"email"`
		} `json:"profile"`
	}
	decodeBody(t, w, &resp)

	if !resp.Success || !resp.IsNewUser {
		t.Fatalf("expected new-user login, got %+v", resp)
	}
	if resp.Profile.UID != "google-sub-1" || resp.Profile.Email != "alex@example.com" {
		t.Fatalf("unexpected profile: %+v", resp.Profile)
	}

	// Second login with the same subject is not a new user anymore.
	w = doJSON(t, fx.handler, http.MethodPost, "/auth/google", map[string]string{
		"idToken": "a.b.c",
	})
	decodeBody(t, w, &resp)
	if resp.IsNewUser {
		t.Fatal("second login should not report a new user")
	}
}

func TestAuthRedirectEndpointsDisabled(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodGet, "/auth/google/login", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when redirect flow is not configured, got %d", w.Code)
	}
}

func TestProfileLifecycle(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodPost, "/profile", map[string]any{
		"name":     "Alex",
		"age":      19,
		"pronouns": "they/them",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body)
	}

	var created struct {
		UID  string `json:"uid"`
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	decodeBody(t, w, &created)
	if created.UID == "" || created.Name != "Alex" {
		t.Fatalf("unexpected created profile: %+v", created)
	}

	w = doJSON(t, fx.handler, http.MethodGet, "/profile/"+created.UID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}

	w = doJSON(t, fx.handler, http.MethodPut, "/profile/"+created.UID, map[string]any{
		"name":     "Alex",
		"location": "Portland",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body)
	}

	var updated struct {
		Location string `json:"location"`
	}
	decodeBody(t, w, &updated)
	if updated.Location != "Portland" {
		t.Fatalf("expected updated location, got %+v", updated)
	}
}

func TestProfileNotFound(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodGet, "/profile/nobody", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSavedConversationFlow(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodPost, "/conversations/save", map[string]string{
		"userId":         "user-1",
		"conversationId": "conv-1",
		"title":          "first call",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("save: expected 201, got %d: %s", w.Code, w.Body)
	}

	var saved struct {
		ID string `json:"id"`
	}
	decodeBody(t, w, &saved)
	if saved.ID == "" {
		t.Fatal("expected a generated reference id")
	}

	w = doJSON(t, fx.handler, http.MethodGet, "/profile/user-1/conversations", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}

	var list struct {
		Conversations []struct {
			ID             string `json:"id"`
			ConversationID string `json:"conversationId"`
		} `json:"conversations"`
	}
	decodeBody(t, w, &list)
	if len(list.Conversations) != 1 || list.Conversations[0].ConversationID != "conv-1" {
		t.Fatalf("unexpected listing: %+v", list.Conversations)
	}

	w = doJSON(t, fx.handler, http.MethodDelete, "/conversations/saved/"+saved.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}

	w = doJSON(t, fx.handler, http.MethodDelete, "/conversations/saved/"+saved.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	fx := newTestServer(t)

	w := doJSON(t, fx.handler, http.MethodGet, "/call", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
