package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	authapp "github.com/havenline/outreach-api/internal/app/auth"
	"github.com/havenline/outreach-api/internal/app/calls"
	"github.com/havenline/outreach-api/internal/app/chat"
	"github.com/havenline/outreach-api/internal/app/intake"
	"github.com/havenline/outreach-api/internal/app/profiles"
	"github.com/havenline/outreach-api/internal/domain"
)

type Server struct {
	chat     *chat.Service
	intake   *intake.Service
	calls    *calls.Service
	profiles *profiles.Service
	auth     *authapp.Service
	flow     *RedirectEndpoints
}

// RedirectEndpoints bundles what the /auth/google/login and /callback
// handlers need. Optional: when nil the redirect endpoints answer 404 and
// only the token path works.
type RedirectEndpoints struct {
	LoginURL func(state string) string
	Exchange func(r *http.Request, code string) (string, error)
}

func NewServer(
	chatSvc *chat.Service,
	intakeSvc *intake.Service,
	callsSvc *calls.Service,
	profilesSvc *profiles.Service,
	authSvc *authapp.Service,
	flow *RedirectEndpoints,
) http.Handler {
	s := &Server{
		chat:     chatSvc,
		intake:   intakeSvc,
		calls:    callsSvc,
		profiles: profilesSvc,
		auth:     authSvc,
		flow:     flow,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /call → POST: initiate outbound call
	mux.HandleFunc("/call", s.handleCall)

	// /conversations        →  GET: list recent conversations
	// /conversations/save   → POST: save a conversation reference
	// /conversations/saved/{id} → DELETE
	mux.HandleFunc("/conversations", s.handleConversations)
	mux.HandleFunc("/conversations/save", s.handleSaveConversation)
	mux.HandleFunc("/conversations/saved/", s.handleSavedConversationWithID)

	// /conversation/{id}/transcript → GET
	mux.HandleFunc("/conversation/", s.handleConversationWithID)

	mux.HandleFunc("/chat/session", s.handleChatSession)
	mux.HandleFunc("/chat/message", s.handleChatMessage)

	// /intake/{sessionId} → GET: current intake record
	mux.HandleFunc("/intake/", s.handleIntakeWithID)

	mux.HandleFunc("/auth/google", s.handleAuthGoogle)
	mux.HandleFunc("/auth/google/login", s.handleAuthLogin)
	mux.HandleFunc("/auth/google/callback", s.handleAuthCallback)
	mux.HandleFunc("/auth/logout", s.handleLogout)

	// /profile            → POST: create
	// /profile/{uid}      → GET / PUT
	// /profile/{uid}/conversations → GET: saved references
	mux.HandleFunc("/profile", s.handleProfiles)
	mux.HandleFunc("/profile/", s.handleProfileWithID)

	return chainMiddlewares(mux, withLogging, withCORS, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type callRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

type callResponse struct {
	CallID         string `json:"callId"`
	ConversationID string `json:"conversationId"`
}

type conversationListResponse struct {
	Conversations []conversationSummaryResponse `json:"conversations"`
}

type conversationSummaryResponse struct {
	ConversationID string    `json:"conversation_id"`
	AgentID        string    `json:"agent_id"`
	StartTime      time.Time `json:"start_time"`
	Duration       int       `json:"duration"`
	MessageCount   int       `json:"message_count"`
	Status         string    `json:"status"`
}

type transcriptResponse struct {
	Transcript []transcriptTurnResponse   `json:"transcript"`
	Metadata   transcriptMetadataResponse `json:"metadata"`
}

type transcriptTurnResponse struct {
	Role      string `json:"role"`
	Message   string `json:"message"`
	Timestamp int    `json:"timestamp"`
}

type transcriptMetadataResponse struct {
	Duration int    `json:"duration"`
	AgentID  string `json:"agentId"`
}

type chatSessionRequest struct {
	UserID string `json:"userId,omitempty"`
}

type chatSessionResponse struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
}

type chatMessageRequest struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type chatMessageResponse struct {
	Reply string `json:"reply"`
}

type intakeResponse struct {
	SessionID       string         `json:"sessionId"`
	UserID          string         `json:"userId"`
	Fields          map[string]any `json:"fields"`
	ExtractedFields []string       `json:"extractedFields"`
	MissingFields   []string       `json:"missingFields"`
	Completeness    int            `json:"completeness"`
	Confidence      int            `json:"confidence"`
	LastUpdate      time.Time      `json:"lastUpdate"`
}

type authRequest struct {
	IDToken string `json:"idToken"`
}

type authResponse struct {
	Success   bool            `json:"success"`
	IsNewUser bool            `json:"isNewUser"`
	Profile   profileResponse `json:"profile"`
}

type logoutRequest struct {
	UserID string `json:"userId"`
}

type profileRequest struct {
	UID      string   `json:"uid,omitempty"`
	Email    string   `json:"email,omitempty"`
	Name     string   `json:"name,omitempty"`
	Picture  string   `json:"picture,omitempty"`
	Age      int      `json:"age,omitempty"`
	Pronouns string   `json:"pronouns,omitempty"`
	Location string   `json:"location,omitempty"`
	Needs    []string `json:"needs,omitempty"`
}

type profileResponse struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	Age       int       `json:"age,omitempty"`
	Pronouns  string    `json:"pronouns,omitempty"`
	Location  string    `json:"location,omitempty"`
	Needs     []string  `json:"needs,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type saveConversationRequest struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
	Title          string `json:"title,omitempty"`
}

type savedConversationResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	ConversationID string    `json:"conversationId"`
	Title          string    `json:"title"`
	SavedAt        time.Time `json:"savedAt"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.PhoneNumber == "" {
		badRequest(w, "phoneNumber is required")
		return
	}

	info, err := s.calls.InitiateCall(r.Context(), req.PhoneNumber)
	if err != nil {
		if errors.Is(err, calls.ErrInvalidPhone) {
			badRequest(w, calls.ErrInvalidPhone.Error())
			return
		}
		upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, callResponse{
		CallID:         string(info.CallID),
		ConversationID: string(info.ConversationID),
	})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	list, err := s.calls.ListConversations(r.Context())
	if err != nil {
		upstreamError(w, err)
		return
	}

	out := conversationListResponse{
		Conversations: make([]conversationSummaryResponse, 0, len(list)),
	}
	for _, c := range list {
		out.Conversations = append(out.Conversations, conversationSummaryResponse{
			ConversationID: string(c.ConversationID),
			AgentID:        c.AgentID,
			StartTime:      c.StartTime,
			Duration:       c.Duration,
			MessageCount:   c.MessageCount,
			Status:         c.Status,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

// /conversation/{id}/transcript
func (s *Server) handleConversationWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/conversation/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[0] == "" || parts[1] != "transcript" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	t, err := s.calls.GetTranscript(r.Context(), domain.ConversationID(parts[0]))
	if err != nil {
		upstreamError(w, err)
		return
	}

	resp := transcriptResponse{
		Transcript: make([]transcriptTurnResponse, 0, len(t.Turns)),
		Metadata: transcriptMetadataResponse{
			Duration: t.Metadata.Duration,
			AgentID:  t.Metadata.AgentID,
		},
	}
	for _, turn := range t.Turns {
		resp.Transcript = append(resp.Transcript, transcriptTurnResponse{
			Role:      string(turn.Role),
			Message:   turn.Message,
			Timestamp: turn.TimeInCall,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChatSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	// Empty body is fine: a fresh anonymous user.
	var req chatSessionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	out, err := s.chat.StartSession(r.Context(), domain.UserID(req.UserID))
	if err != nil {
		upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatSessionResponse{
		UserID:    string(out.UserID),
		SessionID: string(out.SessionID),
	})
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req chatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.SessionID == "" {
		badRequest(w, "userId and sessionId are required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(w, "message is required")
		return
	}

	reply, err := s.chat.SendMessage(
		r.Context(),
		domain.UserID(req.UserID),
		domain.SessionID(req.SessionID),
		req.Message,
	)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSession) {
			badRequest(w, "invalid session")
			return
		}
		upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatMessageResponse{Reply: reply})
}

// /intake/{sessionId}
func (s *Server) handleIntakeWithID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/intake/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	rec, err := s.intake.GetRecord(r.Context(), domain.SessionID(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, intakeResponse{
		SessionID:       string(rec.SessionID),
		UserID:          string(rec.UserID),
		Fields:          rec.Fields,
		ExtractedFields: rec.ExtractedFields,
		MissingFields:   rec.MissingFields,
		Completeness:    rec.Completeness,
		Confidence:      rec.Confidence,
		LastUpdate:      rec.LastUpdate,
	})
}

func (s *Server) handleAuthGoogle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.IDToken == "" {
		badRequest(w, "Missing idToken")
		return
	}

	result, err := s.auth.LoginWithIDToken(r.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, authapp.ErrInvalidToken) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid idToken"})
			return
		}
		upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success:   true,
		IsNewUser: result.IsNewUser,
		Profile:   toProfileResponse(result.Profile),
	})
}

func (s *Server) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	if s.flow == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	state := r.URL.Query().Get("state")
	http.Redirect(w, r, s.flow.LoginURL(state), http.StatusFound)
}

func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.flow == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		badRequest(w, "missing code")
		return
	}

	idToken, err := s.flow.Exchange(r, code)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "code exchange failed"})
		return
	}

	result, err := s.auth.LoginWithIDToken(r.Context(), idToken)
	if err != nil {
		if errors.Is(err, authapp.ErrInvalidToken) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid idToken"})
			return
		}
		upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success:   true,
		IsNewUser: result.IsNewUser,
		Profile:   toProfileResponse(result.Profile),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		badRequest(w, "userId is required")
		return
	}

	if err := s.auth.Logout(r.Context(), domain.UserID(req.UserID)); err != nil {
		upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	p, err := s.profiles.CreateProfile(r.Context(), fromProfileRequest(&req))
	if err != nil {
		upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProfileResponse(p))
}

// /profile/{uid} or /profile/{uid}/conversations
func (s *Server) handleProfileWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/profile/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	uid := domain.UserID(parts[0])
	if uid == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleGetProfile(w, r, uid)
		case http.MethodPut:
			s.handleUpdateProfile(w, r, uid)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 && parts[1] == "conversations" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleListSavedConversations(w, r, uid)
		return
	}

	http.NotFound(w, r)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, uid domain.UserID) {
	p, err := s.profiles.GetProfile(r.Context(), uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, uid domain.UserID) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	p := fromProfileRequest(&req)
	p.UID = uid

	updated, err := s.profiles.UpdateProfile(r.Context(), p)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(updated))
}

func (s *Server) handleSaveConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req saveConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.ConversationID == "" {
		badRequest(w, "userId and conversationId are required")
		return
	}

	ref, err := s.profiles.SaveConversation(
		r.Context(),
		domain.UserID(req.UserID),
		domain.ConversationID(req.ConversationID),
		req.Title,
	)
	if err != nil {
		upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSavedConversationResponse(ref))
}

func (s *Server) handleListSavedConversations(w http.ResponseWriter, r *http.Request, uid domain.UserID) {
	list, err := s.profiles.ListSavedConversations(r.Context(), uid, 0)
	if err != nil {
		upstreamError(w, err)
		return
	}

	out := make([]savedConversationResponse, 0, len(list))
	for _, ref := range list {
		out = append(out, toSavedConversationResponse(ref))
	}

	writeJSON(w, http.StatusOK, map[string]any{"conversations": out})
}

// /conversations/saved/{id}
func (s *Server) handleSavedConversationWithID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/conversations/saved/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}

	if err := s.profiles.DeleteSavedConversation(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		upstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ─────────────────────────────────────────────
// Response helpers
// ─────────────────────────────────────────────

func toProfileResponse(p *domain.Profile) profileResponse {
	return profileResponse{
		UID:       string(p.UID),
		Email:     p.Email,
		Name:      p.Name,
		Picture:   p.Picture,
		Age:       p.Age,
		Pronouns:  p.Pronouns,
		Location:  p.Location,
		Needs:     p.Needs,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func fromProfileRequest(req *profileRequest) *domain.Profile {
	return &domain.Profile{
		UID:      domain.UserID(req.UID),
		Email:    req.Email,
		Name:     req.Name,
		Picture:  req.Picture,
		Age:      req.Age,
		Pronouns: req.Pronouns,
		Location: req.Location,
		Needs:    req.Needs,
	}
}

func toSavedConversationResponse(c *domain.SavedConversation) savedConversationResponse {
	return savedConversationResponse{
		ID:             c.ID,
		UserID:         string(c.UserID),
		ConversationID: string(c.ConversationID),
		Title:          c.Title,
		SavedAt:        c.SavedAt,
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

// upstreamError surfaces provider failures as 500 with the upstream message
// attached so callers can see what broke.
func upstreamError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": err.Error(),
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
