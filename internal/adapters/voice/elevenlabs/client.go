package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/havenline/outreach-api/internal/config"
	"github.com/havenline/outreach-api/internal/domain"
)

// Client talks to the ElevenLabs Conversational AI REST API. It implements
// domain.Dialer and domain.TranscriptProvider.
type Client struct {
	baseURL            string
	apiKey             string
	agentID            string
	agentPhoneNumberID string

	httpClient *http.Client
}

func NewClient(cfg config.ElevenLabsConfig) *Client {
	return &Client{
		baseURL:            cfg.BaseURL,
		apiKey:             cfg.APIKey,
		agentID:            cfg.AgentID,
		agentPhoneNumberID: cfg.AgentPhoneNumberID,
		httpClient:         &http.Client{Timeout: 30 * time.Second},
	}
}

type outboundCallRequest struct {
	AgentID            string `json:"agent_id"`
	AgentPhoneNumberID string `json:"agent_phone_number_id"`
	ToNumber           string `json:"to_number"`
}

type outboundCallResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	CallSID        string `json:"callSid"`
}

// Dial starts an outbound call through the agent's Twilio number.
func (c *Client) Dial(ctx context.Context, destination string) (*domain.CallInfo, error) {
	body := outboundCallRequest{
		AgentID:            c.agentID,
		AgentPhoneNumberID: c.agentPhoneNumberID,
		ToNumber:           destination,
	}

	var resp outboundCallResponse
	if err := c.do(ctx, http.MethodPost, "/v1/convai/twilio/outbound-call", nil, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("elevenlabs outbound call rejected: %s", resp.Message)
	}

	return &domain.CallInfo{
		CallID:         domain.CallID(resp.CallSID),
		ConversationID: domain.ConversationID(resp.ConversationID),
	}, nil
}

type conversationDetailResponse struct {
	AgentID    string `json:"agent_id"`
	Transcript []struct {
		Role           string `json:"role"`
		Message        string `json:"message"`
		TimeInCallSecs int    `json:"time_in_call_secs"`
	} `json:"transcript"`
	Metadata struct {
		CallDurationSecs int `json:"call_duration_secs"`
	} `json:"metadata"`
}

// GetTranscript fetches the transcript and metadata of one conversation.
func (c *Client) GetTranscript(ctx context.Context, id domain.ConversationID) (*domain.Transcript, error) {
	var resp conversationDetailResponse
	path := "/v1/convai/conversations/" + url.PathEscape(string(id))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}

	turns := make([]domain.TranscriptTurn, 0, len(resp.Transcript))
	for _, t := range resp.Transcript {
		turns = append(turns, domain.TranscriptTurn{
			Role:       domain.Role(t.Role),
			Message:    t.Message,
			TimeInCall: t.TimeInCallSecs,
		})
	}

	return &domain.Transcript{
		ConversationID: id,
		Turns:          turns,
		Metadata: domain.TranscriptMetadata{
			AgentID:  resp.AgentID,
			Duration: resp.Metadata.CallDurationSecs,
		},
	}, nil
}

type conversationListResponse struct {
	Conversations []struct {
		ConversationID    string `json:"conversation_id"`
		AgentID           string `json:"agent_id"`
		StartTimeUnixSecs int64  `json:"start_time_unix_secs"`
		CallDurationSecs  int    `json:"call_duration_secs"`
		MessageCount      int    `json:"message_count"`
		Status            string `json:"status"`
	} `json:"conversations"`
}

// ListConversations lists recent conversations for the configured agent.
func (c *Client) ListConversations(ctx context.Context) ([]domain.ConversationSummary, error) {
	q := url.Values{}
	if c.agentID != "" {
		q.Set("agent_id", c.agentID)
	}

	var resp conversationListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/convai/conversations", q, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]domain.ConversationSummary, 0, len(resp.Conversations))
	for _, conv := range resp.Conversations {
		out = append(out, domain.ConversationSummary{
			ConversationID: domain.ConversationID(conv.ConversationID),
			AgentID:        conv.AgentID,
			StartTime:      time.Unix(conv.StartTimeUnixSecs, 0).UTC(),
			Duration:       conv.CallDurationSecs,
			MessageCount:   conv.MessageCount,
			Status:         conv.Status,
		})
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("elevenlabs read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("elevenlabs %s %s: %s: %s", method, path, resp.Status, bytes.TrimSpace(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("elevenlabs decode response: %w", err)
		}
	}
	return nil
}
