// Package client implements the conversation session front ends use to talk to
// the relay server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/leaflogic/leaflogic/internal/plantcontext"
)

// TransportError reports a non-success HTTP status from the relay. The caller
// decides whether to retry; the session never retries on its own.
type TransportError struct {
	StatusCode int
	Status     string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("assistant relay returned %s", e.Status)
}

// ContextProvider supplies a plant collection snapshot for outgoing messages
type ContextProvider interface {
	Snapshot(ctx context.Context) plantcontext.Snapshot
}

// Session is one conversation with the assistant. It tracks at most one active
// thread ID; starting a new thread replaces, never merges with, the previous
// one. A Session is not safe for concurrent use.
type Session struct {
	baseURL         string
	httpClient      *http.Client
	contextProvider ContextProvider // May be nil

	currentThreadID string
}

// NewSession creates a session against the relay at baseURL. The provider may
// be nil, in which case messages are sent without plant context.
func NewSession(baseURL string, provider ContextProvider) *Session {
	return &Session{
		baseURL:         baseURL,
		httpClient:      &http.Client{},
		contextProvider: provider,
	}
}

type askRequest struct {
	Message      string                 `json:"message"`
	PlantContext *plantcontext.Snapshot `json:"plantContext,omitempty"`
	ThreadID     string                 `json:"threadId,omitempty"`
}

type askResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"threadId"`
}

type createThreadResponse struct {
	ThreadID string `json:"threadId"`
	Message  string `json:"message"`
}

// SendMessage sends a message on the session's thread and returns the reply
// text. After a successful call the session holds the thread ID the relay
// echoed, so the next message continues the same conversation.
func (s *Session) SendMessage(ctx context.Context, text string) (string, error) {
	req := askRequest{
		Message:  text,
		ThreadID: s.currentThreadID,
	}
	// Context acquisition is best-effort and fails closed inside the provider,
	// so it can never abort sending
	if s.contextProvider != nil {
		snapshot := s.contextProvider.Snapshot(ctx)
		req.PlantContext = &snapshot
	}

	var resp askResponse
	if err := s.postJSON(ctx, "/ask-assistant", req, &resp); err != nil {
		return "", err
	}

	if resp.ThreadID != "" {
		s.currentThreadID = resp.ThreadID
	}
	return resp.Response, nil
}

// StartNewThread asks the relay for a fresh thread, bypassing reuse, and makes
// it the session's current thread.
func (s *Session) StartNewThread(ctx context.Context) (string, error) {
	var resp createThreadResponse
	if err := s.postJSON(ctx, "/create-thread", nil, &resp); err != nil {
		return "", err
	}
	s.currentThreadID = resp.ThreadID
	return resp.ThreadID, nil
}

// ResetConversation forgets the current thread. Purely local, cannot fail.
func (s *Session) ResetConversation() {
	s.currentThreadID = ""
}

// ThreadID returns the session's current thread ID, or empty if none
func (s *Session) ThreadID() string {
	return s.currentThreadID
}

func (s *Session) postJSON(ctx context.Context, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
