package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/leaflogic/leaflogic/internal/transport"
)

const defaultAssistantsBaseURL = "https://api.openai.com/v1"

// AssistantsAPI implements Gateway against the hosted assistants REST API
// (threads, messages, and runs endpoints).
type AssistantsAPI struct {
	httpClient *http.Client
	baseURL    string
}

// NewAssistantsAPI creates a gateway authenticated with the given API key.
// Requests are sent with a bearer token and retried on rate limiting.
func NewAssistantsAPI(ctx context.Context, apiKey string) *AssistantsAPI {
	base := &http.Client{
		Transport: transport.WithRateLimitRetries(nil),
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey})
	return &AssistantsAPI{
		httpClient: oauth2.NewClient(ctx, tokenSource),
		baseURL:    defaultAssistantsBaseURL,
	}
}

// Wire types for the subset of the assistants API this gateway touches

type apiThread struct {
	ID string `json:"id"`
}

type apiRun struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type apiMessageList struct {
	Data []apiMessage `json:"data"`
}

type apiMessage struct {
	ID      string           `json:"id"`
	Role    string           `json:"role"`
	Content []apiContentPart `json:"content"`
}

type apiContentPart struct {
	Type string `json:"type"`
	Text struct {
		Value string `json:"value"`
	} `json:"text"`
}

func (g *AssistantsAPI) CreateThread(ctx context.Context) (string, error) {
	var thread apiThread
	err := g.doJSON(ctx, http.MethodPost, "/threads", struct{}{}, &thread)
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	return thread.ID, nil
}

func (g *AssistantsAPI) AppendMessage(ctx context.Context, threadID string, text string) error {
	body := map[string]string{
		"role":    RoleUser,
		"content": text,
	}
	err := g.doJSON(ctx, http.MethodPost, fmt.Sprintf("/threads/%s/messages", threadID), body, nil)
	if err != nil {
		return fmt.Errorf("failed to append message to thread %s: %w", threadID, err)
	}
	return nil
}

func (g *AssistantsAPI) CreateRun(ctx context.Context, threadID string, assistantID string) (string, error) {
	body := map[string]string{
		"assistant_id": assistantID,
	}
	var run apiRun
	err := g.doJSON(ctx, http.MethodPost, fmt.Sprintf("/threads/%s/runs", threadID), body, &run)
	if err != nil {
		return "", fmt.Errorf("failed to create run on thread %s: %w", threadID, err)
	}
	return run.ID, nil
}

func (g *AssistantsAPI) PollRun(ctx context.Context, threadID string, runID string) (RunStatus, error) {
	var run apiRun
	err := g.doJSON(ctx, http.MethodGet, fmt.Sprintf("/threads/%s/runs/%s", threadID, runID), nil, &run)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve run %s: %w", runID, err)
	}
	return RunStatus(run.Status), nil
}

func (g *AssistantsAPI) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	var list apiMessageList
	err := g.doJSON(ctx, http.MethodGet, fmt.Sprintf("/threads/%s/messages", threadID), nil, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for thread %s: %w", threadID, err)
	}

	// The API returns messages newest first; preserve that order
	messages := make([]Message, 0, len(list.Data))
	for _, m := range list.Data {
		msg := Message{ID: m.ID, Role: m.Role}
		for _, part := range m.Content {
			if part.Type == "text" {
				msg.Parts = append(msg.Parts, part.Text.Value)
			}
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (g *AssistantsAPI) doJSON(ctx context.Context, method string, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, string(detail))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
