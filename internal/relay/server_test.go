package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflogic/leaflogic/internal/assistant"
	"github.com/leaflogic/leaflogic/internal/plantcontext"
)

// fakeGateway is a scripted assistant.Gateway for handler tests
type fakeGateway struct {
	mu sync.Mutex

	createThreadErr error
	appendErr       error
	createRunErr    error

	// statusSequence is consumed one status per poll; when exhausted, the last
	// entry repeats
	statusSequence []assistant.RunStatus
	// replyMessages is returned from ListMessages
	replyMessages []assistant.Message

	threadsCreated int
	pollCount      int
	appended       []appendedMessage
}

type appendedMessage struct {
	threadID string
	text     string
}

func (g *fakeGateway) CreateThread(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createThreadErr != nil {
		return "", g.createThreadErr
	}
	g.threadsCreated++
	return fmt.Sprintf("t%d", g.threadsCreated), nil
}

func (g *fakeGateway) AppendMessage(ctx context.Context, threadID string, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.appendErr != nil {
		return g.appendErr
	}
	g.appended = append(g.appended, appendedMessage{threadID: threadID, text: text})
	return nil
}

func (g *fakeGateway) CreateRun(ctx context.Context, threadID string, assistantID string) (string, error) {
	if g.createRunErr != nil {
		return "", g.createRunErr
	}
	return "run_1", nil
}

func (g *fakeGateway) PollRun(ctx context.Context, threadID string, runID string) (assistant.RunStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pollCount++
	if len(g.statusSequence) == 0 {
		return assistant.RunCompleted, nil
	}
	status := g.statusSequence[0]
	if len(g.statusSequence) > 1 {
		g.statusSequence = g.statusSequence[1:]
	}
	return status, nil
}

func (g *fakeGateway) ListMessages(ctx context.Context, threadID string) ([]assistant.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.replyMessages, nil
}

func (g *fakeGateway) lastAppended(t *testing.T) appendedMessage {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.appended)
	return g.appended[len(g.appended)-1]
}

func assistantReply(text string) []assistant.Message {
	return []assistant.Message{
		{ID: "m2", Role: assistant.RoleAssistant, Parts: []string{text}},
		{ID: "m1", Role: assistant.RoleUser, Parts: []string{"question"}},
	}
}

func newTestServer(gateway assistant.Gateway) *Server {
	return NewServer(gateway, "asst_test", PollPolicy{
		Interval: time.Millisecond,
		Timeout:  time.Second,
	})
}

func postJSON(t *testing.T, server *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAskAssistant_MintsThreadWhenAbsent(t *testing.T) {
	gateway := &fakeGateway{replyMessages: assistantReply("hello")}
	server := newTestServer(gateway)

	rec := postJSON(t, server, "/ask-assistant", askRequest{Message: "hi"})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[askResponse](t, rec)
	assert.Equal(t, "t1", resp.ThreadID)
	assert.Equal(t, "hello", resp.Response)
	assert.Equal(t, 1, gateway.threadsCreated)
}

func TestAskAssistant_ReusesProvidedThread(t *testing.T) {
	gateway := &fakeGateway{replyMessages: assistantReply("hello")}
	server := newTestServer(gateway)

	rec := postJSON(t, server, "/ask-assistant", askRequest{Message: "hi", ThreadID: "t42"})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[askResponse](t, rec)
	assert.Equal(t, "t42", resp.ThreadID)
	assert.Equal(t, 0, gateway.threadsCreated)
	assert.Equal(t, "t42", gateway.lastAppended(t).threadID)
}

func TestAskAssistant_NoContextLeavesMessageUntouched(t *testing.T) {
	gateway := &fakeGateway{replyMessages: assistantReply("ok")}
	server := newTestServer(gateway)

	rec := postJSON(t, server, "/ask-assistant", askRequest{Message: "what is mulch?"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "what is mulch?", gateway.lastAppended(t).text)
}

func TestAskAssistant_EmptySnapshotLeavesMessageUntouched(t *testing.T) {
	gateway := &fakeGateway{replyMessages: assistantReply("ok")}
	server := newTestServer(gateway)

	rec := postJSON(t, server, "/ask-assistant", askRequest{
		Message:      "what is mulch?",
		PlantContext: &plantcontext.Snapshot{PlantCount: 0, Plants: []plantcontext.PlantSummary{}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "what is mulch?", gateway.lastAppended(t).text)
}

func TestAskAssistant_InjectsContext(t *testing.T) {
	gateway := &fakeGateway{replyMessages: assistantReply("ok")}
	server := newTestServer(gateway)

	snapshot := plantcontext.Snapshot{
		PlantCount: 2,
		Plants: []plantcontext.PlantSummary{
			{ID: "p1", Name: "Boston Fern", LastWatered: "Never", LastFertilized: "Never"},
			{ID: "p2", Name: "Snake Plant", LastWatered: "Never", LastFertilized: "Never"},
		},
	}
	rec := postJSON(t, server, "/ask-assistant", askRequest{
		Message:      "which of my plants needs water?",
		PlantContext: &snapshot,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	sent := gateway.lastAppended(t).text
	assert.Contains(t, sent, "which of my plants needs water?")
	assert.Contains(t, sent, "Boston Fern")
	assert.Contains(t, sent, "Snake Plant")
	assert.NotEqual(t, "which of my plants needs water?", sent)
}

func TestAskAssistant_FailedRunStillReturns200(t *testing.T) {
	gateway := &fakeGateway{
		statusSequence: []assistant.RunStatus{assistant.RunFailed},
	}
	server := newTestServer(gateway)

	rec := postJSON(t, server, "/ask-assistant", askRequest{Message: "hi"})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[askResponse](t, rec)
	assert.NotEmpty(t, resp.Response)
	assert.Equal(t, failedRunFallback, resp.Response)
	assert.Equal(t, "t1", resp.ThreadID)
}

func TestAskAssistant_NoAssistantMessageUsesFallback(t *testing.T) {
	gateway := &fakeGateway{
		replyMessages: []assistant.Message{
			{ID: "m1", Role: assistant.RoleUser, Parts: []string{"question"}},
		},
	}
	server := newTestServer(gateway)

	rec := postJSON(t, server, "/ask-assistant", askRequest{Message: "hi"})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[askResponse](t, rec)
	assert.Equal(t, emptyReplyFallback, resp.Response)
}

func TestAskAssistant_EmptyAssistantContentUsesFallback(t *testing.T) {
	gateway := &fakeGateway{
		replyMessages: []assistant.Message{
			{ID: "m2", Role: assistant.RoleAssistant},
			{ID: "m1", Role: assistant.RoleUser, Parts: []string{"question"}},
		},
	}
	server := newTestServer(gateway)

	rec := postJSON(t, server, "/ask-assistant", askRequest{Message: "hi"})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[askResponse](t, rec)
	assert.Equal(t, emptyReplyFallback, resp.Response)
}

func TestAskAssistant_StalledRunTimesOut(t *testing.T) {
	gateway := &fakeGateway{
		statusSequence: []assistant.RunStatus{assistant.RunInProgress},
	}
	server := NewServer(gateway, "asst_test", PollPolicy{
		Interval: time.Millisecond,
		Timeout:  10 * time.Millisecond,
	})

	rec := postJSON(t, server, "/ask-assistant", askRequest{Message: "hi"})

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	resp := decodeBody[errorResponse](t, rec)
	assert.NotEmpty(t, resp.Error)
}

func TestAskAssistant_GatewayErrorReturns500(t *testing.T) {
	gateway := &fakeGateway{appendErr: fmt.Errorf("upstream exploded")}
	server := newTestServer(gateway)

	rec := postJSON(t, server, "/ask-assistant", askRequest{Message: "hi"})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "Something went wrong", resp.Error)
}

func TestAskAssistant_RejectsInvalidJSON(t *testing.T) {
	server := newTestServer(&fakeGateway{})

	req := httptest.NewRequest(http.MethodPost, "/ask-assistant", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskAssistant_RejectsEmptyMessage(t *testing.T) {
	server := newTestServer(&fakeGateway{})

	rec := postJSON(t, server, "/ask-assistant", askRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateThread_ReturnsNewThread(t *testing.T) {
	gateway := &fakeGateway{}
	server := newTestServer(gateway)

	rec := postJSON(t, server, "/create-thread", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[createThreadResponse](t, rec)
	assert.Equal(t, "t1", resp.ThreadID)
	assert.NotEmpty(t, resp.Message)
}

func TestCreateThread_UpstreamErrorReturns500(t *testing.T) {
	gateway := &fakeGateway{createThreadErr: fmt.Errorf("upstream down")}
	server := newTestServer(gateway)

	rec := postJSON(t, server, "/create-thread", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeBody[errorResponse](t, rec)
	assert.NotEmpty(t, resp.Error)
}
