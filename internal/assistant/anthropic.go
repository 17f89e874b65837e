package assistant

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
)

// systemPrompt is the plant-care persona used for the Anthropic backend, which
// has no server-side assistant configuration to bind a run to
const systemPrompt = `You are Leaf Logic, a friendly and knowledgeable plant-care assistant.
You help users look after their houseplants and garden plants: watering and
fertilizing schedules, light and placement, soil, pruning, propagation, pests,
and disease. Keep answers practical and concise. When the user's message
includes plant collection data, use it only where it is relevant to their
question.`

// AnthropicGateway implements Gateway over the Anthropic Messages API, which
// has no server-side threads or runs. Threads and runs are emulated in process:
// thread history lives in memory, and a run executes one model call over that
// history asynchronously so that callers observe the same poll-until-terminal
// shape as the hosted assistants API.
type AnthropicGateway struct {
	client          anthropic.Client
	model           anthropic.Model
	maxOutputTokens int64

	mu      sync.Mutex
	threads map[string][]Message // history, oldest first
	runs    map[string]*localRun
}

type localRun struct {
	threadID string
	status   RunStatus
}

func NewAnthropicGateway(client anthropic.Client) *AnthropicGateway {
	return &AnthropicGateway{
		client:          client,
		model:           anthropic.ModelClaudeSonnet4_0,
		maxOutputTokens: 1024,
		threads:         map[string][]Message{},
		runs:            map[string]*localRun{},
	}
}

func (g *AnthropicGateway) CreateThread(ctx context.Context) (string, error) {
	id := "thread_" + uuid.New().String()
	g.mu.Lock()
	defer g.mu.Unlock()
	g.threads[id] = []Message{}
	return id, nil
}

func (g *AnthropicGateway) AppendMessage(ctx context.Context, threadID string, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	history, ok := g.threads[threadID]
	if !ok {
		return fmt.Errorf("no thread with ID %s", threadID)
	}
	g.threads[threadID] = append(history, Message{
		ID:    "msg_" + uuid.New().String(),
		Role:  RoleUser,
		Parts: []string{text},
	})
	return nil
}

// CreateRun starts the model call in the background. The assistantID parameter
// is accepted for interface compatibility and ignored; the persona is fixed by
// the system prompt.
func (g *AnthropicGateway) CreateRun(ctx context.Context, threadID string, assistantID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.threads[threadID]; !ok {
		return "", fmt.Errorf("no thread with ID %s", threadID)
	}

	runID := "run_" + uuid.New().String()
	g.runs[runID] = &localRun{threadID: threadID, status: RunQueued}

	// The run outlives the call that started it; callers observe progress via
	// PollRun, so it must not be tied to the caller's context
	go g.execute(context.Background(), runID, threadID)

	return runID, nil
}

func (g *AnthropicGateway) PollRun(ctx context.Context, threadID string, runID string) (RunStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	run, ok := g.runs[runID]
	if !ok || run.threadID != threadID {
		return "", fmt.Errorf("no run with ID %s on thread %s", runID, threadID)
	}
	return run.status, nil
}

func (g *AnthropicGateway) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	history, ok := g.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("no thread with ID %s", threadID)
	}

	// Return newest first to match the hosted API's ordering
	messages := make([]Message, len(history))
	for i, m := range history {
		messages[len(history)-1-i] = m
	}
	return messages, nil
}

func (g *AnthropicGateway) execute(ctx context.Context, runID string, threadID string) {
	g.setRunStatus(runID, RunInProgress)

	params := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxOutputTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: g.messageParams(threadID),
	}

	stream := g.client.Messages.NewStreaming(ctx, params)
	response := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := response.Accumulate(event); err != nil {
			log.Printf("Run %s failed: error accumulating response stream: %v", runID, err)
			g.setRunStatus(runID, RunFailed)
			return
		}
	}
	if stream.Err() != nil {
		log.Printf("Run %s failed: %v", runID, stream.Err())
		g.setRunStatus(runID, RunFailed)
		return
	}
	if response.StopReason == "" {
		log.Printf("Run %s failed: malformed response with no stop reason", runID)
		g.setRunStatus(runID, RunFailed)
		return
	}

	var parts []string
	for _, block := range response.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}

	g.mu.Lock()
	g.threads[threadID] = append(g.threads[threadID], Message{
		ID:    "msg_" + uuid.New().String(),
		Role:  RoleAssistant,
		Parts: parts,
	})
	if run, ok := g.runs[runID]; ok {
		run.status = RunCompleted
	}
	g.mu.Unlock()
}

func (g *AnthropicGateway) messageParams(threadID string) []anthropic.MessageParam {
	g.mu.Lock()
	defer g.mu.Unlock()

	params := []anthropic.MessageParam{}
	for _, m := range g.threads[threadID] {
		text := ""
		if len(m.Parts) > 0 {
			text = m.Parts[0]
		}
		if m.Role == RoleAssistant {
			params = append(params, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		} else {
			params = append(params, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		}
	}
	return params
}

func (g *AnthropicGateway) setRunStatus(runID string, status RunStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if run, ok := g.runs[runID]; ok {
		run.status = status
	}
}
