package relay

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/leaflogic/leaflogic/internal/assistant"
	"github.com/leaflogic/leaflogic/internal/plantcontext"
)

// Fallback replies keep the client-observable contract simple: a well-formed
// request always gets a 200 with some reply text, even when the upstream run
// fails or produces nothing usable
const (
	emptyReplyFallback = "I'm having trouble responding right now. Please try again."
	failedRunFallback  = "Sorry, I couldn't process your request. Please try again."
)

// relayMessage runs one message through the full pipeline: resolve the thread,
// inject context, append the message, execute a run, wait for it, and extract
// the reply. The resolved thread ID is returned alongside the reply so the
// caller is never left without one after a successful request.
func (s *Server) relayMessage(ctx context.Context, req askRequest) (string, string, error) {
	span := trace.SpanFromContext(ctx)

	// Thread resolution: reuse the caller's thread or mint a new one
	threadID := req.ThreadID
	if threadID == "" {
		var err error
		threadID, err = s.gateway.CreateThread(ctx)
		if err != nil {
			return "", "", fmt.Errorf("failed to create thread: %w", err)
		}
		log.Printf("New thread created: %s", threadID)
	}
	span.SetAttributes(attribute.String("thread.id", threadID))

	// Context injection: embed the plant snapshot into the message text when
	// the caller sent a non-empty one
	text := req.Message
	injected := false
	if req.PlantContext != nil {
		text = plantcontext.ComposeMessage(req.Message, *req.PlantContext)
		injected = text != req.Message
	}
	span.SetAttributes(attribute.Bool("context.injected", injected))

	if err := s.gateway.AppendMessage(ctx, threadID, text); err != nil {
		return "", "", fmt.Errorf("failed to append message: %w", err)
	}

	runID, err := s.gateway.CreateRun(ctx, threadID, s.assistantID)
	if err != nil {
		return "", "", fmt.Errorf("failed to create run: %w", err)
	}

	start := time.Now()
	status, err := s.poll.Await(ctx, s.gateway, threadID, runID)
	runDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", threadID, err
	}

	if status == assistant.RunFailed {
		log.Printf("Run %s on thread %s failed upstream", runID, threadID)
		span.SetAttributes(attribute.String("run.status", string(status)))
		return failedRunFallback, threadID, nil
	}

	messages, err := s.gateway.ListMessages(ctx, threadID)
	if err != nil {
		return "", "", fmt.Errorf("failed to list messages: %w", err)
	}

	reply := latestAssistantText(messages)
	if reply == "" {
		reply = emptyReplyFallback
	}
	return reply, threadID, nil
}

// latestAssistantText returns the primary text of the most recent assistant
// message. Messages are expected newest first.
func latestAssistantText(messages []assistant.Message) string {
	for _, m := range messages {
		if m.Role != assistant.RoleAssistant {
			continue
		}
		if len(m.Parts) == 0 {
			return ""
		}
		return m.Parts[0]
	}
	return ""
}
