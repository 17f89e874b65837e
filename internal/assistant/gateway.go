// Package assistant defines the conversational-assistant capability consumed by
// the relay, along with its upstream implementations.
package assistant

import "context"

// RunStatus is the upstream-reported state of an assistant run. The set of
// values is owned by the upstream API; only completed and failed are treated
// as terminal here.
type RunStatus string

const (
	RunQueued     RunStatus = "queued"
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// Terminal reports whether the run has finished, successfully or not
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// Message roles as reported by the upstream API
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a thread's history
type Message struct {
	ID   string
	Role string
	// Parts holds the message's text segments in order. The first part is the
	// primary payload.
	Parts []string
}

// Gateway is the upstream conversational-assistant capability: threads hold
// ordered message history, and runs execute the assistant over a thread.
type Gateway interface {
	// CreateThread mints a new, empty conversation thread and returns its ID
	CreateThread(ctx context.Context) (string, error)
	// AppendMessage adds a user message to a thread
	AppendMessage(ctx context.Context, threadID string, text string) error
	// CreateRun starts an assistant run over the thread's current history
	CreateRun(ctx context.Context, threadID string, assistantID string) (string, error)
	// PollRun reports the current status of a run
	PollRun(ctx context.Context, threadID string, runID string) (RunStatus, error)
	// ListMessages returns the thread's messages, newest first
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}
