package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leaflogic/leaflogic/internal/assistant"
)

// ErrRunTimeout indicates a run did not reach a terminal status within the
// policy's deadline. A stalled upstream run must not hold the request open
// forever.
var ErrRunTimeout = errors.New("timed out waiting for assistant run to finish")

// PollPolicy bounds the wait for an assistant run to reach a terminal status
type PollPolicy struct {
	// Interval is the fixed delay between status polls
	Interval time.Duration
	// Timeout is the total time budget for the run
	Timeout time.Duration
}

// Await polls the run until it completes or fails, waiting Interval between
// polls. Exceeding Timeout returns ErrRunTimeout with the last observed status.
func (p PollPolicy) Await(ctx context.Context, gateway assistant.Gateway, threadID string, runID string) (assistant.RunStatus, error) {
	deadline := time.Now().Add(p.Timeout)
	iterations := 0

	for {
		status, err := gateway.PollRun(ctx, threadID, runID)
		iterations++
		if err != nil {
			return "", fmt.Errorf("failed to poll run %s: %w", runID, err)
		}
		if status.Terminal() {
			pollIterations.Observe(float64(iterations))
			return status, nil
		}
		if time.Now().After(deadline) {
			pollIterations.Observe(float64(iterations))
			return status, ErrRunTimeout
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-time.After(p.Interval):
		}
	}
}
