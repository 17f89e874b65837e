package relay

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflogic/leaflogic/internal/assistant"
)

func TestAwait_TerminalImmediately(t *testing.T) {
	gateway := &fakeGateway{
		statusSequence: []assistant.RunStatus{assistant.RunCompleted},
	}
	policy := PollPolicy{Interval: time.Millisecond, Timeout: time.Second}

	status, err := policy.Await(context.Background(), gateway, "t1", "run_1")

	require.NoError(t, err)
	assert.Equal(t, assistant.RunCompleted, status)
	assert.Equal(t, 1, gateway.pollCount)
}

func TestAwait_ProgressesToCompletion(t *testing.T) {
	gateway := &fakeGateway{
		statusSequence: []assistant.RunStatus{
			assistant.RunQueued,
			assistant.RunInProgress,
			assistant.RunCompleted,
		},
	}
	policy := PollPolicy{Interval: time.Millisecond, Timeout: time.Second}

	status, err := policy.Await(context.Background(), gateway, "t1", "run_1")

	require.NoError(t, err)
	assert.Equal(t, assistant.RunCompleted, status)
	assert.Equal(t, 3, gateway.pollCount)
}

func TestAwait_FailedIsTerminal(t *testing.T) {
	gateway := &fakeGateway{
		statusSequence: []assistant.RunStatus{assistant.RunFailed},
	}
	policy := PollPolicy{Interval: time.Millisecond, Timeout: time.Second}

	status, err := policy.Await(context.Background(), gateway, "t1", "run_1")

	require.NoError(t, err)
	assert.Equal(t, assistant.RunFailed, status)
}

func TestAwait_TimesOutOnStalledRun(t *testing.T) {
	gateway := &fakeGateway{
		statusSequence: []assistant.RunStatus{assistant.RunInProgress},
	}
	policy := PollPolicy{Interval: time.Millisecond, Timeout: 10 * time.Millisecond}

	status, err := policy.Await(context.Background(), gateway, "t1", "run_1")

	require.ErrorIs(t, err, ErrRunTimeout)
	assert.Equal(t, assistant.RunInProgress, status)
	assert.Greater(t, gateway.pollCount, 1)
}

func TestAwait_PollErrorPropagates(t *testing.T) {
	gateway := &erroringPollGateway{err: fmt.Errorf("connection reset")}
	policy := PollPolicy{Interval: time.Millisecond, Timeout: time.Second}

	_, err := policy.Await(context.Background(), gateway, "t1", "run_1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAwait_CancelledContextStopsPolling(t *testing.T) {
	gateway := &fakeGateway{
		statusSequence: []assistant.RunStatus{assistant.RunInProgress},
	}
	policy := PollPolicy{Interval: 50 * time.Millisecond, Timeout: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := policy.Await(ctx, gateway, "t1", "run_1")

	require.ErrorIs(t, err, context.Canceled)
}

// erroringPollGateway fails every poll
type erroringPollGateway struct {
	fakeGateway
	err error
}

func (g *erroringPollGateway) PollRun(ctx context.Context, threadID string, runID string) (assistant.RunStatus, error) {
	return "", g.err
}
