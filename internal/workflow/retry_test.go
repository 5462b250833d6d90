package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Onebillie/onebillconvo-sub004/internal/workflow"
)

func TestRetryPolicy_SucceedsAfterRetries(t *testing.T) {
	var slept []time.Duration
	policy := workflow.RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		Sleep:       func(d time.Duration) { slept = append(slept, d) },
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	// Backoff doubles: 1s before attempt 2, 2s before attempt 3.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	policy := workflow.RetryPolicy{MaxAttempts: 3, Sleep: func(time.Duration) {}}

	calls := 0
	wantErr := errors.New("permanent")
	err := policy.Do(context.Background(), func() error {
		calls++
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_ZeroAttemptsRunsOnce(t *testing.T) {
	policy := workflow.RetryPolicy{Sleep: func(time.Duration) {}}

	calls := 0
	_ = policy.Do(context.Background(), func() error {
		calls++
		return errors.New("x")
	})
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_CanceledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := workflow.RetryPolicy{MaxAttempts: 3, Sleep: func(time.Duration) {}}
	calls := 0
	err := policy.Do(ctx, func() error {
		calls++
		return errors.New("x")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}
