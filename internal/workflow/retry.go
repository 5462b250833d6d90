package workflow

import (
	"context"
	"time"
)

// RetryPolicy is a bounded retry combinator with exponential backoff. It is
// transport-level retry inside a single step, distinct from the engine's
// step-failure routing via next_on_failure.
type RetryPolicy struct {
	// MaxAttempts is the total attempt count, including the first. Values
	// below 1 are treated as 1.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt; each further attempt
	// doubles it.
	BaseDelay time.Duration
	// Sleep is injectable for tests. Nil means time.Sleep.
	Sleep func(time.Duration)
}

// Do runs fn until it succeeds, attempts are exhausted, or the context is
// canceled. The last error is returned on exhaustion.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	delay := p.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt < attempts {
			sleep(delay)
			delay *= 2
		}
	}
	return lastErr
}
