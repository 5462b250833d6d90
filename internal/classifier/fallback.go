package classifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

// circuitState tracks rate-limit backoff for a single provider.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackClassifier tries providers in order, skipping those with open
// circuits. An OutputError stops the chain immediately: malformed output is
// deterministic for a given input, so another provider gets one chance only
// if an earlier provider failed on transport, not on content it produced.
// It implements port.DocumentClassifier.
type FallbackClassifier struct {
	classifiers []port.DocumentClassifier
	circuits    []*circuitState
	names       []string
}

// NewFallbackClassifier creates a FallbackClassifier from an ordered list of
// classifiers and their names.
func NewFallbackClassifier(classifiers []port.DocumentClassifier, names []string) *FallbackClassifier {
	circuits := make([]*circuitState, len(classifiers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackClassifier{
		classifiers: classifiers,
		circuits:    circuits,
		names:       names,
	}
}

func (f *FallbackClassifier) Classify(ctx context.Context, input port.ClassifyInput) (*port.ClassifyOutput, error) {
	now := time.Now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, c := range f.classifiers {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Printf("classifier.FallbackClassifier: skipping %s (circuit open until %s)", f.names[i], resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := c.Classify(ctx, input)
		if err == nil {
			return out, nil
		}

		log.Printf("classifier.FallbackClassifier: %s failed: %v", f.names[i], err)
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}
		allRateLimited = false

		var outErr *OutputError
		if errors.As(err, &outErr) {
			return nil, err
		}
	}

	if lastErr == nil || allRateLimited {
		// Either every provider was skipped on an open circuit, or every
		// attempt hit a rate limit.
		retryAfter := time.Until(earliestReset)
		if retryAfter < 0 {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", fmt.Errorf("all classifier providers rate limited"), int(retryAfter.Seconds()))
	}

	return nil, fmt.Errorf("all classifier providers failed: %w", lastErr)
}
