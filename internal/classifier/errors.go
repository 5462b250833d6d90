package classifier

import (
	"fmt"
	"strconv"
	"time"
)

// RateLimitError indicates a classifier provider returned HTTP 429. Retryable.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// OutputError indicates the model returned output that cannot be used
// (malformed JSON, classification outside the permitted set). Retrying the
// same input will not help, so callers must not requeue on it.
type OutputError struct {
	Provider string
	Reason   string
	Raw      string
}

func (e *OutputError) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("%s returned unusable output: %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("%s returned unusable output: %s (raw: %s)", e.Provider, e.Reason, e.Raw)
}

// NewOutputError creates an OutputError, truncating the raw model text for logs.
func NewOutputError(provider, reason, raw string) *OutputError {
	return &OutputError{Provider: provider, Reason: reason, Raw: truncate(raw, 500)}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
