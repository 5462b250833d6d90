package classifier_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Onebillie/onebillconvo-sub004/internal/classifier"
)

func TestNewRateLimitError_DefaultRetryAfter(t *testing.T) {
	err := classifier.NewRateLimitError("openai", errors.New("429"), 0)
	assert.Equal(t, 60*time.Second, err.RetryAfter)
	assert.Equal(t, "openai", err.Provider)
}

func TestNewRateLimitError_ExplicitRetryAfter(t *testing.T) {
	err := classifier.NewRateLimitError("claude", errors.New("429"), 30)
	assert.Equal(t, 30*time.Second, err.RetryAfter)
}

func TestRateLimitError_Unwrap(t *testing.T) {
	inner := errors.New("too many requests")
	err := classifier.NewRateLimitError("openai", inner, 10)
	assert.ErrorIs(t, err, inner)
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 0, classifier.ParseRetryAfterHeader(""))
	assert.Equal(t, 0, classifier.ParseRetryAfterHeader("Wed, 21 Oct 2026 07:28:00 GMT"))
	assert.Equal(t, 120, classifier.ParseRetryAfterHeader("120"))
}

func TestOutputError_TruncatesRaw(t *testing.T) {
	raw := make([]byte, 1000)
	for i := range raw {
		raw[i] = 'x'
	}
	err := classifier.NewOutputError("openai", "bad json", string(raw))
	assert.Len(t, err.Raw, 503)
	assert.Contains(t, err.Error(), "bad json")
}
