package resilience

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError indicates the upstream provider returned a rate-limit
// response (HTTP 429 or an overloaded signal). Callers back off and retry
// rather than failing the operation outright.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s rate limited", e.Provider)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimit reports whether err chains to a RateLimitError.
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// RateLimitRetryConfig returns the retry policy applied to provider calls
// that hit rate limits: three attempts total with a 1.5s base delay doubling
// each retry (1.5s, 3s), no jitter so waits stay predictable.
func RateLimitRetryConfig(onRetry func(attempt int, err error)) RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0,
		ShouldRetry:    IsRateLimit,
		OnRetry:        onRetry,
	}
}
