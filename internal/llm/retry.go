// Package llm - retry.go paces and retries API calls. The provider rate
// limits free-tier keys aggressively, so callers space their calls and retry
// transient failures with backoff.
package llm

import (
	"context"
	"math"
	"math/rand"
	"time"
)

const (
	// DefaultRetryAttempts bounds CallWithRetry when attempts is zero or
	// negative.
	DefaultRetryAttempts = 3

	backoffFactor = 1.5
)

// Pause blocks for d or until ctx is done, returning the context error when
// interrupted. A non-positive d returns immediately.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CallWithRetry runs call up to attempts times, backing off between tries on
// transient failures (rate limits, server errors, network faults). Auth
// failures and content rejections return immediately: retrying them cannot
// change the outcome. With baseDelay <= 0 retries run back to back.
func CallWithRetry(ctx context.Context, attempts int, baseDelay time.Duration, call func() (string, error)) (string, error) {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}

	var out string
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err = call()
		if err == nil || !IsTransient(err) || attempt == attempts {
			return out, err
		}
		if baseDelay > 0 {
			wait := time.Duration(float64(baseDelay) * math.Pow(backoffFactor, float64(attempt)))
			wait += time.Duration(rand.Int63n(int64(time.Second)))
			if perr := Pause(ctx, wait); perr != nil {
				return "", perr
			}
		} else if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return out, err
}
