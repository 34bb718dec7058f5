// ABOUTME: Backoff helpers for re-dispatching failed classification requests
// ABOUTME: Exponential delay with jitter and a context-aware wait
package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// MaxBackoff caps any single delay before jitter
const MaxBackoff = 30 * time.Second

// CalculateBackoff returns 2^attempt * baseDelay, capped at MaxBackoff, with
// ±25% jitter. Attempt 0 and non-positive base delays yield 0.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	// Cap attempt to keep the shift from overflowing
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > MaxBackoff || backoff <= 0 {
		backoff = MaxBackoff
	}
	if backoff < 4 {
		return backoff
	}
	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}

// Wait blocks for d or until ctx is done, whichever comes first
func Wait(ctx context.Context, d time.Duration) error {
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
