package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter bounds the rate of outbound tracker API calls across all reminder
// workers, so a backlog of due issues cannot hammer the tracker in a burst.
// Burst is set equal to the rate so no extra burst capacity is allowed
// beyond the configured per-second maximum.
type Limiter struct {
	l *rate.Limiter
}

// New creates a Limiter granting ratePerSec tokens per second.
func New(ratePerSec int) *Limiter {
	return &Limiter{l: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)}
}

// Wait blocks until the limiter grants a token.
// Returns a non-nil error only if ctx is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.l.Wait(ctx)
}
