package engine

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter caps concurrent in-flight calls and request rate for one external
// collaborator. It is acquired at the innermost call site so retries count
// against the same budget.
type Limiter struct {
	sem *semaphore.Weighted
	rl  *rate.Limiter
}

// NewLimiter builds a limiter allowing maxInflight concurrent calls and rps
// requests per second (burst = maxInflight). rps <= 0 disables rate limiting.
func NewLimiter(maxInflight int, rps float64) *Limiter {
	if maxInflight <= 0 {
		maxInflight = 1
	}
	l := &Limiter{sem: semaphore.NewWeighted(int64(maxInflight))}
	if rps > 0 {
		l.rl = rate.NewLimiter(rate.Limit(rps), maxInflight)
	}
	return l
}

// Acquire blocks until a slot and a rate token are available, or ctx expires.
// The returned release function must be called exactly once.
func (l *Limiter) Acquire(ctx context.Context) (func(), error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, &PipelineError{Kind: KindCapacityExceeded, Op: "limiter", Err: err}
	}
	if l.rl != nil {
		if err := l.rl.Wait(ctx); err != nil {
			l.sem.Release(1)
			return nil, &PipelineError{Kind: KindCapacityExceeded, Op: "limiter", Err: err}
		}
	}
	return func() { l.sem.Release(1) }, nil
}
