package ratelimit

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces operations to a configured rate and optionally adds random
// jitter so request timing does not look machine-regular to the target site.
// Safe for concurrent use.
type Limiter struct {
	limiter  *rate.Limiter
	jitter   float64
	interval time.Duration
}

// New creates a limiter allowing rps operations per second with the given
// jitter factor in [0,1]. rps <= 0 yields a limiter that never blocks.
func New(rps float64, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}
	return &Limiter{
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		jitter:   jitter,
		interval: time.Duration(float64(time.Second) / rps),
	}
}

// Wait blocks until the next operation may proceed or ctx is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.limiter == nil {
		return nil
	}
	if err := l.limiter.Wait(ctx); err != nil {
		return err
	}
	if l.jitter > 0 {
		// Random extra delay up to jitter*interval. Only positive jitter is
		// applied; the token bucket already enforces the minimum spacing.
		d := time.Duration(rand.Float64() * l.jitter * float64(l.interval))
		if d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}
