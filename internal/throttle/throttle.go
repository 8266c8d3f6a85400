// Package throttle spaces outbound carrier calls a minimum interval apart.
package throttle

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle serializes callers so consecutive upstream calls are at least
// the configured interval apart, regardless of inbound concurrency.
// Waiters are released in FIFO order.
type Throttle struct {
	limiter *rate.Limiter
}

// New creates a throttle with the given minimum interval between calls.
func New(minInterval time.Duration) *Throttle {
	if minInterval <= 0 {
		minInterval = 400 * time.Millisecond
	}
	return &Throttle{
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

// Acquire blocks until the minimum interval since the previous acquisition
// has elapsed, or the context is cancelled.
func (t *Throttle) Acquire(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
