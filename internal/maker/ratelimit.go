// ratelimit.go implements token-bucket rate limiting for the maker venue's
// REST surface. The venue enforces per-category limits measured in
// requests per 10-second windows; this keeps the adapter comfortably under
// them with a smoothly-refilling bucket rather than bursting right up to
// the edge every window.
package maker

import (
	"context"
	"sync"
	"time"
)

// TokenBucket implements a token-bucket rate limiter with continuous
// refill. Callers block in Wait() until a token is available or the
// context is cancelled — this queues excess calls rather than rejecting
// them, since a rejected REST call here would just become an RpcRejected
// the caller has to retry anyway.
type TokenBucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64
	lastTime time.Time
}

// NewTokenBucket creates a rate limiter with the given capacity and refill rate.
func NewTokenBucket(capacity, ratePerSecond float64) *TokenBucket {
	return &TokenBucket{
		tokens:   capacity,
		capacity: capacity,
		rate:     ratePerSecond,
		lastTime: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(tb.lastTime).Seconds()
		tb.tokens += elapsed * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastTime = now

		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}

		wait := time.Duration((1 - tb.tokens) / tb.rate * float64(time.Second))
		tb.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// RateLimiter groups token buckets by REST endpoint category. Each
// trading operation calls the appropriate bucket's Wait() before making
// the HTTP request.
type RateLimiter struct {
	Place  *TokenBucket // place_limit
	Cancel *TokenBucket // cancel, cancel_all
	Book   *TokenBucket // one-shot REST book/balance reads
}

// NewRateLimiter creates rate limiters tuned to the maker venue's published
// limits: capacities are the 10-second burst allowance, rates are 1/10th
// of that for smooth refill.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		Place:  NewTokenBucket(200, 20),
		Cancel: NewTokenBucket(200, 20),
		Book:   NewTokenBucket(100, 10),
	}
}
