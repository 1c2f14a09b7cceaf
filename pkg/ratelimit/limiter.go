package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming a token if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx ends
	Wait(ctx context.Context) error
	// Reset refills the limiter to its full burst
	Reset()
}

// TokenBucket is a Limiter backed by golang.org/x/time/rate
type TokenBucket struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewTokenBucket allows burst requests at once, refilled at one token per
// interval
func NewTokenBucket(burst int, interval time.Duration) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &TokenBucket{
		limit:   limit,
		burst:   burst,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// PerMinute allows requestsPerMinute on average with the given burst. A
// non-positive rate disables limiting.
func PerMinute(requestsPerMinute, burst int) *TokenBucket {
	if requestsPerMinute <= 0 {
		return NewTokenBucket(burst, 0)
	}
	return NewTokenBucket(burst, time.Minute/time.Duration(requestsPerMinute))
}

func (tb *TokenBucket) current() *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.limiter
}

func (tb *TokenBucket) Allow() bool {
	return tb.current().Allow()
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.current().Wait(ctx)
}

func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.limiter = rate.NewLimiter(tb.limit, tb.burst)
}

// Burst returns the bucket capacity
func (tb *TokenBucket) Burst() int {
	return tb.burst
}
