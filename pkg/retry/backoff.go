package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	errs "tweetrelay/pkg/errors"
)

// BackoffStrategy computes the delay before a retry
type BackoffStrategy interface {
	// NextDelay returns the delay after the given failed attempt (1-based)
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFactor adds randomness to avoid thundering herd (0.0 to 1.0)
	JitterFactor float64
}

// DefaultExponentialBackoff returns a backoff with sensible defaults
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the next delay with exponential backoff and jitter
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	multiplier := eb.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(eb.BaseDelay) * math.Pow(multiplier, float64(attempt-1))

	if eb.MaxDelay > 0 && delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// ConstantBackoff implements constant delay backoff
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrorTypeBackoff picks a strategy by error type. Rate limited requests
// wait much longer than transient network failures.
type ErrorTypeBackoff struct {
	RateLimitBackoff BackoffStrategy
	DefaultBackoff   BackoffStrategy
}

// NewErrorTypeBackoff uses def for everything but rate limits
func NewErrorTypeBackoff(def BackoffStrategy) *ErrorTypeBackoff {
	if def == nil {
		def = DefaultExponentialBackoff()
	}
	return &ErrorTypeBackoff{
		RateLimitBackoff: &ExponentialBackoff{
			BaseDelay:    30 * time.Second,
			MaxDelay:     5 * time.Minute,
			Multiplier:   1.5,
			JitterFactor: 0.3,
		},
		DefaultBackoff: def,
	}
}

// ForError returns the strategy for err
func (etb *ErrorTypeBackoff) ForError(err error) BackoffStrategy {
	if errs.TypeOf(err) == errs.ErrorTypeRateLimit {
		return etb.RateLimitBackoff
	}
	return etb.DefaultBackoff
}
