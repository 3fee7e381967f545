package ratelimiter

import (
	"sync"
	"time"
)

// TokenBucket is a RateLimiter that refills tokens at a fixed rate and lets
// requests burst up to the bucket capacity. One token is consumed per
// request.
type TokenBucket struct {
	rate       float64 // tokens added per second
	capacity   float64
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a TokenBucket refilling rate tokens per second, with
// the given burst capacity. The bucket starts full so a fresh limiter does
// not throttle the first requests.
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow refills the bucket for the elapsed time and consumes one token if
// available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(tb.lastRefill); elapsed > 0 {
		tb.tokens += elapsed.Seconds() * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}

	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}
