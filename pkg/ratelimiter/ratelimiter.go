// Package ratelimiter provides a token bucket rate limiter used to pace
// outbound provider API calls.
package ratelimiter

import (
	"sync"
	"time"
)

type RateLimiter interface {
	TakeToken() bool
	Wait()
}

type TokenBucket struct {
	capacity   int64
	tokens     int64
	refillRate int64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func NewTokenBucket(capacity, refillRate int64) *TokenBucket {
	if capacity <= 0 {
		capacity = 1
	}
	if refillRate <= 0 {
		refillRate = 1
	}

	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) TakeToken() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// refill credits one token per whole refill interval elapsed since
// lastRefill. lastRefill advances only by the intervals consumed, so polling
// faster than the refill interval never discards accrued time.
func (tb *TokenBucket) refill(now time.Time) {
	interval := time.Second / time.Duration(tb.refillRate)
	elapsed := now.Sub(tb.lastRefill)
	if elapsed < interval {
		return
	}

	tokensToAdd := int64(elapsed / interval)
	tb.tokens += tokensToAdd
	if tb.tokens >= tb.capacity {
		tb.tokens = tb.capacity
		tb.lastRefill = now
		return
	}
	tb.lastRefill = tb.lastRefill.Add(time.Duration(tokensToAdd) * interval)
}

// Wait blocks until a token is available.
func (tb *TokenBucket) Wait() {
	waitTime := time.Second / time.Duration(tb.refillRate)
	if waitTime > 100*time.Millisecond {
		waitTime = 100 * time.Millisecond
	}

	for !tb.TakeToken() {
		time.Sleep(waitTime)
	}
}
