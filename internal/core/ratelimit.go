package core

import "time"

// rateLimiter is a token bucket refilled with burst tokens per interval.
// Only the session's read loop touches it.
type rateLimiter struct {
	tokens    float64
	capacity  float64
	rate      float64 // tokens per second
	lastCheck time.Time
	now       func() time.Time
}

func newRateLimiter(burst int, interval time.Duration, now func() time.Time) *rateLimiter {
	if burst <= 0 {
		return nil
	}
	if interval <= 0 {
		interval = time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &rateLimiter{
		tokens:    float64(burst),
		capacity:  float64(burst),
		rate:      float64(burst) / interval.Seconds(),
		lastCheck: now(),
		now:       now,
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}

	now := r.now()
	if elapsed := now.Sub(r.lastCheck).Seconds(); elapsed > 0 {
		r.tokens += elapsed * r.rate
		if r.tokens > r.capacity {
			r.tokens = r.capacity
		}
	}
	r.lastCheck = now

	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}
