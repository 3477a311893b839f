package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a fixed-window in-process limiter keyed by an arbitrary
// string (client IP, user ID). It protects a single process; the per-user
// daily quota lives in the usage log, not here.
type RateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	counters map[string]*windowCounter
}

type windowCounter struct {
	windowStart time.Time
	count       int
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:    limit,
		window:   window,
		counters: make(map[string]*windowCounter),
	}
	go rl.cleanupLoop()
	return rl
}

// NewIPRateLimiter creates a per-IP limiter with a one-minute window.
func NewIPRateLimiter(perMinute int) *RateLimiter {
	return NewRateLimiter(perMinute, time.Minute)
}

// NewUserRateLimiter creates a per-user limiter with a one-minute window.
func NewUserRateLimiter(perMinute int) *RateLimiter {
	return NewRateLimiter(perMinute, time.Minute)
}

// Allow reports whether the request identified by key may proceed.
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.counters[key]
	if !ok || now.Sub(c.windowStart) >= rl.window {
		rl.counters[key] = &windowCounter{windowStart: now, count: 1}
		return true, nil
	}

	if c.count >= rl.limit {
		return false, nil
	}
	c.count++
	return true, nil
}

// cleanupLoop evicts stale counters so the map does not grow unbounded.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-2 * rl.window)
		rl.mu.Lock()
		for key, c := range rl.counters {
			if c.windowStart.Before(cutoff) {
				delete(rl.counters, key)
			}
		}
		rl.mu.Unlock()
	}
}
