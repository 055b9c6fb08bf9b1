package api

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements per-user rate limiting of mutating requests
// ARCHITECTURAL DISCOVERY: Per-client state tracking with proper cleanup prevents memory leaks
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	clients map[string]*clientLimit
	now     func() time.Time
}

// clientLimit tracks one user's fixed one-minute window
type clientLimit struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a limiter allowing perMinute requests per user
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 100
	}
	return &RateLimiter{
		limit:   perMinute,
		clients: make(map[string]*clientLimit),
		now:     time.Now,
	}
}

// Allow reports whether userID may perform another request in the current window
func (rl *RateLimiter) Allow(userID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	limit, exists := rl.clients[userID]
	if !exists {
		// FUNCTIONAL DISCOVERY: First request always allowed, initialize tracking
		rl.clients[userID] = &clientLimit{count: 1, windowStart: now}
		return true
	}

	// TECHNICAL DISCOVERY: Window resets exactly every minute for consistent rate limiting
	if now.Sub(limit.windowStart) >= time.Minute {
		limit.count = 1
		limit.windowStart = now
		return true
	}

	if limit.count >= rl.limit {
		return false
	}

	limit.count++
	return true
}

// Cleanup removes entries idle for more than five windows
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for userID, limit := range rl.clients {
		if now.Sub(limit.windowStart) > 5*time.Minute {
			delete(rl.clients, userID)
		}
	}
}

// RunCleanup calls Cleanup every interval until ctx is cancelled
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}
