package analysis

import (
	"sync"
	"time"
)

// RateLimiter enforces a per-provider call budget over a trailing window.
// Checking the remaining budget and recording the new call happen under one
// lock so two concurrent callers cannot both take the last slot. The lock is
// never held across network waits or backoff sleeps.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	calls  map[string][]time.Time
	now    func() time.Time
}

// NewRateLimiter constructs a limiter granting at most limit calls per provider
// per window. A nil now defaults to time.Now.
func NewRateLimiter(limit int, window time.Duration, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:  limit,
		window: window,
		calls:  make(map[string][]time.Time),
		now:    now,
	}
}

// TryAcquire grants one call slot for provider if the trailing window has
// budget left. Denial is immediate; this layer never queues.
func (l *RateLimiter) TryAcquire(provider string) bool {
	if l == nil {
		return true
	}
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := l.calls[provider][:0]
	for _, ts := range l.calls[provider] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	if len(recent) >= l.limit {
		l.calls[provider] = recent
		return false
	}
	l.calls[provider] = append(recent, now)
	return true
}

// Window returns the configured window duration.
func (l *RateLimiter) Window() time.Duration {
	if l == nil {
		return 0
	}
	return l.window
}
