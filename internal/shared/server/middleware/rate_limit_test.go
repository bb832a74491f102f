package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterAllowBurstThenDeny(t *testing.T) {
	current := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return current })
	rule := RateLimitRule{Rate: 1, Burst: 2}

	for i := 0; i < 2; i++ {
		allowed, _ := limiter.Allow("10.0.0.1", rule)
		if !allowed {
			t.Fatalf("expected call %d within burst to be allowed", i+1)
		}
	}
	allowed, retryAfter := limiter.Allow("10.0.0.1", rule)
	if allowed {
		t.Fatalf("expected third call to be denied")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %s", retryAfter)
	}
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	current := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return current })
	rule := RateLimitRule{Rate: 1, Burst: 1}

	if allowed, _ := limiter.Allow("k", rule); !allowed {
		t.Fatalf("first call should pass")
	}
	if allowed, _ := limiter.Allow("k", rule); allowed {
		t.Fatalf("second immediate call should be denied")
	}
	current = current.Add(1100 * time.Millisecond)
	if allowed, _ := limiter.Allow("k", rule); !allowed {
		t.Fatalf("call after refill should pass")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(nil)
	rule := RateLimitRule{Rate: 1, Burst: 1}

	if allowed, _ := limiter.Allow("a", rule); !allowed {
		t.Fatalf("key a should pass")
	}
	if allowed, _ := limiter.Allow("b", rule); !allowed {
		t.Fatalf("key b should pass independently")
	}
}
