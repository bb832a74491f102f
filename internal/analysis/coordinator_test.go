package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"window-backend/internal/events"
	"window-backend/internal/provider"
)

type fakeAdapter struct {
	name      string
	response  string
	err       error
	transient bool
	delay     time.Duration
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) TranslateRequest(req provider.Request) ([]byte, error) {
	return []byte(`{"image":"` + req.ImageB64 + `"}`), nil
}

func (f *fakeAdapter) Invoke(ctx context.Context, payload []byte) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeAdapter) IsTransientFailure(err error) bool { return f.transient }

type captureSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *captureSink) Emit(ctx context.Context, e events.Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *captureSink) ofType(eventType string) []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []events.Event
	for _, e := range s.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newCoordExecutor() *RetryExecutor {
	exec := NewRetryExecutor(2, time.Millisecond)
	exec.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return exec
}

func TestCoordinatorCollectsAllProviders(t *testing.T) {
	adapters := []provider.Adapter{
		&fakeAdapter{name: "a", response: "This is a casement window in good condition. Confidence: 90%"},
		&fakeAdapter{name: "b", response: "A vinyl frame, roughly 36x48 inches. Confidence: 70%"},
	}
	coord := NewCoordinator(adapters, nil, newCoordExecutor(), nil, time.Second)

	out := coord.Run(context.Background(), Request{ID: "r1", Providers: []string{"a", "b"}}, provider.Request{})
	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d (failed %v)", len(out.Results), out.Failed)
	}
	if len(out.Failed) != 0 || len(out.Abandoned) != 0 {
		t.Fatalf("unexpected failures %v abandoned %v", out.Failed, out.Abandoned)
	}
	if len(out.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(out.Attempts))
	}
}

func TestCoordinatorOneFailureDoesNotSinkRequest(t *testing.T) {
	sink := &captureSink{}
	adapters := []provider.Adapter{
		&fakeAdapter{name: "a", response: "Double-hung window. Confidence: 85%"},
		&fakeAdapter{name: "b", err: errors.New("invalid api key")},
	}
	coord := NewCoordinator(adapters, nil, newCoordExecutor(), sink, time.Second)

	out := coord.Run(context.Background(), Request{ID: "r1", Providers: []string{"a", "b"}}, provider.Request{})
	if len(out.Results) != 1 || out.Results[0].Provider != "a" {
		t.Fatalf("expected one result from a, got %+v", out.Results)
	}
	if len(out.Failed) != 1 || out.Failed[0] != "b" {
		t.Fatalf("expected b to fail, got %v", out.Failed)
	}
	if got := sink.ofType(events.TypeProviderFailed); len(got) != 1 || got[0].Provider != "b" {
		t.Fatalf("expected one provider_failed event for b, got %+v", got)
	}
}

func TestCoordinatorAbandonsSlowProviderAtDeadline(t *testing.T) {
	adapters := []provider.Adapter{
		&fakeAdapter{name: "fast", response: "Sliding window. Confidence: 80%"},
		&fakeAdapter{name: "slow", response: "too late", delay: 5 * time.Second},
	}
	coord := NewCoordinator(adapters, nil, newCoordExecutor(), nil, 50*time.Millisecond)

	start := time.Now()
	out := coord.Run(context.Background(), Request{ID: "r1", Providers: []string{"fast", "slow"}}, provider.Request{})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("run did not respect deadline, took %v", elapsed)
	}
	if len(out.Results) != 1 || out.Results[0].Provider != "fast" {
		t.Fatalf("expected the fast result, got %+v", out.Results)
	}
	// The slow provider either observed cancellation (timeout attempt, counted
	// failed) or was abandoned before settling. It never contributes a result.
	if len(out.Failed)+len(out.Abandoned) != 1 {
		t.Fatalf("expected slow to fail or be abandoned, failed=%v abandoned=%v", out.Failed, out.Abandoned)
	}
}

func TestCoordinatorUnknownProviderIsSkipped(t *testing.T) {
	sink := &captureSink{}
	coord := NewCoordinator(nil, nil, newCoordExecutor(), sink, time.Second)

	out := coord.Run(context.Background(), Request{ID: "r1", Providers: []string{"ghost"}}, provider.Request{})
	if len(out.Failed) != 1 || out.Failed[0] != "ghost" {
		t.Fatalf("expected ghost to fail, got %v", out.Failed)
	}
	if got := sink.ofType(events.TypeProviderSkipped); len(got) != 1 {
		t.Fatalf("expected a provider_skipped event, got %+v", got)
	}
}

func TestCoordinatorRateLimitWaitsOneWindowThenRetries(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	limiter := NewRateLimiter(1, time.Minute, now)
	if !limiter.TryAcquire("a") {
		t.Fatalf("seed acquire should succeed")
	}

	adapters := []provider.Adapter{
		&fakeAdapter{name: "a", response: "Bay window. Confidence: 75%"},
	}
	coord := NewCoordinator(adapters, limiter, newCoordExecutor(), nil, time.Second)
	var slept []time.Duration
	coord.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		mu.Lock()
		clock = clock.Add(d + time.Second)
		mu.Unlock()
		return nil
	}

	out := coord.Run(context.Background(), Request{ID: "r1", Providers: []string{"a"}}, provider.Request{})
	if len(slept) != 1 || slept[0] != time.Minute {
		t.Fatalf("expected one full-window wait, got %v", slept)
	}
	if len(out.Results) != 1 {
		t.Fatalf("expected the retried acquire to succeed, got failed=%v", out.Failed)
	}
}

func TestCoordinatorRateLimitHardDenialAfterRetry(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, time.Minute, func() time.Time { return fixed })
	limiter.TryAcquire("a")

	adapters := []provider.Adapter{
		&fakeAdapter{name: "a", response: "unreached"},
	}
	coord := NewCoordinator(adapters, limiter, newCoordExecutor(), nil, time.Second)
	coord.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	out := coord.Run(context.Background(), Request{ID: "r1", Providers: []string{"a"}}, provider.Request{})
	if len(out.Failed) != 1 {
		t.Fatalf("expected a rate-limited failure, got %+v", out)
	}
	if len(out.Attempts) != 1 || out.Attempts[0].Outcome != OutcomeRateLimited {
		t.Fatalf("expected a rate_limited attempt record, got %+v", out.Attempts)
	}
}
