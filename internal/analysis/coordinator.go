package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"window-backend/internal/events"
	"window-backend/internal/provider"
	"window-backend/internal/shared/telemetry"
)

// FanOut holds everything one concurrent analysis pass produced. Attempts is
// the full audit trail across providers, including the ones that failed.
type FanOut struct {
	Results   []NormalizedResult
	Failed    []string
	Abandoned []string
	Attempts  []CallAttempt
}

// Coordinator fans one request out to every configured provider concurrently
// and settles all of them. A provider that has not settled by the request
// deadline is abandoned; its late result is discarded, never merged.
type Coordinator struct {
	adapters map[string]provider.Adapter
	limiter  *RateLimiter
	executor *RetryExecutor
	sink     events.Sink
	deadline time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

// NewCoordinator wires the fan-out layer. sink may be nil.
func NewCoordinator(adapters []provider.Adapter, limiter *RateLimiter, executor *RetryExecutor, sink events.Sink, deadline time.Duration) *Coordinator {
	byName := make(map[string]provider.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	if sink == nil {
		sink = events.NopSink{}
	}
	if deadline <= 0 {
		deadline = 90 * time.Second
	}
	return &Coordinator{
		adapters: byName,
		limiter:  limiter,
		executor: executor,
		sink:     sink,
		deadline: deadline,
		sleep:    sleepCtx,
	}
}

type providerSettled struct {
	provider string
	result   *NormalizedResult
	attempts []CallAttempt
	err      error
}

// Run executes the fan-out for req. It never fails the whole request because
// one provider failed; per-provider outcomes are reported in the FanOut.
func (c *Coordinator) Run(ctx context.Context, req Request, preq provider.Request) FanOut {
	deadline := req.Deadline
	if deadline <= 0 {
		deadline = c.deadline
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	var (
		mu      sync.Mutex
		closed  bool
		out     FanOut
		pending = make(map[string]bool, len(req.Providers))
		wg      sync.WaitGroup
	)
	for _, name := range req.Providers {
		pending[name] = true
	}

	settle := func(s providerSettled) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			// The request already resolved without this provider.
			telemetry.Warn("discarding late provider result", map[string]any{
				"requestId": req.ID,
				"provider":  s.provider,
			})
			return
		}
		delete(pending, s.provider)
		out.Attempts = append(out.Attempts, s.attempts...)
		if s.err != nil {
			out.Failed = append(out.Failed, s.provider)
		} else if s.result != nil {
			out.Results = append(out.Results, *s.result)
		}
	}

	for _, name := range req.Providers {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			settle(c.runProvider(ctx, req, preq, name))
		}(name)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	closed = true
	for name := range pending {
		out.Abandoned = append(out.Abandoned, name)
	}
	mu.Unlock()

	for _, name := range out.Abandoned {
		c.sink.Emit(ctx, providerEvent(events.TypeProviderFailed, req.ID, name, OutcomeTimeout, "abandoned at request deadline"))
	}
	return out
}

func (c *Coordinator) runProvider(ctx context.Context, req Request, preq provider.Request, name string) providerSettled {
	adapter, ok := c.adapters[name]
	if !ok {
		err := fmt.Errorf("provider %s: not configured", name)
		c.sink.Emit(ctx, providerEvent(events.TypeProviderSkipped, req.ID, name, OutcomePermanentFailure, err.Error()))
		return providerSettled{provider: name, err: err}
	}

	if err := c.acquireSlot(ctx, name); err != nil {
		c.sink.Emit(ctx, providerEvent(events.TypeProviderSkipped, req.ID, name, OutcomeRateLimited, err.Error()))
		return providerSettled{
			provider: name,
			attempts: []CallAttempt{{Provider: name, Attempt: 1, StartedAt: time.Now().UTC(), Outcome: OutcomeRateLimited, Error: err.Error()}},
			err:      err,
		}
	}

	payload, err := adapter.TranslateRequest(preq)
	if err != nil {
		failure := &ProviderFailure{Provider: name, Transient: false, Err: err}
		c.sink.Emit(ctx, providerEvent(events.TypeProviderFailed, req.ID, name, OutcomePermanentFailure, err.Error()))
		return providerSettled{
			provider: name,
			attempts: []CallAttempt{{Provider: name, Attempt: 1, StartedAt: time.Now().UTC(), Outcome: OutcomePermanentFailure, Error: err.Error()}},
			err:      failure,
		}
	}

	raw, attempts, err := c.executor.Execute(ctx, name, adapter.IsTransientFailure, func(ctx context.Context) (string, error) {
		return adapter.Invoke(ctx, payload)
	})
	for _, a := range attempts {
		ev := providerEvent(events.TypeAttemptFinished, req.ID, name, a.Outcome, a.Error)
		ev.Attempt = a.Attempt
		ev.LatencyMS = float64(a.Latency) / float64(time.Millisecond)
		c.sink.Emit(ctx, ev)
	}
	if err != nil {
		telemetry.Warn("provider failed", map[string]any{
			"requestId": req.ID,
			"provider":  name,
			"attempts":  len(attempts),
			"err":       err.Error(),
		})
		c.sink.Emit(ctx, providerEvent(events.TypeProviderFailed, req.ID, name, lastOutcome(attempts), err.Error()))
		return providerSettled{provider: name, attempts: attempts, err: err}
	}

	result := Normalize(name, raw)
	return providerSettled{provider: name, attempts: attempts, result: &result}
}

// acquireSlot applies the rate limit. A denied provider waits out one full
// window and tries once more before giving up.
func (c *Coordinator) acquireSlot(ctx context.Context, name string) error {
	if c.limiter == nil || c.limiter.TryAcquire(name) {
		return nil
	}
	if err := c.sleep(ctx, c.limiter.Window()); err != nil {
		return fmt.Errorf("provider %s: %w", name, ErrRateLimited)
	}
	if c.limiter.TryAcquire(name) {
		return nil
	}
	return fmt.Errorf("provider %s: %w", name, ErrRateLimited)
}

func providerEvent(eventType, requestID, providerID, outcome, detail string) events.Event {
	ev := events.NewEvent(eventType)
	ev.RequestID = requestID
	ev.Provider = providerID
	ev.Outcome = outcome
	ev.Detail = detail
	return ev
}

func lastOutcome(attempts []CallAttempt) string {
	if len(attempts) == 0 {
		return OutcomePermanentFailure
	}
	return attempts[len(attempts)-1].Outcome
}
