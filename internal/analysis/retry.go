package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryExecutor wraps a single provider call with bounded exponential-backoff
// retry. Only failures the provider's predicate classifies as transient are
// retried; permanent failures propagate immediately.
type RetryExecutor struct {
	MaxRetries int
	BaseDelay  time.Duration

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewRetryExecutor constructs an executor with the given retry budget.
func NewRetryExecutor(maxRetries int, baseDelay time.Duration) *RetryExecutor {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return &RetryExecutor{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		sleep:      sleepCtx,
		now:        time.Now,
	}
}

// Execute runs call until it succeeds, fails permanently, or exhausts the
// retry budget. Every try is recorded as a CallAttempt; the attempts slice is
// returned in all cases so the caller can persist the audit trail.
func (e *RetryExecutor) Execute(ctx context.Context, providerID string, transient func(error) bool, call func(context.Context) (string, error)) (string, []CallAttempt, error) {
	maxAttempts := e.MaxRetries + 1
	attempts := make([]CallAttempt, 0, maxAttempts)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		startedAt := e.now().UTC()
		raw, err := call(ctx)
		latency := e.now().Sub(startedAt)

		record := CallAttempt{
			Provider:  providerID,
			Attempt:   attempt,
			StartedAt: startedAt,
			Latency:   latency,
		}

		if err == nil {
			record.Outcome = OutcomeSuccess
			record.RawResponse = raw
			attempts = append(attempts, record)
			return raw, attempts, nil
		}

		record.Error = err.Error()
		isTimeout := errors.Is(err, context.DeadlineExceeded)
		isTransient := isTimeout || (transient != nil && transient(err))
		switch {
		case isTimeout:
			record.Outcome = OutcomeTimeout
		case isTransient:
			record.Outcome = OutcomeTransientFailure
		default:
			record.Outcome = OutcomePermanentFailure
		}
		attempts = append(attempts, record)

		if !isTransient {
			return "", attempts, &ProviderFailure{Provider: providerID, Transient: false, Err: err}
		}
		if attempt == maxAttempts {
			break
		}

		// base_delay * 2^attempt. The only backoff cap is the retry budget.
		delay := e.BaseDelay * (1 << attempt)
		if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
			return "", attempts, &ProviderFailure{Provider: providerID, Transient: true, Err: sleepErr}
		}
	}

	return "", attempts, fmt.Errorf("provider %s after %d attempts: %w", providerID, maxAttempts, ErrProviderExhausted)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
