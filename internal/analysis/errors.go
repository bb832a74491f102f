package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a request or result does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited marks a call denied by the local per-provider budget. It is
	// not retried by the executor; the coordinator applies a single
	// wait-and-retry before giving up on the provider for this request.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderExhausted marks a provider that used up its retry budget.
	ErrProviderExhausted = errors.New("provider retries exhausted")

	// ErrAllProvidersFailed is the only error that aborts a whole request.
	ErrAllProvidersFailed = errors.New("all providers failed")

	// ErrQueued tells the caller the request was buffered for replay instead of
	// being processed now.
	ErrQueued = errors.New("request queued for replay")
)

// ProviderFailure wraps a provider error with its classification so callers can
// log and record the outcome without re-running the adapter predicate.
type ProviderFailure struct {
	Provider  string
	Transient bool
	Err       error
}

func (e *ProviderFailure) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("provider %s %s failure: %v", e.Provider, kind, e.Err)
}

func (e *ProviderFailure) Unwrap() error { return e.Err }
