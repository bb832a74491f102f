package analysis

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo stores requests and results in memory and is safe for concurrent
// use. It backs local development and tests.
type MemoryRepo struct {
	mu       sync.RWMutex
	requests map[string]Request
	results  map[string]Result
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		requests: make(map[string]Request),
		results:  make(map[string]Result),
	}
}

// SaveRequest stores the request.
func (r *MemoryRepo) SaveRequest(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = req
	return nil
}

// SaveResult stores the resolved result, replacing any previous one.
func (r *MemoryRepo) SaveResult(ctx context.Context, result Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[result.RequestID] = result
	return nil
}

// LoadResult returns the stored result for a request.
func (r *MemoryRepo) LoadResult(ctx context.Context, requestID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.results[requestID]
	if !ok {
		return Result{}, ErrNotFound
	}
	return result, nil
}

// DeleteResolvedBefore removes results completed before cutoff along with their
// requests, and reports how many were removed.
func (r *MemoryRepo) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, result := range r.results {
		if result.CompletedAt.Before(cutoff) {
			delete(r.results, id)
			delete(r.requests, id)
			removed++
		}
	}
	return removed, nil
}
