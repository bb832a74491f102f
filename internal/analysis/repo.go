package analysis

import (
	"context"
	"time"
)

// Repo defines persistence for analysis requests and their resolved results.
type Repo interface {
	SaveRequest(ctx context.Context, req Request) error
	SaveResult(ctx context.Context, result Result) error
	LoadResult(ctx context.Context, requestID string) (Result, error)
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
