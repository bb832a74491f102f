package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres. Results are stored as a JSONB document
// alongside the columns the retention sweep and status lookups filter on.
type PGRepo struct {
	DB *sql.DB
}

// SaveRequest inserts the request, ignoring duplicates of the same id.
func (r *PGRepo) SaveRequest(ctx context.Context, req Request) error {
	const query = `
INSERT INTO analysis_requests (id, photo_key, providers, session_id, locale, prompt_override, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`
	providers, err := json.Marshal(req.Providers)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		req.ID,
		req.PhotoKey,
		providers,
		nullString(req.SessionID),
		nullString(req.Locale),
		nullString(req.PromptOverride),
		req.CreatedAt,
	)
	return err
}

// SaveResult upserts the resolved result for a request.
func (r *PGRepo) SaveResult(ctx context.Context, result Result) error {
	const query = `
INSERT INTO analysis_results (request_id, result, partial, confidence, completed_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (request_id) DO UPDATE
SET result = EXCLUDED.result, partial = EXCLUDED.partial,
    confidence = EXCLUDED.confidence, completed_at = EXCLUDED.completed_at`
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		result.RequestID,
		payload,
		result.Partial,
		result.Confidence,
		result.CompletedAt,
	)
	return err
}

// LoadResult returns the stored result for a request.
func (r *PGRepo) LoadResult(ctx context.Context, requestID string) (Result, error) {
	const query = `
SELECT result FROM analysis_results WHERE request_id = $1 LIMIT 1`
	var payload []byte
	err := r.DB.QueryRowContext(ctx, query, requestID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, ErrNotFound
	}
	if err != nil {
		return Result{}, err
	}
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, err
	}
	return result, nil
}

// DeleteResolvedBefore removes results completed before cutoff and reports how
// many rows were removed. Requests cascade through the foreign key.
func (r *PGRepo) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
DELETE FROM analysis_requests
WHERE id IN (SELECT request_id FROM analysis_results WHERE completed_at < $1)`
	res, err := r.DB.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
