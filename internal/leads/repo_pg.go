package leads

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new lead.
func (r *PGRepo) Create(ctx context.Context, lead Lead) error {
	const query = `
INSERT INTO leads (id, name, email, phone, zip, note, photo_key, analysis_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		nullable(lead.Phone),
		nullable(lead.Zip),
		nullable(lead.Note),
		nullable(lead.PhotoKey),
		nullable(lead.AnalysisID),
		lead.CreatedAt,
	)
	return err
}

// GetByID returns a lead by its ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Lead, error) {
	const query = `
SELECT id, name, email, phone, zip, note, photo_key, analysis_id, created_at
FROM leads WHERE id = $1 LIMIT 1`
	lead, err := scanLead(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// List returns leads newest first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Lead, error) {
	const query = `
SELECT id, name, email, phone, zip, note, photo_key, analysis_id, created_at
FROM leads ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (Lead, error) {
	var lead Lead
	var phone, zip, note, photoKey, analysisID sql.NullString
	err := row.Scan(&lead.ID, &lead.Name, &lead.Email, &phone, &zip, &note, &photoKey, &analysisID, &lead.CreatedAt)
	if err != nil {
		return Lead{}, err
	}
	lead.Phone = phone.String
	lead.Zip = zip.String
	lead.Note = note.String
	lead.PhotoKey = photoKey.String
	lead.AnalysisID = analysisID.String
	return lead, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
