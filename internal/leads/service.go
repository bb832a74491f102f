package leads

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"window-backend/internal/shared/telemetry"
)

// CreateInput is the validated payload for a new lead.
type CreateInput struct {
	Name       string
	Email      string
	Phone      string
	Zip        string
	Note       string
	PhotoKey   string
	AnalysisID string
}

// Service owns lead validation and persistence.
type Service struct {
	repo Repo
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create validates and stores a new lead.
func (s *Service) Create(ctx context.Context, in CreateInput) (Lead, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Lead{}, fmt.Errorf("name is required")
	}
	email := strings.TrimSpace(in.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Lead{}, fmt.Errorf("invalid email: %w", err)
	}

	lead := Lead{
		ID:         uuid.NewString(),
		Name:       name,
		Email:      email,
		Phone:      strings.TrimSpace(in.Phone),
		Zip:        strings.TrimSpace(in.Zip),
		Note:       strings.TrimSpace(in.Note),
		PhotoKey:   in.PhotoKey,
		AnalysisID: in.AnalysisID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	telemetry.Info("lead created", map[string]any{"leadId": lead.ID, "analysisId": lead.AnalysisID})
	return lead, nil
}

// Get returns a lead by ID.
func (s *Service) Get(ctx context.Context, id string) (Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns leads newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Lead, error) {
	return s.repo.List(ctx, limit, offset)
}
