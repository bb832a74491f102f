package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"window-backend/internal/events"
	"window-backend/internal/provider"
	"window-backend/internal/shared/storage/object"
	"window-backend/internal/shared/telemetry"
)

// DefaultPrompt is sent to vision providers unless the request overrides it.
const DefaultPrompt = `Analyze this photo of a window. Identify the window type (double-hung, casement, sliding, bay, bow, awning, or picture), the frame material (vinyl, wood, aluminum, fiberglass, or composite), its condition, and estimate its width and height in inches. List recommendations for repair or replacement. State your confidence as a percentage.`

// SubmitInput is what the transport layer hands to the service. Either
// PhotoKey references an already uploaded object, or ImageB64 carries the
// photo inline and the service stores it first.
type SubmitInput struct {
	RequestID      string
	PhotoKey       string
	ImageB64       string
	Providers      []string
	SessionID      string
	Locale         string
	PromptOverride string
}

// Service runs the full analysis pipeline: persist the request, fan out to
// providers, synthesize, persist the consensus. It also owns the offline
// buffer used while the backing store is unreachable.
type Service struct {
	repo        Repo
	photos      object.ObjectStore
	coordinator *Coordinator
	queue       *OfflineQueue
	sink        events.Sink

	providers []string
	priority  []string
	deadline  time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
	online   bool

	now func() time.Time
}

// NewService wires the orchestration service. providers is the default fan-out
// set; priority orders synthesis tie-breaks.
func NewService(repo Repo, photos object.ObjectStore, coordinator *Coordinator, queue *OfflineQueue, sink events.Sink, providers, priority []string, deadline time.Duration) *Service {
	if sink == nil {
		sink = events.NopSink{}
	}
	if len(priority) == 0 {
		priority = providers
	}
	return &Service{
		repo:        repo,
		photos:      photos,
		coordinator: coordinator,
		queue:       queue,
		sink:        sink,
		providers:   providers,
		priority:    priority,
		deadline:    deadline,
		inFlight:    make(map[string]bool),
		online:      true,
		now:         time.Now,
	}
}

// Submit runs one analysis synchronously. Submitting an id that already has a
// stored result returns that result without re-invoking any provider. While
// the backing store is unreachable the request is buffered and ErrQueued is
// returned.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Result, error) {
	req, err := s.buildRequest(ctx, in)
	if err != nil {
		return Result{}, err
	}

	if existing, err := s.repo.LoadResult(ctx, req.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		// The store is unreachable; buffer the request for replay.
		s.setOnline(false)
		s.queue.Enqueue(ctx, req)
		return Result{RequestID: req.ID}, ErrQueued
	}

	if !s.isOnline() {
		s.queue.Enqueue(ctx, req)
		return Result{RequestID: req.ID}, ErrQueued
	}

	return s.Process(ctx, req)
}

// Process resolves req end to end. It is the replay seam for the offline queue
// as well as the synchronous path behind Submit.
func (s *Service) Process(ctx context.Context, req Request) (Result, error) {
	s.markInFlight(req.ID, true)
	defer s.markInFlight(req.ID, false)

	if err := s.repo.SaveRequest(ctx, req); err != nil {
		return Result{}, fmt.Errorf("save request: %w", err)
	}
	s.setOnline(true)

	preq, err := s.providerRequest(ctx, req)
	if err != nil {
		return Result{}, err
	}

	fanOut := s.coordinator.Run(ctx, req, preq)
	failed := append([]string{}, fanOut.Failed...)
	failed = append(failed, fanOut.Abandoned...)

	result, err := Synthesize(fanOut.Results, s.priority)
	if err != nil {
		result = Result{
			Category:    CategoryUnknown,
			Material:    MaterialUnknown,
			Condition:   ConditionUnknown,
			CompletedAt: s.now().UTC(),
		}
		result.RequestID = req.ID
		result.Failed = failed
		if saveErr := s.repo.SaveResult(ctx, result); saveErr != nil {
			telemetry.Error("save failed result", map[string]any{"requestId": req.ID, "err": saveErr.Error()})
		}
		ev := events.NewEvent(events.TypeRequestFailed)
		ev.RequestID = req.ID
		ev.Detail = err.Error()
		s.sink.Emit(ctx, ev)
		return result, err
	}

	result.RequestID = req.ID
	result.Failed = failed
	result.Partial = len(failed) > 0
	result.CompletedAt = s.now().UTC()

	if err := s.repo.SaveResult(ctx, result); err != nil {
		return Result{}, fmt.Errorf("save result: %w", err)
	}

	ev := events.NewEvent(events.TypeRequestResolved)
	ev.RequestID = req.ID
	s.sink.Emit(ctx, ev)
	telemetry.Info("analysis resolved", map[string]any{
		"requestId":  req.ID,
		"providers":  result.Contributing,
		"failed":     result.Failed,
		"partial":    result.Partial,
		"confidence": result.Confidence,
	})
	return result, nil
}

// GetStatus reports where a request stands. Resolved requests include the
// stored result.
func (s *Service) GetStatus(ctx context.Context, requestID string) (string, *Result, error) {
	s.mu.Lock()
	pending := s.inFlight[requestID]
	s.mu.Unlock()
	if pending {
		return StatusPending, nil, nil
	}

	result, err := s.repo.LoadResult(ctx, requestID)
	if err != nil {
		return "", nil, err
	}
	if len(result.Contributing) == 0 {
		return StatusFailed, &result, nil
	}
	return StatusResolved, &result, nil
}

// ReplayQueued drains the offline buffer in submission order. Called when
// connectivity returns.
func (s *Service) ReplayQueued(ctx context.Context) (replayed, dropped int) {
	return s.queue.Replay(ctx, s)
}

// QueueDepth reports the number of buffered requests.
func (s *Service) QueueDepth() int { return s.queue.Len() }

// SweepExpired deletes results older than ttl. Returns the number removed.
func (s *Service) SweepExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-ttl)
	removed, err := s.repo.DeleteResolvedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		ev := events.NewEvent(events.TypeRetentionSweeped)
		ev.Detail = fmt.Sprintf("removed %d results", removed)
		s.sink.Emit(ctx, ev)
		telemetry.Info("retention sweep", map[string]any{"removed": removed, "cutoff": cutoff.Format(time.RFC3339)})
	}
	return removed, nil
}

func (s *Service) buildRequest(ctx context.Context, in SubmitInput) (Request, error) {
	id := in.RequestID
	if id == "" {
		id = uuid.NewString()
	}

	photoKey := in.PhotoKey
	if photoKey == "" {
		if in.ImageB64 == "" {
			return Request{}, fmt.Errorf("photoKey or imageBase64 required")
		}
		raw, err := base64.StdEncoding.DecodeString(in.ImageB64)
		if err != nil {
			return Request{}, fmt.Errorf("decode image: %w", err)
		}
		key, _, _, err := s.photos.Save(ctx, id+".img", bytes.NewReader(raw))
		if err != nil {
			return Request{}, fmt.Errorf("store photo: %w", err)
		}
		photoKey = key
	}

	providers := in.Providers
	if len(providers) == 0 {
		providers = s.providers
	}

	return Request{
		ID:             id,
		PhotoKey:       photoKey,
		Providers:      providers,
		SessionID:      in.SessionID,
		Locale:         in.Locale,
		PromptOverride: in.PromptOverride,
		CreatedAt:      s.now().UTC(),
		Deadline:       s.deadline,
	}, nil
}

func (s *Service) providerRequest(ctx context.Context, req Request) (provider.Request, error) {
	rc, err := s.photos.Open(ctx, req.PhotoKey)
	if err != nil {
		return provider.Request{}, fmt.Errorf("open photo %s: %w", req.PhotoKey, err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return provider.Request{}, fmt.Errorf("read photo %s: %w", req.PhotoKey, err)
	}

	prompt := req.PromptOverride
	if prompt == "" {
		prompt = DefaultPrompt
	}
	return provider.Request{
		RequestID: req.ID,
		ImageB64:  base64.StdEncoding.EncodeToString(raw),
		MimeType:  http.DetectContentType(raw),
		Prompt:    prompt,
		Locale:    req.Locale,
	}, nil
}

func (s *Service) markInFlight(id string, v bool) {
	s.mu.Lock()
	if v {
		s.inFlight[id] = true
	} else {
		delete(s.inFlight, id)
	}
	s.mu.Unlock()
}

func (s *Service) isOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *Service) setOnline(v bool) {
	s.mu.Lock()
	s.online = v
	s.mu.Unlock()
}
