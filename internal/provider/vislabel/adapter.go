package vislabel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"window-backend/internal/provider"
)

// ProviderName identifies this adapter in configuration and results.
const ProviderName = "vislabel"

// Adapter implements provider.Adapter over a label-detection API. Unlike the
// language-model adapters it returns structured annotations, which the
// normalizer consumes as semi-structured JSON.
type Adapter struct {
	Transport provider.Transport
	Timeout   time.Duration
	MaxLabels int
}

// New constructs the adapter.
func New(transport provider.Transport, timeout time.Duration) *Adapter {
	return &Adapter{Transport: transport, Timeout: timeout, MaxLabels: 20}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return ProviderName }

type annotateRequest struct {
	Requests []annotateEntry `json:"requests"`
}

type annotateEntry struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateImage struct {
	Content string `json:"content"`
}

type annotateFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type annotateResponse struct {
	Responses []struct {
		LabelAnnotations []labelAnnotation `json:"labelAnnotations"`
		Error            *statusError      `json:"error,omitempty"`
	} `json:"responses"`
	Error *statusError `json:"error,omitempty"`
}

type labelAnnotation struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

type statusError struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (e *statusError) Error() string {
	return fmt.Sprintf("vislabel error code=%d status=%s: %s", e.Code, e.Status, e.Message)
}

// TranslateRequest builds the annotate payload. The prompt is ignored; label
// detection has no text channel.
func (a *Adapter) TranslateRequest(req provider.Request) ([]byte, error) {
	if strings.TrimSpace(req.ImageB64) == "" {
		return nil, errors.New("image payload is required")
	}
	maxLabels := a.MaxLabels
	if maxLabels <= 0 {
		maxLabels = 20
	}
	body := annotateRequest{
		Requests: []annotateEntry{
			{
				Image:    annotateImage{Content: req.ImageB64},
				Features: []annotateFeature{{Type: "LABEL_DETECTION", MaxResults: maxLabels}},
			},
		},
	}
	return json.Marshal(body)
}

// Invoke sends the payload and returns the label annotations as a JSON document
// of description/score pairs for the normalizer.
func (a *Adapter) Invoke(ctx context.Context, payload []byte) (string, error) {
	raw, err := a.Transport.Send(ctx, ProviderName, payload, a.Timeout)
	if err != nil {
		var httpErr *provider.HTTPError
		if errors.As(err, &httpErr) {
			if typed := parseStatusError([]byte(httpErr.Body)); typed != nil {
				return "", fmt.Errorf("%w: %w", typed, err)
			}
		}
		return "", err
	}

	var parsed annotateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("vislabel response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", parsed.Error
	}
	if len(parsed.Responses) == 0 {
		return "", errors.New("vislabel response missing annotations")
	}
	entry := parsed.Responses[0]
	if entry.Error != nil {
		return "", entry.Error
	}

	out, err := json.Marshal(struct {
		Labels []labelAnnotation `json:"labels"`
	}{Labels: entry.LabelAnnotations})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// IsTransientFailure classifies by the typed status payload, HTTP status, then
// transport signals.
func (a *Adapter) IsTransientFailure(err error) bool {
	if err == nil {
		return false
	}
	var typed *statusError
	if errors.As(err, &typed) {
		switch typed.Status {
		case "RESOURCE_EXHAUSTED", "UNAVAILABLE", "DEADLINE_EXCEEDED", "INTERNAL", "ABORTED":
			return true
		}
		return typed.Code == 429 || typed.Code >= 500
	}
	var httpErr *provider.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status == 429 || httpErr.Status >= 500
	}
	return provider.TransientTransportError(err)
}

func parseStatusError(body []byte) *statusError {
	var envelope struct {
		Error *statusError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if envelope.Error == nil || (envelope.Error.Code == 0 && envelope.Error.Status == "") {
		return nil
	}
	return envelope.Error
}

var _ provider.Adapter = (*Adapter)(nil)
