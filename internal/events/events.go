package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types emitted by the analysis orchestrator.
const (
	TypeAttemptFinished  = "analysis.attempt_finished"
	TypeProviderFailed   = "analysis.provider_failed"
	TypeProviderSkipped  = "analysis.provider_skipped"
	TypeRequestResolved  = "analysis.request_resolved"
	TypeRequestFailed    = "analysis.request_failed"
	TypeRequestQueued    = "analysis.request_queued"
	TypeRequestReplayed  = "analysis.request_replayed"
	TypeRetentionSweeped = "analysis.retention_swept"
)

// Event is a typed record of something the orchestrator did. The core emits
// these instead of performing logging or analytics I/O inline.
type Event struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId,omitempty"`
	Provider  string  `json:"provider,omitempty"`
	Outcome   string  `json:"outcome,omitempty"`
	Attempt   int     `json:"attempt,omitempty"`
	LatencyMS float64 `json:"latencyMs,omitempty"`
	Detail    string  `json:"detail,omitempty"`
	At        string  `json:"at"`
}

// NewEvent fills in the timestamp.
func NewEvent(eventType string) Event {
	return Event{Type: eventType, At: time.Now().UTC().Format(time.RFC3339Nano)}
}

// Encode returns the JSON representation of an event.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Sink receives orchestrator events. Implementations must not block the caller
// for long; delivery is best-effort.
type Sink interface {
	Emit(ctx context.Context, e Event)
}

// NopSink discards all events.
type NopSink struct{}

// Emit does nothing.
func (NopSink) Emit(ctx context.Context, e Event) {}
