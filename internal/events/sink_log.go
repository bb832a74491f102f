package events

import (
	"context"

	"window-backend/internal/shared/telemetry"
)

// LogSink writes events to the structured log.
type LogSink struct{}

// Emit logs the event.
func (LogSink) Emit(ctx context.Context, e Event) {
	telemetry.Info(e.Type, map[string]any{
		"request_id": e.RequestID,
		"provider":   e.Provider,
		"outcome":    e.Outcome,
		"attempt":    e.Attempt,
		"latency_ms": e.LatencyMS,
		"detail":     e.Detail,
	})
}
