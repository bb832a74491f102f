package provider

import (
	"context"
)

// Request is the canonical analysis request handed to every adapter.
// The image is an opaque base64 payload; adapters only re-envelope it.
type Request struct {
	RequestID string
	ImageB64  string
	MimeType  string
	Prompt    string
	Locale    string
}

// Adapter translates between the canonical contract and one provider's wire shape.
// IsTransientFailure is the classification predicate the retry executor consults;
// each adapter implements it from its own error surface.
type Adapter interface {
	Name() string
	TranslateRequest(req Request) ([]byte, error)
	Invoke(ctx context.Context, payload []byte) (string, error)
	IsTransientFailure(err error) bool
}
