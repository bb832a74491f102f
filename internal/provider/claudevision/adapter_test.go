package claudevision

import (
	"context"
	"strings"
	"testing"
	"time"

	"window-backend/internal/provider"
)

type fakeTransport struct {
	resp []byte
	err  error
}

func (f *fakeTransport) Send(ctx context.Context, providerID string, body []byte, timeout time.Duration) ([]byte, error) {
	return f.resp, f.err
}

func TestTranslateRequestUsesBase64SourceBlock(t *testing.T) {
	a := New(&fakeTransport{}, "", time.Second)
	payload, err := a.TranslateRequest(provider.Request{ImageB64: "aGVsbG8=", MimeType: "image/jpeg"})
	if err != nil {
		t.Fatalf("TranslateRequest: %v", err)
	}
	if !strings.Contains(string(payload), `"type":"base64"`) {
		t.Fatalf("expected base64 source block, got %s", payload)
	}
	if !strings.Contains(string(payload), `"media_type":"image/jpeg"`) {
		t.Fatalf("expected media_type, got %s", payload)
	}
}

func TestInvokeConcatenatesTextBlocks(t *testing.T) {
	resp := []byte(`{"type":"message","content":[{"type":"text","text":"Double hung window, "},{"type":"text","text":"vinyl frame."}]}`)
	a := New(&fakeTransport{resp: resp}, "", time.Second)

	out, err := a.Invoke(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "Double hung window, vinyl frame." {
		t.Fatalf("unexpected content %q", out)
	}
}

func TestInvokeTypedErrorFromHTTPBody(t *testing.T) {
	httpErr := &provider.HTTPError{
		Provider: ProviderName,
		Status:   529,
		Body:     `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`,
	}
	a := New(&fakeTransport{err: httpErr}, "", time.Second)

	_, err := a.Invoke(context.Background(), []byte(`{}`))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !a.IsTransientFailure(err) {
		t.Fatalf("overloaded_error should be transient")
	}
}

func TestIsTransientFailureTypedPermanent(t *testing.T) {
	a := New(&fakeTransport{}, "", time.Second)
	err := &apiError{Type: "authentication_error", Message: "invalid x-api-key"}
	if a.IsTransientFailure(err) {
		t.Fatalf("authentication_error should be permanent")
	}
	err = &apiError{Type: "invalid_request_error", Message: "image too large"}
	if a.IsTransientFailure(err) {
		t.Fatalf("invalid_request_error should be permanent")
	}
}

func TestIsTransientFailureTypedTransient(t *testing.T) {
	a := New(&fakeTransport{}, "", time.Second)
	for _, typ := range []string{"overloaded_error", "api_error", "rate_limit_error"} {
		if !a.IsTransientFailure(&apiError{Type: typ}) {
			t.Fatalf("%s should be transient", typ)
		}
	}
}
