package openaivision

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"window-backend/internal/provider"
)

type fakeTransport struct {
	resp     []byte
	err      error
	lastBody []byte
}

func (f *fakeTransport) Send(ctx context.Context, providerID string, body []byte, timeout time.Duration) ([]byte, error) {
	f.lastBody = body
	return f.resp, f.err
}

func TestTranslateRequestEmbedsDataURL(t *testing.T) {
	a := New(&fakeTransport{}, "gpt-4o-mini", time.Second)
	payload, err := a.TranslateRequest(provider.Request{ImageB64: "aGVsbG8=", MimeType: "image/png"})
	if err != nil {
		t.Fatalf("TranslateRequest: %v", err)
	}
	if !strings.Contains(string(payload), "data:image/png;base64,aGVsbG8=") {
		t.Fatalf("expected data URL in payload, got %s", payload)
	}

	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if body["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model %v", body["model"])
	}
}

func TestTranslateRequestRequiresImage(t *testing.T) {
	a := New(&fakeTransport{}, "", time.Second)
	if _, err := a.TranslateRequest(provider.Request{}); err == nil {
		t.Fatalf("expected error for missing image")
	}
}

func TestInvokeExtractsContent(t *testing.T) {
	resp := []byte(`{"choices":[{"message":{"content":"A casement window in good condition."}}]}`)
	a := New(&fakeTransport{resp: resp}, "", time.Second)

	out, err := a.Invoke(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "A casement window in good condition." {
		t.Fatalf("unexpected content %q", out)
	}
}

func TestInvokeSurfacesErrorPayload(t *testing.T) {
	resp := []byte(`{"error":{"message":"quota exceeded","type":"rate_limit"}}`)
	a := New(&fakeTransport{resp: resp}, "", time.Second)

	_, err := a.Invoke(context.Background(), []byte(`{}`))
	if err == nil || !strings.Contains(err.Error(), "rate_limit") {
		t.Fatalf("expected rate_limit error, got %v", err)
	}
	if !a.IsTransientFailure(err) {
		t.Fatalf("rate_limit should classify as transient")
	}
}

func TestIsTransientFailureByStatus(t *testing.T) {
	a := New(&fakeTransport{}, "", time.Second)
	cases := []struct {
		status    int
		transient bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{408, true},
		{401, false},
		{400, false},
		{415, false},
	}
	for _, tc := range cases {
		err := &provider.HTTPError{Provider: ProviderName, Status: tc.status}
		if got := a.IsTransientFailure(err); got != tc.transient {
			t.Fatalf("status %d: expected transient=%v, got %v", tc.status, tc.transient, got)
		}
	}
}

func TestIsTransientFailureTimeout(t *testing.T) {
	a := New(&fakeTransport{}, "", time.Second)
	if !a.IsTransientFailure(context.DeadlineExceeded) {
		t.Fatalf("deadline exceeded should be transient")
	}
	if a.IsTransientFailure(errors.New("invalid api key")) {
		t.Fatalf("auth failure should be permanent")
	}
}
