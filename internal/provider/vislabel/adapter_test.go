package vislabel

import (
	"context"
	"encoding/json"
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

func TestTranslateRequestShape(t *testing.T) {
	a := New(&fakeTransport{}, time.Second)
	payload, err := a.TranslateRequest(provider.Request{ImageB64: "aGVsbG8="})
	if err != nil {
		t.Fatalf("TranslateRequest: %v", err)
	}
	var body annotateRequest
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if len(body.Requests) != 1 || body.Requests[0].Image.Content != "aGVsbG8=" {
		t.Fatalf("unexpected payload %s", payload)
	}
	if body.Requests[0].Features[0].Type != "LABEL_DETECTION" {
		t.Fatalf("expected LABEL_DETECTION feature")
	}
}

func TestInvokeReturnsLabelJSON(t *testing.T) {
	resp := []byte(`{"responses":[{"labelAnnotations":[{"description":"window","score":0.97},{"description":"wood","score":0.81}]}]}`)
	a := New(&fakeTransport{resp: resp}, time.Second)

	out, err := a.Invoke(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if !strings.Contains(out, `"description":"wood"`) {
		t.Fatalf("expected labels in output, got %s", out)
	}
}

func TestInvokeEntryError(t *testing.T) {
	resp := []byte(`{"responses":[{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"quota"}}]}`)
	a := New(&fakeTransport{resp: resp}, time.Second)

	_, err := a.Invoke(context.Background(), []byte(`{}`))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !a.IsTransientFailure(err) {
		t.Fatalf("RESOURCE_EXHAUSTED should be transient")
	}
}

func TestIsTransientFailureStatusStrings(t *testing.T) {
	a := New(&fakeTransport{}, time.Second)
	if a.IsTransientFailure(&statusError{Code: 400, Status: "INVALID_ARGUMENT"}) {
		t.Fatalf("INVALID_ARGUMENT should be permanent")
	}
	if a.IsTransientFailure(&statusError{Code: 403, Status: "PERMISSION_DENIED"}) {
		t.Fatalf("PERMISSION_DENIED should be permanent")
	}
	if !a.IsTransientFailure(&statusError{Code: 503, Status: "UNAVAILABLE"}) {
		t.Fatalf("UNAVAILABLE should be transient")
	}
}
