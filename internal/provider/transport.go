package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport delivers a translated request to a provider endpoint. Implementations
// must support independent, concurrent in-flight calls.
type Transport interface {
	Send(ctx context.Context, providerID string, body []byte, timeout time.Duration) ([]byte, error)
}

// Endpoint describes where and how to reach one provider.
type Endpoint struct {
	URL     string
	Headers map[string]string
}

// HTTPError is a transport-level failure carrying the provider's HTTP status.
type HTTPError struct {
	Provider string
	Status   int
	Body     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("provider %s http status %d: %s", e.Provider, e.Status, truncate(e.Body, 200))
}

// HTTPTransport posts JSON payloads to per-provider endpoints.
type HTTPTransport struct {
	Client    *http.Client
	Endpoints map[string]Endpoint
}

// NewHTTPTransport constructs a transport over the given endpoints.
func NewHTTPTransport(endpoints map[string]Endpoint) *HTTPTransport {
	return &HTTPTransport{
		Client:    &http.Client{},
		Endpoints: endpoints,
	}
}

// Send posts body to the provider's endpoint and returns the raw response body.
// Non-2xx statuses are returned as *HTTPError.
func (t *HTTPTransport) Send(ctx context.Context, providerID string, body []byte, timeout time.Duration) ([]byte, error) {
	endpoint, ok := t.Endpoints[providerID]
	if !ok {
		return nil, fmt.Errorf("no endpoint configured for provider %q", providerID)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range endpoint.Headers {
		req.Header.Set(k, v)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Provider: providerID, Status: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
