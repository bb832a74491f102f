package claudevision

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
const ProviderName = "claude-vision"

const defaultPrompt = `Inspect this photograph of a residential window. Report the window type
(double hung, casement, sliding, bay, bow, awning, picture), the frame material
(vinyl, wood, aluminum, fiberglass, composite), estimated dimensions as "W x H" in inches,
the overall condition, and a short "Recommendations:" section for the homeowner.`

// Adapter implements provider.Adapter over a messages-style API where images are
// sent as a base64 source block and errors arrive as a typed payload.
type Adapter struct {
	Transport provider.Transport
	Model     string
	Timeout   time.Duration
}

// New constructs the adapter.
func New(transport provider.Transport, model string, timeout time.Duration) *Adapter {
	if strings.TrimSpace(model) == "" {
		model = "claude-sonnet-4-5"
	}
	return &Adapter{Transport: transport, Model: model, Timeout: timeout}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return ProviderName }

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Type    string `json:"type"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("claude error: %s (%s)", e.Message, e.Type)
}

// TranslateRequest builds the messages payload with the base64 image block first.
func (a *Adapter) TranslateRequest(req provider.Request) ([]byte, error) {
	if strings.TrimSpace(req.ImageB64) == "" {
		return nil, errors.New("image payload is required")
	}
	mime := req.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	prompt := req.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultPrompt
	}

	body := messagesRequest{
		Model:     a.Model,
		MaxTokens: 1024,
		Messages: []message{
			{
				Role: "user",
				Content: []contentBlock{
					{Type: "image", Source: &imageSource{Type: "base64", MediaType: mime, Data: req.ImageB64}},
					{Type: "text", Text: prompt},
				},
			},
		},
	}
	return json.Marshal(body)
}

// Invoke sends the translated payload and extracts the text blocks.
func (a *Adapter) Invoke(ctx context.Context, payload []byte) (string, error) {
	raw, err := a.Transport.Send(ctx, ProviderName, payload, a.Timeout)
	if err != nil {
		// Error bodies still carry the typed payload; surface it when present.
		var httpErr *provider.HTTPError
		if errors.As(err, &httpErr) {
			if typed := parseAPIError([]byte(httpErr.Body)); typed != nil {
				return "", fmt.Errorf("%w: %w", typed, err)
			}
		}
		return "", err
	}

	var parsed messagesResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("claude response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", parsed.Error
	}

	var b strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", errors.New("claude response empty content")
	}
	return content, nil
}

// IsTransientFailure classifies by the typed error payload first and falls back
// to HTTP status and transport signals.
func (a *Adapter) IsTransientFailure(err error) bool {
	if err == nil {
		return false
	}
	var typed *apiError
	if errors.As(err, &typed) {
		switch typed.Type {
		case "overloaded_error", "api_error", "rate_limit_error", "timeout_error":
			return true
		default:
			return false
		}
	}
	var httpErr *provider.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status == 429 || httpErr.Status == 408 || httpErr.Status >= 500
	}
	return provider.TransientTransportError(err)
}

func parseAPIError(body []byte) *apiError {
	var envelope struct {
		Type  string    `json:"type"`
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if envelope.Error == nil || envelope.Error.Type == "" {
		return nil
	}
	return envelope.Error
}

var _ provider.Adapter = (*Adapter)(nil)
