package openaivision

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
const ProviderName = "openai-vision"

const defaultPrompt = `You are a window replacement estimator. Look at the photo of a window and describe:
the window category (double hung, casement, sliding, bay, bow, awning, or picture),
the frame material (vinyl, wood, aluminum, fiberglass, or composite),
approximate width and height in inches, the window's condition,
and recommendations for the homeowner. Start the recommendations with the word "Recommendations:".`

// Adapter implements provider.Adapter over an OpenAI-style chat completions API.
// Images travel as a data-URL inside a multimodal user message.
type Adapter struct {
	Transport provider.Transport
	Model     string
	Timeout   time.Duration
}

// New constructs the adapter.
func New(transport provider.Transport, model string, timeout time.Duration) *Adapter {
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	return &Adapter{Transport: transport, Model: model, Timeout: timeout}
}

// Name returns the provider identifier.
func (a *Adapter) Name() string { return ProviderName }

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// TranslateRequest builds the chat-completions payload with the embedded image.
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

	body := chatRequest{
		Model:     a.Model,
		MaxTokens: 1000,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &imageURLPart{
						URL: fmt.Sprintf("data:%s;base64,%s", mime, req.ImageB64),
					}},
				},
			},
		},
	}
	return json.Marshal(body)
}

// Invoke sends the translated payload and extracts the assistant text.
func (a *Adapter) Invoke(ctx context.Context, payload []byte) (string, error) {
	raw, err := a.Transport.Send(ctx, ProviderName, payload, a.Timeout)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai response missing choices")
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai response empty content")
	}
	return content, nil
}

// IsTransientFailure classifies errors from Invoke. Rate limiting, timeouts and
// server errors are transient; auth and malformed-request errors are permanent.
func (a *Adapter) IsTransientFailure(err error) bool {
	if err == nil {
		return false
	}
	var httpErr *provider.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.Status == 408, httpErr.Status == 429:
			return true
		case httpErr.Status >= 500:
			return true
		default:
			return false
		}
	}
	if provider.TransientTransportError(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "server_error") || strings.Contains(msg, "rate_limit")
}

var _ provider.Adapter = (*Adapter)(nil)
