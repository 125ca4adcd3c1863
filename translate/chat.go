package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	openAIBaseURL = "https://api.openai.com/v1"
	// Gemini models answer through Google's OpenAI-compatible surface, so
	// one chat adapter serves both providers.
	googleBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

	defaultChatTimeout = 30 * time.Second
)

// ChatProvider translates through an OpenAI-compatible chat completions
// endpoint.
type ChatProvider struct {
	name    string
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

func NewOpenAIProvider(apiKey, model string, timeout time.Duration) *ChatProvider {
	return newChatProvider("openai", openAIBaseURL, apiKey, model, timeout)
}

func NewGoogleProvider(apiKey, model string, timeout time.Duration) *ChatProvider {
	return newChatProvider("google", googleBaseURL, apiKey, model, timeout)
}

// NewChatProvider builds an adapter for an arbitrary OpenAI-compatible
// endpoint; tests point it at a local server.
func NewChatProvider(name, baseURL, apiKey, model string, timeout time.Duration) *ChatProvider {
	return newChatProvider(name, baseURL, apiKey, model, timeout)
}

func newChatProvider(name, baseURL, apiKey, model string, timeout time.Duration) *ChatProvider {
	if timeout <= 0 {
		timeout = defaultChatTimeout
	}
	return &ChatProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *ChatProvider) ID() string { return p.name + "/" + p.model }

func (p *ChatProvider) Translate(ctx context.Context, req Request) (string, error) {
	if p.apiKey == "" {
		return "", Permanent("configuration", errors.New("API key is required"))
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", Permanent("configuration", errors.New("text is required"))
	}

	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: formatPrompt(req)},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", Permanent("marshal request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", Permanent("build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", Transient("send request", err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", Transient("decode response", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Errorf("status %d", resp.StatusCode)
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = fmt.Errorf("status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", classifyStatus(resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return "", Transient("parse response", errors.New("response missing choices"))
	}

	translated := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if translated == "" {
		return "", Transient("parse response", errors.New("translation response was empty"))
	}
	return translated, nil
}

func formatPrompt(req Request) string {
	if req.SourceLang == "" {
		return fmt.Sprintf("Translate the following text into %s:\n\n%s", req.TargetLang, req.Text)
	}
	return fmt.Sprintf("Translate the following text from %s into %s:\n\n%s", req.SourceLang, req.TargetLang, req.Text)
}

func classifyStatus(status int, err error) *Error {
	switch {
	case status == http.StatusTooManyRequests,
		status == http.StatusRequestTimeout,
		status >= 500:
		return Transient("api call", err)
	default:
		return Permanent("api call", err)
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}
