package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	deeplFreeBaseURL = "https://api-free.deepl.com"
	deeplProBaseURL  = "https://api.deepl.com"
)

// DeepLProvider calls the DeepL v2 REST API. Unlike the chat providers it
// has no prompt; the system prompt in a Request is ignored.
type DeepLProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewDeepLProvider builds a provider for the given plan ("free" or "pro").
func NewDeepLProvider(apiKey, plan string, timeout time.Duration) *DeepLProvider {
	baseURL := deeplFreeBaseURL
	if strings.EqualFold(strings.TrimSpace(plan), "pro") {
		baseURL = deeplProBaseURL
	}
	if timeout <= 0 {
		timeout = defaultChatTimeout
	}
	return &DeepLProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *DeepLProvider) ID() string { return "deepl" }

// SetBaseURL points the provider at a different endpoint; used by tests.
func (p *DeepLProvider) SetBaseURL(u string) { p.baseURL = strings.TrimRight(u, "/") }

func (p *DeepLProvider) Translate(ctx context.Context, req Request) (string, error) {
	if p.apiKey == "" {
		return "", Permanent("configuration", errors.New("API key is required"))
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", Permanent("configuration", errors.New("text is required"))
	}

	form := url.Values{}
	form.Set("text", req.Text)
	form.Set("target_lang", strings.ToUpper(req.TargetLang))
	if req.SourceLang != "" {
		form.Set("source_lang", strings.ToUpper(req.SourceLang))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v2/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return "", Permanent("build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", Transient("send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", classifyDeepLStatus(resp.StatusCode)
	}

	var parsed struct {
		Translations []struct {
			Text                   string `json:"text"`
			DetectedSourceLanguage string `json:"detected_source_language"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", Transient("decode response", err)
	}
	if len(parsed.Translations) == 0 {
		return "", Transient("parse response", errors.New("response missing translations"))
	}
	return strings.TrimSpace(parsed.Translations[0].Text), nil
}

func classifyDeepLStatus(status int) *Error {
	err := fmt.Errorf("status %d", status)
	switch {
	case status == http.StatusTooManyRequests, status >= 500:
		return Transient("api call", err)
	case status == 456: // quota exceeded: retrying will not help this billing period
		return Permanent("api call", err)
	default:
		return Permanent("api call", err)
	}
}
