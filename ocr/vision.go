package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strings"
	"time"

	"github.com/nfnt/resize"
)

const (
	// noTextSentinel is what the prompt instructs the model to answer when
	// the image contains no text.
	noTextSentinel = "NO_TEXT_FOUND"

	defaultMaxEdge   = 1280
	visionMaxTokens  = 2000
	defaultVisionTTL = 45 * time.Second
)

// VisionConfig configures the LLM-vision engine. Temperature is pinned to
// zero so identical images keep producing identical text and cache keys
// stay meaningful.
type VisionConfig struct {
	APIKey    string
	Model     string
	BaseURL   string // OpenAI-compatible root, e.g. https://openrouter.ai/api/v1
	Prompt    string
	Providers []string // optional upstream provider preference order
	Timeout   time.Duration
	MaxEdge   int // longest image edge sent over the wire
}

// VisionEngine performs OCR through an OpenAI-compatible vision chat model.
type VisionEngine struct {
	cfg    VisionConfig
	client *http.Client
}

func NewVisionEngine(cfg VisionConfig) (*VisionEngine, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("vision engine: API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("vision engine: model is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("vision engine: base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultVisionTTL
	}
	if cfg.MaxEdge <= 0 {
		cfg.MaxEdge = defaultMaxEdge
	}
	return &VisionEngine{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (e *VisionEngine) ID() string { return "vision/" + e.cfg.Model }

func (e *VisionEngine) Extract(ctx context.Context, img *image.RGBA, languages []string) (Outcome, error) {
	encoded, err := e.encodeImage(img)
	if err != nil {
		return Outcome{}, Permanent("encode image", err)
	}

	request := chatRequest{
		Model: e.cfg.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []chatContent{
					{Type: "text", Text: e.promptFor(languages)},
					{Type: "image_url", ImageURL: &imageURL{
						URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(encoded),
					}},
				},
			},
		},
		Temperature: 0,
		MaxTokens:   visionMaxTokens,
		Provider:    e.providerPreferences(),
	}

	text, err := e.send(ctx, request)
	if err != nil {
		return Outcome{}, err
	}

	text = cleanExtractedText(text)
	if strings.TrimSpace(text) == "" || strings.TrimSpace(text) == noTextSentinel {
		return Outcome{Engine: e.ID()}, nil
	}
	return Outcome{Text: text, Confidence: 1, Engine: e.ID()}, nil
}

func (e *VisionEngine) promptFor(languages []string) string {
	prompt := e.cfg.Prompt
	if prompt == "" {
		prompt = "Perform OCR on this image. Return ONLY the raw extracted text with:\n" +
			"- No formatting\n" +
			"- No XML/HTML tags\n" +
			"- No markdown\n" +
			"- No explanations\n" +
			"- Preserve line breaks accurately from the visual layout."
	}
	if len(languages) > 0 {
		prompt += "\nExpected languages: " + strings.Join(languages, ", ") + "."
	}
	return prompt + "\nIf no text found, return '" + noTextSentinel + "'"
}

func (e *VisionEngine) providerPreferences() *providerPreferences {
	if len(e.cfg.Providers) == 0 {
		return nil
	}
	allowFallbacks := false
	return &providerPreferences{
		Order:          e.cfg.Providers,
		AllowFallbacks: &allowFallbacks,
	}
}

// encodeImage caps the longest edge and encodes to PNG.
func (e *VisionEngine) encodeImage(img *image.RGBA) ([]byte, error) {
	var toEncode image.Image = img
	b := img.Bounds()
	if b.Dx() > e.cfg.MaxEdge || b.Dy() > e.cfg.MaxEdge {
		toEncode = resize.Thumbnail(uint(e.cfg.MaxEdge), uint(e.cfg.MaxEdge), img, resize.Lanczos3)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, toEncode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *VisionEngine) send(ctx context.Context, request chatRequest) (string, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return "", Permanent("marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", Permanent("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", Transient("send request", err)
	}
	defer resp.Body.Close()

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", Transient("decode response", err)
	}

	if response.Error != nil {
		err := fmt.Errorf("API error: %s (code %v)", response.Error.Message, response.Error.Code)
		return "", classifyStatus(resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, fmt.Errorf("API returned status %d", resp.StatusCode))
	}
	if len(response.Choices) == 0 {
		return "", Transient("parse response", errors.New("no choices in API response"))
	}
	return response.Choices[0].Message.Content, nil
}

// classifyStatus maps an HTTP status to the transient/permanent taxonomy.
// Rate limits, server errors and timeouts are worth retrying; auth and
// malformed-request failures are not.
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

func cleanExtractedText(text string) string {
	// Some models wrap output in stray image tags.
	text = strings.TrimSuffix(strings.TrimSpace(text), "</image>")
	return strings.TrimSpace(text)
}

// OpenAI-compatible chat structures, shared shape with the translation
// adapters but kept local so the engine stands alone.
type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type providerPreferences struct {
	Order          []string `json:"order,omitempty"`
	AllowFallbacks *bool    `json:"allow_fallbacks,omitempty"`
}

type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []chatMessage        `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
	Provider    *providerPreferences `json:"provider,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string      `json:"message"`
	Code    interface{} `json:"code"` // can be string or number
}
