package ocr

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func visionServer(t *testing.T, handler http.HandlerFunc) (*VisionEngine, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	engine, err := NewVisionEngine(VisionConfig{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: srv.URL,
	})
	require.NoError(t, err)
	return engine, srv
}

func chatReply(text string) string {
	return `{"choices":[{"message":{"content":` + mustJSON(text) + `}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestNewVisionEngineValidation(t *testing.T) {
	_, err := NewVisionEngine(VisionConfig{Model: "m", BaseURL: "u"})
	assert.Error(t, err, "expected error with missing API key")

	_, err = NewVisionEngine(VisionConfig{APIKey: "k", BaseURL: "u"})
	assert.Error(t, err, "expected error with missing model")

	_, err = NewVisionEngine(VisionConfig{APIKey: "k", Model: "m"})
	assert.Error(t, err, "expected error with missing base URL")
}

func TestExtractSuccess(t *testing.T) {
	var gotReq chatRequest
	engine, _ := visionServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(chatReply("Hello world")))
	})

	out, err := engine.Extract(context.Background(), testImage(100, 40), []string{"en", "ru"})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", out.Text)
	assert.Equal(t, "vision/test-model", out.Engine)
	assert.Equal(t, float64(1), out.Confidence)

	assert.Zero(t, gotReq.Temperature, "decoding must stay deterministic")
	require.Len(t, gotReq.Messages, 1)
	require.Len(t, gotReq.Messages[0].Content, 2)
	assert.Contains(t, gotReq.Messages[0].Content[0].Text, "en, ru")
	assert.True(t, strings.HasPrefix(gotReq.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,"))
}

func TestExtractNoTextSentinel(t *testing.T) {
	engine, _ := visionServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply("NO_TEXT_FOUND")))
	})

	out, err := engine.Extract(context.Background(), testImage(10, 10), nil)
	require.NoError(t, err)
	assert.Empty(t, out.Text, "sentinel answer should become an empty outcome, not an error")
}

func TestExtractStripsImageTag(t *testing.T) {
	engine, _ := visionServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply("Hello</image>")))
	})

	out, err := engine.Extract(context.Background(), testImage(10, 10), nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello", out.Text)
}

func TestExtractRateLimitIsTransient(t *testing.T) {
	engine, _ := visionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","code":429}}`))
	})

	_, err := engine.Extract(context.Background(), testImage(10, 10), nil)
	require.Error(t, err)
	assert.True(t, IsTransient(err), "429 should map to a transient error")
}

func TestExtractAuthFailureIsPermanent(t *testing.T) {
	engine, _ := visionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","code":"invalid_api_key"}}`))
	})

	_, err := engine.Extract(context.Background(), testImage(10, 10), nil)
	require.Error(t, err)
	assert.False(t, IsTransient(err), "401 should map to a permanent error")
}

func TestExtractDownscalesLargeImages(t *testing.T) {
	engine, _ := visionServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply("ok")))
	})

	big := testImage(4000, 200)
	encoded, err := engine.encodeImage(big)
	require.NoError(t, err)

	small, err := engine.encodeImage(testImage(1280, 64))
	require.NoError(t, err)
	// A 4000px-wide frame capped at 1280 should not encode bigger than the
	// already-small frame by orders of magnitude.
	assert.Less(t, len(encoded), len(small)*4)
}
