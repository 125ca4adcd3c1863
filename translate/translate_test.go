package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, handler http.HandlerFunc) *ChatProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewChatProvider("openai", srv.URL, "test-key", "test-model", time.Second)
}

func TestChatProviderTranslate(t *testing.T) {
	var gotReq chatRequest
	p := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Привет"}}]}`))
	})

	got, err := p.Translate(context.Background(), Request{
		Text:         "Hello",
		SourceLang:   "en",
		TargetLang:   "ru",
		SystemPrompt: "You are a translator.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Привет", got)

	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[1].Content, "from en into ru")
	assert.Contains(t, gotReq.Messages[1].Content, "Hello")
}

func TestChatProviderErrorMapping(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		transient bool
	}{
		{"rate limit", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
		{"auth failure", http.StatusUnauthorized, false},
		{"bad request", http.StatusBadRequest, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			})
			_, err := p.Translate(context.Background(), Request{Text: "x", TargetLang: "en"})
			require.Error(t, err)
			assert.Equal(t, tc.transient, IsTransient(err))
		})
	}
}

func TestChatProviderRejectsEmptyText(t *testing.T) {
	p := NewOpenAIProvider("key", "model", time.Second)
	_, err := p.Translate(context.Background(), Request{Text: "  ", TargetLang: "en"})
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestChatProviderRequiresAPIKey(t *testing.T) {
	p := NewOpenAIProvider("", "model", time.Second)
	_, err := p.Translate(context.Background(), Request{Text: "hi", TargetLang: "en"})
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestProviderIDs(t *testing.T) {
	assert.Equal(t, "openai/gpt-4o-mini", NewOpenAIProvider("k", "gpt-4o-mini", 0).ID())
	assert.Equal(t, "google/gemini-2.0-flash", NewGoogleProvider("k", "gemini-2.0-flash", 0).ID())
	assert.Equal(t, "deepl", NewDeepLProvider("k", "free", 0).ID())
}

func TestDeepLTranslate(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "DeepL-Auth-Key test-key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"text":        r.PostForm.Get("text"),
			"source_lang": r.PostForm.Get("source_lang"),
			"target_lang": r.PostForm.Get("target_lang"),
		}
		_, _ = w.Write([]byte(`{"translations":[{"text":"Hallo","detected_source_language":"EN"}]}`))
	}))
	t.Cleanup(srv.Close)

	p := NewDeepLProvider("test-key", "free", time.Second)
	p.SetBaseURL(srv.URL)

	got, err := p.Translate(context.Background(), Request{Text: "Hello", SourceLang: "en", TargetLang: "de"})
	require.NoError(t, err)
	assert.Equal(t, "Hallo", got)
	assert.Equal(t, "Hello", gotForm["text"])
	assert.Equal(t, "EN", gotForm["source_lang"])
	assert.Equal(t, "DE", gotForm["target_lang"])
}

func TestDeepLErrorMapping(t *testing.T) {
	assert.Equal(t, KindTransient, classifyDeepLStatus(http.StatusTooManyRequests).Kind)
	assert.Equal(t, KindTransient, classifyDeepLStatus(http.StatusInternalServerError).Kind)
	assert.Equal(t, KindPermanent, classifyDeepLStatus(456).Kind)
	assert.Equal(t, KindPermanent, classifyDeepLStatus(http.StatusForbidden).Kind)
}
