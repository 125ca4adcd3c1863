package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSnapshot() Snapshot {
	return Snapshot{
		OCREngine:           EngineVision,
		OCRLanguages:        []string{"en", "ru"},
		OCRTimeout:          20 * time.Second,
		TranslationProvider: ProviderOpenAI,
		TargetLang:          "en",
		TranslateTimeout:    30 * time.Second,
		CacheSize:           128,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validSnapshot().Validate())

	bad := validSnapshot()
	bad.OCREngine = "easyocr"
	assert.Error(t, bad.Validate())

	bad = validSnapshot()
	bad.TranslationProvider = "yandex"
	assert.Error(t, bad.Validate())

	bad = validSnapshot()
	bad.OCRLanguages = nil
	assert.Error(t, bad.Validate())

	bad = validSnapshot()
	bad.RetryLimit = -1
	assert.Error(t, bad.Validate())

	bad = validSnapshot()
	bad.CacheSize = 0
	assert.Error(t, bad.Validate())
}

func TestLoadDefaults(t *testing.T) {
	snap, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Ctrl+Alt+Q", snap.Hotkey)
	assert.Equal(t, EngineVision, snap.OCREngine)
	assert.Equal(t, "auto", snap.SourceLang)
	assert.Equal(t, 3, snap.RetryLimit)
	assert.NotEmpty(t, snap.OCRPrompt)
}

func TestCloneIsolatesSlices(t *testing.T) {
	snap := validSnapshot()
	clone := snap.Clone()
	clone.OCRLanguages[0] = "de"
	assert.Equal(t, "en", snap.OCRLanguages[0])
}

func TestStoreIsolatesReaders(t *testing.T) {
	store := NewStore(validSnapshot())

	seen := store.Current()
	edited := validSnapshot()
	edited.TargetLang = "ru"
	store.Update(edited)

	assert.Equal(t, "en", seen.TargetLang)
	assert.Equal(t, "ru", store.Current().TargetLang)
}
