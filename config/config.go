package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPathVar points at an alternate .env file when none sits next to
	// the executable.
	EnvPathVar = "WHISPERBRIDGE_ENV"

	EngineVision    = "vision"
	EngineTesseract = "tesseract"

	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
	ProviderDeepL  = "deepl"

	defaultOCRPrompt = "Extract the text as-is. Keep natural reading order. Return only the text."
)

// Snapshot holds every setting the pipeline consults. A Snapshot handed to a
// run is never mutated afterwards; live edits go through Store.
type Snapshot struct {
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`
	EnableFileLogging bool   `envconfig:"ENABLE_FILE_LOGGING" default:"false"`
	Hotkey            string `envconfig:"HOTKEY" default:"Ctrl+Alt+Q"`

	OCREngine       string        `envconfig:"OCR_ENGINE" default:"vision"`
	OCRLanguages    []string      `envconfig:"OCR_LANGUAGES" default:"en,ru"`
	OCRPrompt       string        `envconfig:"OCR_PROMPT"`
	OCRFallback     bool          `envconfig:"OCR_FALLBACK" default:"true"`
	OCRTimeout      time.Duration `envconfig:"OCR_TIMEOUT" default:"20s"`
	VisionModel     string        `envconfig:"VISION_MODEL" default:"google/gemini-2.0-flash-001"`
	VisionBaseURL   string        `envconfig:"VISION_BASE_URL" default:"https://openrouter.ai/api/v1"`
	VisionProviders []string      `envconfig:"VISION_PROVIDERS"`

	TranslationEnabled  bool          `envconfig:"TRANSLATION_ENABLED" default:"true"`
	TranslationProvider string        `envconfig:"TRANSLATION_PROVIDER" default:"openai"`
	TranslationModel    string        `envconfig:"TRANSLATION_MODEL" default:"gpt-4o-mini"`
	TranslationPrompt   string        `envconfig:"TRANSLATION_PROMPT" default:"You are a translator. Translate the user text and return only the translation."`
	SourceLang          string        `envconfig:"SOURCE_LANG" default:"auto"`
	TargetLang          string        `envconfig:"TARGET_LANG" default:"en"`
	AutoSwap            bool          `envconfig:"AUTO_SWAP" default:"false"`
	TranslateTimeout    time.Duration `envconfig:"TRANSLATE_TIMEOUT" default:"30s"`
	RetryLimit          int           `envconfig:"RETRY_LIMIT" default:"3"`
	RetryBaseDelay      time.Duration `envconfig:"RETRY_BASE_DELAY" default:"500ms"`
	DeepLPlan           string        `envconfig:"DEEPL_PLAN" default:"free"`

	CacheSize int           `envconfig:"CACHE_SIZE" default:"128"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"1h"`
}

// Load reads the .env next to the executable (or the WHISPERBRIDGE_ENV file)
// into the process environment, then builds a Snapshot from it.
func Load() (Snapshot, error) {
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	var snap Snapshot
	if err := envconfig.Process("", &snap); err != nil {
		return Snapshot{}, err
	}
	if snap.OCRPrompt == "" {
		snap.OCRPrompt = defaultOCRPrompt
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return snap, nil
}

func (s Snapshot) Validate() error {
	switch s.OCREngine {
	case EngineVision, EngineTesseract:
	default:
		return fmt.Errorf("OCR_ENGINE must be %q or %q, got %q", EngineVision, EngineTesseract, s.OCREngine)
	}
	switch s.TranslationProvider {
	case ProviderOpenAI, ProviderGoogle, ProviderDeepL:
	default:
		return fmt.Errorf("TRANSLATION_PROVIDER must be one of openai, google, deepl; got %q", s.TranslationProvider)
	}
	if len(s.OCRLanguages) == 0 {
		return fmt.Errorf("OCR_LANGUAGES must list at least one language")
	}
	if strings.TrimSpace(s.TargetLang) == "" {
		return fmt.Errorf("TARGET_LANG is required")
	}
	if s.RetryLimit < 0 {
		return fmt.Errorf("RETRY_LIMIT must be >= 0")
	}
	if s.CacheSize < 1 {
		return fmt.Errorf("CACHE_SIZE must be >= 1")
	}
	if s.OCRTimeout <= 0 || s.TranslateTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// Clone returns a deep copy so a run's snapshot cannot alias live slices.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.OCRLanguages = append([]string(nil), s.OCRLanguages...)
	out.VisionProviders = append([]string(nil), s.VisionProviders...)
	return out
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvPathVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

// Store is the live settings provider. Readers get an isolated copy, so an
// in-flight run never observes a concurrent edit.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStore(snap Snapshot) *Store {
	return &Store{snap: snap.Clone()}
}

// Current returns an immutable copy of the live settings.
func (st *Store) Current() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snap.Clone()
}

// Update replaces the live settings. In-flight runs keep their snapshots.
func (st *Store) Update(snap Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.snap = snap.Clone()
}
