package pipeline

import (
	"fmt"

	"whisperbridge/config"
	"whisperbridge/credstore"
	"whisperbridge/ocr"
	"whisperbridge/translate"
)

// Logical secret names looked up in the credential store.
const (
	SecretOpenRouter = "openrouter_api_key"
	SecretOpenAI     = "openai_api_key"
	SecretGoogle     = "google_api_key"
	SecretDeepL      = "deepl_api_key"
)

// BuildOCREngines maps the configured engine name onto concrete variants.
// The fallback engine is only wired when the primary is the vision engine;
// the local engine has nothing cheaper to fall back to.
func BuildOCREngines(snap config.Snapshot, creds credstore.Store) (primary, fallback ocr.Engine, err error) {
	switch snap.OCREngine {
	case config.EngineVision:
		key, err := creds.Secret(SecretOpenRouter)
		if err != nil {
			return nil, nil, fmt.Errorf("vision engine: %w", err)
		}
		vision, err := ocr.NewVisionEngine(ocr.VisionConfig{
			APIKey:    key,
			Model:     snap.VisionModel,
			BaseURL:   snap.VisionBaseURL,
			Prompt:    snap.OCRPrompt,
			Providers: snap.VisionProviders,
			Timeout:   snap.OCRTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		if snap.OCRFallback {
			return vision, ocr.NewTesseractEngine(), nil
		}
		return vision, nil, nil
	case config.EngineTesseract:
		return ocr.NewTesseractEngine(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown OCR engine %q", snap.OCREngine)
	}
}

// BuildProvider maps the configured provider name onto a concrete adapter.
// Returns nil when translation is disabled.
func BuildProvider(snap config.Snapshot, creds credstore.Store) (translate.Provider, error) {
	if !snap.TranslationEnabled {
		return nil, nil
	}

	secretName := map[string]string{
		config.ProviderOpenAI: SecretOpenAI,
		config.ProviderGoogle: SecretGoogle,
		config.ProviderDeepL:  SecretDeepL,
	}[snap.TranslationProvider]
	if secretName == "" {
		return nil, fmt.Errorf("unknown translation provider %q", snap.TranslationProvider)
	}

	key, err := creds.Secret(secretName)
	if err != nil {
		return nil, fmt.Errorf("%s provider: %w", snap.TranslationProvider, err)
	}

	switch snap.TranslationProvider {
	case config.ProviderOpenAI:
		return translate.NewOpenAIProvider(key, snap.TranslationModel, snap.TranslateTimeout), nil
	case config.ProviderGoogle:
		return translate.NewGoogleProvider(key, snap.TranslationModel, snap.TranslateTimeout), nil
	default:
		return translate.NewDeepLProvider(key, snap.DeepLPlan, snap.TranslateTimeout), nil
	}
}
