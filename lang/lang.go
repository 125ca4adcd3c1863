// Package lang provides lightweight language detection for the translation
// step's "auto" source mode.
package lang

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// Detector guesses the ISO 639-1 code of a text sample. An empty result
// means detection declined to answer.
type Detector interface {
	Detect(text string) string
}

// LinguaDetector detects over the full lingua language set. The model build
// is deferred to the first call because it is expensive.
type LinguaDetector struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

func NewLinguaDetector() *LinguaDetector { return &LinguaDetector{} }

func (d *LinguaDetector) Detect(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	// Too few letters makes detection noise, not signal.
	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < 6 {
		return ""
	}

	language, exists := d.get().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func (d *LinguaDetector) get() lingua.LanguageDetector {
	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build()
	})
	return d.detector
}
