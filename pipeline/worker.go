package pipeline

import (
	"context"
	"image"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"whisperbridge/cache"
	"whisperbridge/capture"
	"whisperbridge/lang"
	"whisperbridge/ocr"
	"whisperbridge/translate"
)

// swapFallbackTarget is used by the auto-swap rule when the configured
// source gives no concrete language to swap back into.
const swapFallbackTarget = "en"

// maxBackoff caps the exponential retry delay.
const maxBackoff = 10 * time.Second

// Deps are the collaborators a Worker runs against. All of them are shared
// across runs and must therefore be safe for concurrent use; the caches
// guard themselves, everything else is called read-only.
type Deps struct {
	Capturer         capture.Capturer
	Primary          ocr.Engine
	Fallback         ocr.Engine // nil when no fallback engine is configured
	Provider         translate.Provider
	Detector         lang.Detector
	OCRCache         *cache.Cache
	TranslationCache *cache.Cache
	Post             func(Result) error
	Logger           zerolog.Logger

	// Sleep is the retry backoff wait; tests substitute it to observe
	// timing without waiting.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Worker executes one pipeline run. Workers are created per trigger and
// never reused.
type Worker struct {
	deps  Deps
	req   Request
	state state
	log   zerolog.Logger
}

func NewWorker(deps Deps, req Request) *Worker {
	if deps.Sleep == nil {
		deps.Sleep = sleepCtx
	}
	return &Worker{
		deps:  deps,
		req:   req,
		state: stateIdle,
		log:   deps.Logger.With().Uint64("run_id", req.RunID).Logger(),
	}
}

// Run drives the state machine to its terminal result and posts it. It is
// meant to be spawned on a fresh goroutine; it never touches UI state.
func (w *Worker) Run(ctx context.Context) {
	res := w.run(ctx)
	res.RunID = w.req.RunID
	w.transition(stateDone)
	w.log.Debug().Str("kind", res.Kind.String()).Msg("pipeline run finished")
	if err := w.deps.Post(res); err != nil {
		w.log.Error().Err(err).Msg("failed to post pipeline result")
	}
}

func (w *Worker) run(ctx context.Context) Result {
	if ctx.Err() != nil {
		return Result{Kind: ResultCancelled}
	}

	w.transition(stateCapturing)
	img, err := w.deps.Capturer.Capture(ctx, w.req.Region)
	if err != nil {
		if ctx.Err() != nil {
			return Result{Kind: ResultCancelled}
		}
		return Result{Kind: ResultFailed, FailedStage: StageCapture, Err: err}
	}

	// Stage boundary: cancellation is only honored between collaborator
	// calls, never mid-call.
	if ctx.Err() != nil {
		return Result{Kind: ResultCancelled}
	}

	w.transition(stateExtracting)
	outcome, err := w.extractText(ctx, img)
	img = nil // the image dies with the OCR stage
	if err != nil {
		if ctx.Err() != nil {
			return Result{Kind: ResultCancelled}
		}
		return Result{Kind: ResultFailed, FailedStage: StageOCR, Err: err}
	}
	if strings.TrimSpace(outcome.Text) == "" {
		return Result{Kind: ResultOcrEmpty, OCR: outcome}
	}

	if ctx.Err() != nil {
		return Result{Kind: ResultCancelled}
	}

	w.transition(stateTranslating)
	translation, err := w.translateText(ctx, outcome.Text)
	if err != nil {
		if ctx.Err() != nil {
			return Result{Kind: ResultCancelled}
		}
		return Result{Kind: ResultFailed, FailedStage: StageTranslate, Err: err}
	}

	return Result{Kind: ResultSuccess, OCR: outcome, Translation: translation}
}

// extractText runs the primary engine with a cache in front and at most one
// fallback attempt behind it.
func (w *Worker) extractText(ctx context.Context, img *image.RGBA) (ocr.Outcome, error) {
	s := w.req.Settings
	key := OCRKey(ImageFingerprint(img), s.OCRLanguages, w.deps.Primary.ID())

	if text, ok := w.deps.OCRCache.Get(key); ok {
		w.log.Debug().Msg("ocr cache hit")
		return ocr.Outcome{Text: text, Confidence: 1, Engine: w.deps.Primary.ID()}, nil
	}

	outcome, err := w.deps.Primary.Extract(ctx, img, s.OCRLanguages)

	// The fallback engine gets exactly one shot, and only when the primary
	// came back empty or failed transiently. Permanent failures end the run.
	switch {
	case err != nil && ocr.IsTransient(err) && w.deps.Fallback != nil:
	case err != nil:
		return ocr.Outcome{}, err
	case strings.TrimSpace(outcome.Text) == "" && w.deps.Fallback != nil:
	default:
		w.cacheOCR(key, outcome)
		return outcome, nil
	}

	if ctx.Err() != nil {
		return ocr.Outcome{}, ctx.Err()
	}

	w.transition(stateExtractingFallback)
	fallbackOutcome, fallbackErr := w.deps.Fallback.Extract(ctx, img, s.OCRLanguages)
	if fallbackErr != nil {
		return ocr.Outcome{}, fallbackErr
	}
	fallbackOutcome.FellBack = true
	w.cacheOCR(key, fallbackOutcome)
	return fallbackOutcome, nil
}

func (w *Worker) cacheOCR(key string, outcome ocr.Outcome) {
	if strings.TrimSpace(outcome.Text) != "" {
		w.deps.OCRCache.Put(key, outcome.Text)
	}
}

// translateText resolves the language pair, consults the cache and runs the
// provider under the bounded-backoff retry loop.
func (w *Worker) translateText(ctx context.Context, text string) (TranslationOutcome, error) {
	s := w.req.Settings
	if !s.TranslationEnabled || w.deps.Provider == nil {
		return TranslationOutcome{}, nil
	}

	source, target := w.resolveLanguages(text)
	providerID := w.deps.Provider.ID()

	key := TranslationKey(text, source, target, providerID)
	if cached, ok := w.deps.TranslationCache.Get(key); ok {
		w.log.Debug().Msg("translation cache hit")
		return TranslationOutcome{
			TranslatedText: cached,
			SourceLang:     source,
			TargetLang:     target,
			Provider:       providerID,
		}, nil
	}

	req := translate.Request{
		Text:         text,
		SourceLang:   source,
		TargetLang:   target,
		SystemPrompt: s.TranslationPrompt,
	}

	var lastErr error
	for attempt := 0; attempt <= s.RetryLimit; attempt++ {
		if attempt > 0 {
			if err := w.deps.Sleep(ctx, backoffDelay(s.RetryBaseDelay, attempt)); err != nil {
				return TranslationOutcome{}, err
			}
			w.log.Debug().Int("attempt", attempt+1).Msg("retrying translation")
		}

		translated, err := w.deps.Provider.Translate(ctx, req)
		if err == nil {
			w.deps.TranslationCache.Put(key, translated)
			return TranslationOutcome{
				TranslatedText: translated,
				SourceLang:     source,
				TargetLang:     target,
				Provider:       providerID,
			}, nil
		}
		lastErr = err
		if !translate.IsTransient(err) {
			return TranslationOutcome{}, err
		}
	}
	return TranslationOutcome{}, lastErr
}

// resolveLanguages applies auto-detection and the auto-swap rule: when the
// detected language already equals the configured target, the pair is
// swapped so the text is not translated into itself.
func (w *Worker) resolveLanguages(text string) (source, target string) {
	s := w.req.Settings
	source, target = s.SourceLang, s.TargetLang

	if source == "auto" {
		source = ""
		if w.deps.Detector != nil {
			source = w.deps.Detector.Detect(text)
		}
	}

	if s.AutoSwap && source != "" && source == target {
		if s.SourceLang != "auto" {
			target = s.SourceLang
		} else {
			target = swapFallbackTarget
		}
		if target == source {
			target = swapFallbackTarget
		}
		w.log.Debug().Str("source", source).Str("target", target).Msg("auto-swap applied")
	}
	return source, target
}

func (w *Worker) transition(next state) {
	w.log.Trace().Str("from", w.state.String()).Str("to", next.String()).Msg("state transition")
	w.state = next
}

// backoffDelay doubles per attempt from base, capped at maxBackoff.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base << (attempt - 1)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
