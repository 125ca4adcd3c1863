package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"whisperbridge/cache"
	"whisperbridge/capture"
	"whisperbridge/clipboard"
	"whisperbridge/config"
	"whisperbridge/credstore"
	"whisperbridge/eventloop"
	"whisperbridge/hotkey"
	"whisperbridge/lang"
	"whisperbridge/logutil"
	"whisperbridge/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "whisperbridge:", err)
		os.Exit(1)
	}
}

func run() error {
	snap, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("validate configuration: %w", err)
	}

	log, err := logutil.Setup(snap.LogLevel, snap.EnableFileLogging)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}

	creds := credstore.Default()
	primary, fallback, err := pipeline.BuildOCREngines(snap, creds)
	if err != nil {
		return err
	}
	provider, err := pipeline.BuildProvider(snap, creds)
	if err != nil {
		return err
	}

	if err := clipboard.Init(); err != nil {
		return err
	}

	deps := pipeline.Deps{
		Capturer:         capture.NewScreenCapturer(),
		Primary:          primary,
		Fallback:         fallback,
		Provider:         provider,
		Detector:         lang.NewLinguaDetector(),
		OCRCache:         cache.New(snap.CacheSize, snap.CacheTTL),
		TranslationCache: cache.New(snap.CacheSize, snap.CacheTTL),
		Logger:           log,
	}

	store := config.NewStore(snap)
	loop := eventloop.New(store, deps, fullScreenSelector{}, log, deliverToClipboard(log))

	listener, err := hotkey.New(snap.Hotkey, log, loop.Trigger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go listener.Listen(ctx)

	log.Info().
		Str("engine", primary.ID()).
		Str("hotkey", snap.Hotkey).
		Bool("translation", snap.TranslationEnabled).
		Msg("whisperbridge ready")

	if err := loop.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info().Msg("shutting down")
	return nil
}

// fullScreenSelector targets the whole virtual desktop. A selection overlay
// can replace it without touching the loop.
type fullScreenSelector struct{}

func (fullScreenSelector) Select(ctx context.Context) (capture.Region, bool, error) {
	bounds, err := capture.VirtualBounds()
	if err != nil {
		return capture.Region{}, false, err
	}
	return regionFromRect(bounds), false, nil
}

func regionFromRect(r image.Rectangle) capture.Region {
	return capture.Region{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// deliverToClipboard copies successful runs to the clipboard: the
// translation when one was produced, the raw extraction otherwise.
func deliverToClipboard(log zerolog.Logger) eventloop.ResultSink {
	return func(res pipeline.Result) {
		if res.Kind != pipeline.ResultSuccess {
			return
		}
		text := res.Translation.TranslatedText
		if text == "" {
			text = res.OCR.Text
		}
		if err := clipboard.Write(text); err != nil {
			log.Error().Err(err).Msg("clipboard write failed")
		}
	}
}
