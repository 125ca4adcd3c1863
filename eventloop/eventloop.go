// Package eventloop coordinates the capture-to-translation flow on a single
// owning goroutine. Hotkey triggers, region selection and result delivery
// all happen here; pipeline runs execute on their own goroutines and report
// back through the dispatch queue.
package eventloop

import (
	"context"

	"github.com/rs/zerolog"

	"whisperbridge/capture"
	"whisperbridge/config"
	"whisperbridge/dispatch"
	"whisperbridge/pipeline"
)

// Selector obtains a screen region from the user. Implementations own the
// selection UI; cancelled reports that the user dismissed it.
type Selector interface {
	Select(ctx context.Context) (region capture.Region, cancelled bool, err error)
}

// ResultSink receives each terminal result that survived stale-result
// discard. Called on the owning goroutine.
type ResultSink func(pipeline.Result)

// Loop owns the interactive state. A newer trigger supersedes any in-flight
// run: the old run is cancelled, and if its result still arrives it is
// dropped because its run id no longer matches.
type Loop struct {
	store    *config.Store
	deps     pipeline.Deps
	selector Selector
	sinks    []ResultSink
	log      zerolog.Logger

	queue     *dispatch.Queue[pipeline.Result]
	triggerCh chan struct{}

	// Owning-goroutine state. Touched only inside Run.
	nextRunID uint64
	activeRun uint64
	cancelRun context.CancelFunc
}

func New(store *config.Store, deps pipeline.Deps, selector Selector, log zerolog.Logger, sinks ...ResultSink) *Loop {
	l := &Loop{
		store:     store,
		deps:      deps,
		selector:  selector,
		sinks:     sinks,
		log:       log,
		queue:     dispatch.NewQueue[pipeline.Result](4),
		triggerCh: make(chan struct{}, 4),
	}
	l.deps.Post = l.queue.Post
	return l
}

// Trigger requests a new run. Safe from any goroutine; extra triggers while
// the channel is full are coalesced.
func (l *Loop) Trigger() {
	select {
	case l.triggerCh <- struct{}{}:
	default:
	}
}

// Run processes triggers and results until ctx is cancelled. The calling
// goroutine becomes the owning goroutine.
func (l *Loop) Run(ctx context.Context) error {
	defer l.queue.Shutdown()
	defer l.stopActiveRun()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.triggerCh:
			l.handleTrigger(ctx)
		case res := <-l.queueCh():
			l.handleResult(res)
		}
	}
}

// queueCh exposes the dispatch channel for the select above. The loop is
// the queue's single consumer, so draining directly keeps result handling
// and trigger handling in one select.
func (l *Loop) queueCh() <-chan pipeline.Result {
	return l.queue.Chan()
}

func (l *Loop) handleTrigger(ctx context.Context) {
	region, cancelled, err := l.selector.Select(ctx)
	if err != nil {
		l.log.Error().Err(err).Msg("region selection failed")
		return
	}
	if cancelled {
		l.log.Debug().Msg("region selection dismissed")
		return
	}
	if !region.Valid() {
		l.log.Debug().Msg("degenerate region, ignoring")
		return
	}

	// A newer trigger supersedes the in-flight run.
	l.stopActiveRun()

	l.nextRunID++
	runID := l.nextRunID
	l.activeRun = runID

	runCtx, cancel := context.WithCancel(ctx)
	l.cancelRun = cancel

	req := pipeline.Request{
		RunID:    runID,
		Region:   region,
		Settings: l.store.Current(),
	}
	l.log.Info().Uint64("run_id", runID).Msg("starting pipeline run")
	go pipeline.NewWorker(l.deps, req).Run(runCtx)
}

func (l *Loop) handleResult(res pipeline.Result) {
	if res.RunID != l.activeRun {
		l.log.Debug().Uint64("run_id", res.RunID).Uint64("active", l.activeRun).Msg("discarding stale result")
		return
	}
	l.stopActiveRun()

	switch res.Kind {
	case pipeline.ResultSuccess:
		l.log.Info().Uint64("run_id", res.RunID).Str("engine", res.OCR.Engine).Msg("run succeeded")
	case pipeline.ResultOcrEmpty:
		l.log.Info().Uint64("run_id", res.RunID).Msg("no text found in region")
	case pipeline.ResultCancelled:
		l.log.Debug().Uint64("run_id", res.RunID).Msg("run cancelled")
	case pipeline.ResultFailed:
		l.log.Error().Uint64("run_id", res.RunID).Str("stage", res.FailedStage.String()).Err(res.Err).Msg("run failed")
	}

	for _, sink := range l.sinks {
		sink(res)
	}
}

func (l *Loop) stopActiveRun() {
	if l.cancelRun != nil {
		l.cancelRun()
		l.cancelRun = nil
	}
	l.activeRun = 0
}
