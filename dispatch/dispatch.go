// Package dispatch carries messages from background workers to the one
// goroutine that owns interactive state. Post is safe from any goroutine;
// Run drains on the owning goroutine and is the only place handlers execute.
package dispatch

import (
	"context"
	"errors"
	"time"
)

var (
	ErrShutdown = errors.New("dispatch: queue is shut down")
	ErrFull     = errors.New("dispatch: post timed out, queue full")
)

const postTimeout = 5 * time.Second

// Queue is a single-consumer message queue.
type Queue[T any] struct {
	ch   chan T
	ctx  context.Context
	stop context.CancelFunc
}

func NewQueue[T any](buffer int) *Queue[T] {
	if buffer < 1 {
		buffer = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue[T]{
		ch:   make(chan T, buffer),
		ctx:  ctx,
		stop: cancel,
	}
}

// Post enqueues a message. It blocks briefly when the consumer lags but
// never indefinitely, so a stuck UI cannot wedge worker goroutines.
func (q *Queue[T]) Post(msg T) error {
	select {
	case q.ch <- msg:
		return nil
	case <-time.After(postTimeout):
		return ErrFull
	case <-q.ctx.Done():
		return ErrShutdown
	}
}

// Run delivers queued messages to handler until ctx is cancelled or the
// queue is shut down. The caller's goroutine becomes the owning goroutine.
func (q *Queue[T]) Run(ctx context.Context, handler func(T)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.ctx.Done():
			return ErrShutdown
		case msg := <-q.ch:
			handler(msg)
		}
	}
}

// Chan exposes the receive side for a consumer that merges delivery into
// its own select. Receiving counts as consuming; do not combine with Run.
func (q *Queue[T]) Chan() <-chan T { return q.ch }

// Pending reports queued, undelivered messages.
func (q *Queue[T]) Pending() int { return len(q.ch) }

// Shutdown unblocks posters and the Run loop.
func (q *Queue[T]) Shutdown() { q.stop() }
