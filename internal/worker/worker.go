package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"relaybot.app/relay/internal/model"
)

var ErrStopped = errors.New("worker stopped")

// MessageHandler runs one inbound event to a terminal outcome.
type MessageHandler interface {
	Handle(ctx context.Context, msg model.InboundMessage) model.Outcome
}

type Config struct {
	QueueSize int
}

// Worker dispatches inbound messages, one goroutine per event. Events are
// independent: a slow or panicking task never blocks the others and replies
// may complete in any order.
type Worker struct {
	handler MessageHandler
	queue   chan model.InboundMessage

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
	started   atomic.Bool
	inflight  sync.WaitGroup
}

func New(handler MessageHandler, cfg Config) *Worker {
	size := cfg.QueueSize
	if size < 1 {
		size = 1
	}
	return &Worker{
		handler:   handler,
		queue:     make(chan model.InboundMessage, size),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Submit enqueues msg. It blocks while the queue is full until ctx is done or
// the worker stops.
func (w *Worker) Submit(ctx context.Context, msg model.InboundMessage) error {
	select {
	case <-w.stopCh:
		return ErrStopped
	default:
	}

	select {
	case w.queue <- msg:
		return nil
	case <-w.stopCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("worker already running")
	}
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started", "queue_size", cap(w.queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			w.drain(ctx)
			return nil
		case msg := <-w.queue:
			w.dispatch(ctx, msg)
		}
	}
}

// Stop ends intake and waits until every dispatched task has finished.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	if w.started.Load() {
		<-w.stoppedCh
	}
	w.inflight.Wait()
}

// drain dispatches whatever was queued before Stop.
func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case msg := <-w.queue:
			w.dispatch(ctx, msg)
		default:
			return
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, msg model.InboundMessage) {
	// Tasks outlive the dispatch loop; nothing aborts them once started.
	taskCtx := context.WithoutCancel(ctx)

	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		if err := w.handleSafe(taskCtx, msg); err != nil {
			slog.ErrorContext(taskCtx, "message task failed",
				"error", err,
				"message_id", msg.ID,
				"channel_id", msg.ChannelID)
		}
	}()
}

func (w *Worker) handleSafe(ctx context.Context, msg model.InboundMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message task",
				"panic", r,
				"message_id", msg.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	outcome := w.handler.Handle(ctx, msg)
	slog.DebugContext(ctx, "message task finished",
		"message_id", msg.ID,
		"outcome", outcome)
	return nil
}
