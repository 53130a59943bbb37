package task

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airadio/api/internal/metrics"
	"github.com/airadio/api/internal/model"
)

// Handler runs the stages of one job kind
type Handler interface {
	Handle(ctx context.Context, exec *Execution) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, exec *Execution) error

func (f HandlerFunc) Handle(ctx context.Context, exec *Execution) error {
	return f(ctx, exec)
}

// Worker drains the registry's queue one job at a time
type Worker struct {
	registry    *Registry
	handlers    map[model.JobKind]Handler
	pollTimeout time.Duration
	logger      zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	running bool
	wg      sync.WaitGroup
}

// NewWorker creates a worker for registry. pollTimeout bounds each wait
// on the queue.
func NewWorker(registry *Registry, pollTimeout time.Duration, logger zerolog.Logger) *Worker {
	if pollTimeout <= 0 {
		pollTimeout = time.Second
	}
	return &Worker{
		registry:    registry,
		handlers:    make(map[model.JobKind]Handler),
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// Handle registers h for jobs of kind
func (w *Worker) Handle(kind model.JobKind, h Handler) {
	w.mu.Lock()
	w.handlers[kind] = h
	w.mu.Unlock()
}

// Attach binds the worker to ctx and to its registry, which from then on
// accepts submissions. The loop runs until ctx is canceled.
func (w *Worker) Attach(ctx context.Context) {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	w.registry.attach(w)
	w.wake()
}

// Wait blocks until the loop has exited
func (w *Worker) Wait() {
	w.wg.Wait()
}

// wake starts the loop if it is not running.
func (w *Worker) wake() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running || w.ctx == nil || w.ctx.Err() != nil {
		return
	}
	w.running = true
	w.wg.Add(1)
	go w.run(w.ctx)
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.logger.Info().Msg("task worker started")
	for {
		id, ok, err := w.registry.queue.Pop(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info().Msg("task worker stopped")
				return
			}
			w.logger.Error().Err(err).Msg("queue pop failed")
			select {
			case <-time.After(w.pollTimeout):
			case <-ctx.Done():
				return
			}
			continue
		}
		if !ok {
			continue
		}
		w.process(ctx, id)
	}
}

// process runs one job. Whatever happens, the log sink is closed and the
// queue is told the job is done.
func (w *Worker) process(parent context.Context, id string) {
	defer w.registry.queue.Done(id)
	defer func() { metrics.SetQueueDepth(w.registry.queue.Len()) }()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	exec, err := w.registry.start(id, cancel)
	if err != nil {
		w.logger.Warn().Err(err).Str("task_id", id).Msg("skipping job")
		return
	}
	defer w.registry.detach(id)

	w.mu.Lock()
	h, ok := w.handlers[exec.Kind]
	w.mu.Unlock()

	if !ok {
		w.registry.fail(id, fmt.Errorf("no handler for job kind %q", exec.Kind))
		return
	}

	err = w.runHandler(ctx, h, exec)
	if err == nil {
		err = w.registry.complete(id)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) && parent.Err() == nil {
			err = fmt.Errorf("%w: %v", ErrCanceled, err)
		}
		w.registry.fail(id, err)
		return
	}
	w.logger.Info().Str("task_id", id).Msg("job completed")
}

func (w *Worker) runHandler(ctx context.Context, h Handler, exec *Execution) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			exec.Log.Error().Bytes("stack", debug.Stack()).Msgf("panic: %v", rec)
			err = fmt.Errorf("job panicked: %v", rec)
		}
	}()
	return h.Handle(ctx, exec)
}
