package task

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

const (
	// TaskTypeGenerateRadio is the asynq task type carrying a job id
	TaskTypeGenerateRadio = "radio:generate"
	asynqQueueName        = "radio"
)

type asynqPayload struct {
	JobID string `json:"jobId"`
}

// AsynqQueue keeps the FIFO in Redis through asynq. A single-concurrency
// asynq server hands each job id to the worker loop and blocks until the
// worker calls Done, so at most one job is in flight.
type AsynqQueue struct {
	client  *asynq.Client
	server  *asynq.Server
	handoff chan string
	pending atomic.Int64
	logger  zerolog.Logger

	mu      sync.Mutex
	waiting map[string]chan struct{}
}

var _ Queue = (*AsynqQueue)(nil)

// NewAsynqQueue creates the queue; Start must be called before Pop.
func NewAsynqQueue(opt asynq.RedisClientOpt, logger zerolog.Logger) *AsynqQueue {
	q := &AsynqQueue{
		client:  asynq.NewClient(opt),
		handoff: make(chan string),
		logger:  logger,
		waiting: make(map[string]chan struct{}),
	}
	q.server = asynq.NewServer(opt, asynq.Config{
		Concurrency:     1,
		Queues:          map[string]int{asynqQueueName: 1},
		Logger:          asynqLogger{logger},
		LogLevel:        asynqLevel(logger.GetLevel()),
		ShutdownTimeout: 10 * time.Second,
	})
	return q
}

// Start begins consuming tasks from Redis
func (q *AsynqQueue) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeGenerateRadio, q.handle)
	if err := q.server.Start(mux); err != nil {
		return fmt.Errorf("start asynq server: %w", err)
	}
	return nil
}

// Close stops the server and the client
func (q *AsynqQueue) Close() error {
	q.server.Shutdown()
	return q.client.Close()
}

func (q *AsynqQueue) Push(ctx context.Context, jobID string) error {
	payload, err := json.Marshal(asynqPayload{JobID: jobID})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = q.client.EnqueueContext(ctx,
		asynq.NewTask(TaskTypeGenerateRadio, payload),
		asynq.Queue(asynqQueueName),
		asynq.TaskID(jobID),
		asynq.MaxRetry(0),
		asynq.Timeout(6*time.Hour),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	q.pending.Add(1)
	return nil
}

func (q *AsynqQueue) handle(ctx context.Context, t *asynq.Task) error {
	var p asynqPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	done := make(chan struct{})
	q.mu.Lock()
	q.waiting[p.JobID] = done
	q.mu.Unlock()

	select {
	case q.handoff <- p.JobID:
	case <-ctx.Done():
		q.mu.Lock()
		delete(q.waiting, p.JobID)
		q.mu.Unlock()
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *AsynqQueue) Pop(ctx context.Context, wait time.Duration) (string, bool, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case id := <-q.handoff:
		if q.pending.Add(-1) < 0 {
			q.pending.Store(0)
		}
		return id, true, nil
	case <-timer.C:
		return "", false, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

func (q *AsynqQueue) Done(jobID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if ch, ok := q.waiting[jobID]; ok {
		close(ch)
		delete(q.waiting, jobID)
	}
}

// Len counts jobs pushed by this process that the worker has not popped.
func (q *AsynqQueue) Len() int {
	return int(q.pending.Load())
}

// asynqLogger routes asynq's logs through zerolog
type asynqLogger struct {
	l zerolog.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }

func asynqLevel(l zerolog.Level) asynq.LogLevel {
	switch {
	case l <= zerolog.DebugLevel:
		return asynq.DebugLevel
	case l == zerolog.WarnLevel:
		return asynq.WarnLevel
	case l >= zerolog.ErrorLevel:
		return asynq.ErrorLevel
	default:
		return asynq.InfoLevel
	}
}
