package task

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/airadio/api/internal/metrics"
	"github.com/airadio/api/internal/model"
)

// Observer is told about job changes. Calls happen outside the registry
// lock with a snapshot, in the order the changes were made.
type Observer interface {
	JobProgress(view model.JobView)
	JobCompleted(view model.JobView)
	JobFailed(view model.JobView)
}

// RegistryOptions configures a Registry
type RegistryOptions struct {
	LogDir string
	// LogMirror receives a copy of every job log line (optional).
	LogMirror io.Writer
	Logger    zerolog.Logger
}

type entry struct {
	job    *model.Job
	log    *JobLog
	cancel context.CancelFunc
}

// Registry owns job records and the queue feeding the worker
type Registry struct {
	mu        sync.RWMutex
	jobs      map[string]*entry
	queue     Queue
	worker    *Worker
	observers []Observer

	logDir    string
	logMirror io.Writer
	logger    zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewRegistry creates a registry backed by queue
func NewRegistry(queue Queue, opts RegistryOptions) *Registry {
	return &Registry{
		jobs:      make(map[string]*entry),
		queue:     queue,
		logDir:    opts.LogDir,
		logMirror: opts.LogMirror,
		logger:    opts.Logger,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// AddObserver registers o for job change notifications
func (r *Registry) AddObserver(o Observer) {
	r.mu.Lock()
	r.observers = append(r.observers, o)
	r.mu.Unlock()
}

// LogDir is where job logs are written
func (r *Registry) LogDir() string {
	return r.logDir
}

func (r *Registry) attach(w *Worker) {
	r.mu.Lock()
	r.worker = w
	r.mu.Unlock()
}

// Submit records a pending job and queues it. It never waits for the
// worker.
func (r *Registry) Submit(ctx context.Context, kind model.JobKind, params any) (model.SubmitReceipt, error) {
	r.mu.RLock()
	w := r.worker
	r.mu.RUnlock()
	if w == nil {
		return model.SubmitReceipt{}, ErrNotInitialized
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return model.SubmitReceipt{}, fmt.Errorf("marshal params: %w", err)
	}

	id := r.newID()
	job := &model.Job{
		ID:        id,
		Kind:      kind,
		Params:    raw,
		Status:    model.JobStatusPending,
		LogFile:   LogFileName(id),
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	r.jobs[id] = &entry{job: job}
	r.mu.Unlock()

	if err := r.queue.Push(ctx, id); err != nil {
		r.mu.Lock()
		delete(r.jobs, id)
		r.mu.Unlock()
		return model.SubmitReceipt{}, fmt.Errorf("queue job: %w", err)
	}
	metrics.SetQueueDepth(r.queue.Len())

	r.logger.Info().Str("task_id", id).Str("kind", string(kind)).Msg("job submitted")
	w.wake()

	return model.SubmitReceipt{
		TaskID:  id,
		LogFile: job.LogFile,
		Status:  model.JobStatusPending,
	}, nil
}

// Status returns a snapshot of the job
func (r *Registry) Status(id string) (model.JobView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.jobs[id]
	if !ok {
		return model.JobView{}, false
	}
	return e.job.View(), true
}

// ReportProgress updates the stage and percent of a processing job and
// appends message to its log.
func (r *Registry) ReportProgress(id string, stage model.Stage, percent int, message string) {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}

	r.mu.Lock()
	e, ok := r.jobs[id]
	if !ok || e.job.Status != model.JobStatusProcessing {
		r.mu.Unlock()
		return
	}
	s := stage
	e.job.CurrentStage = &s
	e.job.Progress = percent
	if e.log != nil {
		e.log.Logger.Info().
			Str("stage", string(stage)).
			Int("progress", percent).
			Msg(message)
	}
	view := e.job.View()
	observers := r.observers
	r.mu.Unlock()

	for _, o := range observers {
		o.JobProgress(view)
	}
}

// Cancel stops a job. Pending jobs fail at once; a processing job has its
// context canceled and fails when the pipeline notices.
func (r *Registry) Cancel(id string) (model.CancelReceipt, error) {
	r.mu.Lock()
	e, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return model.CancelReceipt{}, ErrJobNotFound
	}

	switch e.job.Status {
	case model.JobStatusPending:
		r.finishLocked(e, model.JobStatusFailed, ErrCanceled.Error())
		view := e.job.View()
		observers := r.observers
		r.mu.Unlock()
		metrics.IncJob(string(model.JobStatusFailed))
		for _, o := range observers {
			o.JobFailed(view)
		}
		return model.CancelReceipt{TaskID: id, Status: view.Status}, nil
	case model.JobStatusProcessing:
		if e.cancel != nil {
			e.cancel()
		}
		status := e.job.Status
		r.mu.Unlock()
		return model.CancelReceipt{TaskID: id, Status: status}, nil
	default:
		r.mu.Unlock()
		return model.CancelReceipt{}, ErrJobFinished
	}
}

// start moves a pending job to processing and opens its log sink.
func (r *Registry) start(id string, cancel context.CancelFunc) (*Execution, error) {
	r.mu.Lock()
	e, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return nil, ErrJobNotFound
	}
	if !canTransition(e.job.Status, model.JobStatusProcessing) {
		status := e.job.Status
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, status, model.JobStatusProcessing)
	}

	jl, err := OpenJobLog(r.logDir, id, r.logMirror)
	if err != nil {
		r.logger.Error().Err(err).Str("task_id", id).Msg("job log unavailable, logging to service log")
	}

	now := r.now()
	e.job.Status = model.JobStatusProcessing
	e.job.StartedAt = &now
	e.log = jl
	e.cancel = cancel

	logger := r.logger.With().Str("task_id", id).Logger()
	if jl != nil {
		logger = jl.Logger
		logger.Info().Str("log_file", jl.Path()).Msg("=== starting task ===")
	}

	exec := &Execution{
		JobID:    id,
		Kind:     e.job.Kind,
		Params:   append(json.RawMessage(nil), e.job.Params...),
		Log:      logger,
		registry: r,
	}
	view := e.job.View()
	observers := r.observers
	r.mu.Unlock()

	for _, o := range observers {
		o.JobProgress(view)
	}
	return exec, nil
}

// record applies fn to the job's result under the lock.
func (r *Registry) record(id string, fn func(*model.JobResult)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok || e.job.Status != model.JobStatusProcessing {
		return
	}
	if e.job.Result == nil {
		e.job.Result = &model.JobResult{}
	}
	fn(e.job.Result)
}

// complete finalizes a successful run. A job without an output file
// cannot complete.
func (r *Registry) complete(id string) error {
	r.mu.Lock()
	e, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return ErrJobNotFound
	}
	if !canTransition(e.job.Status, model.JobStatusCompleted) {
		status := e.job.Status
		r.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, status, model.JobStatusCompleted)
	}
	if e.job.Result == nil || e.job.Result.OutputFile == "" {
		r.mu.Unlock()
		return ErrNoOutput
	}

	stage := model.StageCompleted
	e.job.CurrentStage = &stage
	e.job.Progress = 100
	if e.log != nil {
		e.log.Logger.Info().Str("output_file", e.job.Result.OutputFile).Msg("task completed successfully")
	}
	r.finishLocked(e, model.JobStatusCompleted, "")
	view := e.job.View()
	observers := r.observers
	r.mu.Unlock()

	metrics.IncJob(string(model.JobStatusCompleted))
	for _, o := range observers {
		o.JobCompleted(view)
	}
	return nil
}

// fail finalizes a failed run with the verbatim cause.
func (r *Registry) fail(id string, cause error) {
	r.mu.Lock()
	e, ok := r.jobs[id]
	if !ok || !canTransition(e.job.Status, model.JobStatusFailed) {
		r.mu.Unlock()
		return
	}

	if e.log != nil {
		e.log.Logger.Error().Err(cause).Msg("task failed")
	}
	r.finishLocked(e, model.JobStatusFailed, cause.Error())
	view := e.job.View()
	observers := r.observers
	r.mu.Unlock()

	metrics.IncJob(string(model.JobStatusFailed))
	for _, o := range observers {
		o.JobFailed(view)
	}
}

// detach closes the job log sink and drops the cancel func. It runs on
// every exit path of a job run.
func (r *Registry) detach(id string) {
	r.mu.Lock()
	e, ok := r.jobs[id]
	var jl *JobLog
	if ok {
		jl = e.log
		e.log = nil
		e.cancel = nil
	}
	r.mu.Unlock()

	if jl != nil {
		if err := jl.Close(); err != nil {
			r.logger.Warn().Err(err).Str("task_id", id).Msg("failed to close job log")
		}
	}
}

func (r *Registry) finishLocked(e *entry, status model.JobStatus, errMsg string) {
	now := r.now()
	e.job.Status = status
	e.job.CompletedAt = &now
	if errMsg != "" {
		msg := errMsg
		e.job.Error = &msg
	}
}

func canTransition(from, to model.JobStatus) bool {
	switch from {
	case model.JobStatusPending:
		return to == model.JobStatusProcessing || to == model.JobStatusFailed
	case model.JobStatusProcessing:
		return to == model.JobStatusCompleted || to == model.JobStatusFailed
	default:
		return false
	}
}
