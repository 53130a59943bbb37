package task

import "errors"

var (
	// ErrNotInitialized is returned by Submit before a worker is attached.
	ErrNotInitialized = errors.New("task registry not initialized")
	// ErrJobNotFound is returned for unknown job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobFinished is returned when acting on a terminal job.
	ErrJobFinished = errors.New("job already finished")
	// ErrInvalidTransition guards the job state machine.
	ErrInvalidTransition = errors.New("invalid job status transition")
	// ErrNoOutput prevents completing a job without its final audio.
	ErrNoOutput = errors.New("job produced no output file")
	// ErrCanceled is recorded on jobs canceled by a caller.
	ErrCanceled = errors.New("job canceled")
)
