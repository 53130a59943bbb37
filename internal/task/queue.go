package task

import (
	"context"
	"sync"
	"time"
)

// Queue is a FIFO of job ids. Push may be called from any goroutine; Pop
// is called by the single worker and waits at most wait for an item.
type Queue interface {
	Push(ctx context.Context, jobID string) error
	// Pop returns ok=false when wait elapsed without an item.
	Pop(ctx context.Context, wait time.Duration) (jobID string, ok bool, err error)
	// Done marks a popped job as fully handled.
	Done(jobID string)
	// Len is the number of jobs waiting to be popped.
	Len() int
}

// MemoryQueue is an unbounded in-process Queue
type MemoryQueue struct {
	mu       sync.Mutex
	items    []string
	inflight map[string]struct{}
	notify   chan struct{}
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates an empty queue
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		inflight: make(map[string]struct{}),
		notify:   make(chan struct{}, 1),
	}
}

func (q *MemoryQueue) Push(_ context.Context, jobID string) error {
	q.mu.Lock()
	q.items = append(q.items, jobID)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

func (q *MemoryQueue) Pop(ctx context.Context, wait time.Duration) (string, bool, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			id := q.items[0]
			q.items[0] = ""
			q.items = q.items[1:]
			q.inflight[id] = struct{}{}
			q.mu.Unlock()
			return id, true, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-timer.C:
			return "", false, nil
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
}

func (q *MemoryQueue) Done(jobID string) {
	q.mu.Lock()
	delete(q.inflight, jobID)
	q.mu.Unlock()
}

func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// InFlight is the number of popped jobs not yet marked done.
func (q *MemoryQueue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inflight)
}
