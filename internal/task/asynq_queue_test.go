package task

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

func newTestAsynqQueue(t *testing.T) *AsynqQueue {
	t.Helper()
	testRedis(t) // skips without Redis

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	opt := asynq.RedisClientOpt{Addr: addr, DB: 15}

	inspector := asynq.NewInspector(opt)
	_, _ = inspector.DeleteAllPendingTasks(asynqQueueName)
	inspector.Close()

	q := NewAsynqQueue(opt, zerolog.Nop())
	if err := q.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

func TestAsynqQueueFIFO(t *testing.T) {
	q := newTestAsynqQueue(t)
	ctx := context.Background()

	ids := []string{uuid.New().String(), uuid.New().String(), uuid.New().String()}
	for _, id := range ids {
		if err := q.Push(ctx, id); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}
	if n := q.Len(); n != 3 {
		t.Fatalf("expected Len 3, got %d", n)
	}

	for i, want := range ids {
		got, ok, err := q.Pop(ctx, 10*time.Second)
		if err != nil || !ok {
			t.Fatalf("Pop %d: ok=%v err=%v", i, ok, err)
		}
		if got != want {
			t.Fatalf("Pop %d: expected %s, got %s", i, want, got)
		}
		if n := q.Len(); n != len(ids)-i-1 {
			t.Errorf("after Pop %d expected Len %d, got %d", i, len(ids)-i-1, n)
		}

		// Nothing else is handed out until the job is done.
		if i < len(ids)-1 {
			if extra, ok, _ := q.Pop(ctx, 1500*time.Millisecond); ok {
				t.Fatalf("got %s while %s was still in flight", extra, got)
			}
		}
		q.Done(got)
	}

	if n := q.Len(); n != 0 {
		t.Errorf("expected Len 0, got %d", n)
	}
}

func TestAsynqQueuePopTimeout(t *testing.T) {
	q := newTestAsynqQueue(t)

	start := time.Now()
	_, ok, err := q.Pop(context.Background(), 50*time.Millisecond)
	if err != nil || ok {
		t.Fatalf("expected empty pop, got ok=%v err=%v", ok, err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("Pop waited too long: %s", time.Since(start))
	}
}

func TestAsynqQueuePopCanceled(t *testing.T) {
	q := newTestAsynqQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, ok, err := q.Pop(ctx, time.Second); ok || err == nil {
		t.Fatalf("expected context error, got ok=%v err=%v", ok, err)
	}
}

func TestAsynqQueueDoneUnknownIsNoop(t *testing.T) {
	q := NewAsynqQueue(asynq.RedisClientOpt{Addr: "127.0.0.1:1"}, zerolog.Nop())
	t.Cleanup(func() { q.client.Close() })
	q.Done("never-pushed")
	if n := q.Len(); n != 0 {
		t.Errorf("expected Len 0, got %d", n)
	}
}
