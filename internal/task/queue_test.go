package task

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryQueueFIFO(t *testing.T) {
	q := NewMemoryQueue()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := q.Push(ctx, id); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	if q.Len() != 3 {
		t.Fatalf("expected len 3, got %d", q.Len())
	}

	for _, want := range []string{"a", "b", "c"} {
		got, ok, err := q.Pop(ctx, 10*time.Millisecond)
		if err != nil || !ok {
			t.Fatalf("pop: ok=%v err=%v", ok, err)
		}
		if got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	}
	if q.InFlight() != 3 {
		t.Errorf("expected 3 in flight, got %d", q.InFlight())
	}
	q.Done("a")
	if q.InFlight() != 2 {
		t.Errorf("expected 2 in flight, got %d", q.InFlight())
	}
}

func TestMemoryQueuePopTimeout(t *testing.T) {
	q := NewMemoryQueue()
	start := time.Now()
	_, ok, err := q.Pop(context.Background(), 20*time.Millisecond)
	if err != nil {
		t.Fatalf("timeout must not be an error: %v", err)
	}
	if ok {
		t.Fatal("expected no item")
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("pop returned before the wait elapsed")
	}
}

func TestMemoryQueuePopWakesOnPush(t *testing.T) {
	q := NewMemoryQueue()
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Push(context.Background(), "late")
	}()

	got, ok, err := q.Pop(context.Background(), time.Second)
	if err != nil || !ok || got != "late" {
		t.Fatalf("expected late, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestMemoryQueuePopCanceled(t *testing.T) {
	q := NewMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := q.Pop(ctx, time.Second); err == nil {
		t.Fatal("expected context error")
	}
}

func TestMemoryQueueConcurrentPush(t *testing.T) {
	q := NewMemoryQueue()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Push(context.Background(), fmt.Sprintf("job-%d", i))
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for {
		id, ok, _ := q.Pop(context.Background(), 5*time.Millisecond)
		if !ok {
			break
		}
		if seen[id] {
			t.Fatalf("duplicate %s", id)
		}
		seen[id] = true
	}
	if len(seen) != 50 {
		t.Errorf("expected 50 items, got %d", len(seen))
	}
}
