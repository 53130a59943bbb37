package radio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPacerSkipsFirstCall(t *testing.T) {
	p := NewPacer(5*time.Second, 10*time.Second)
	var slept []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	p.randN = func(n int64) int64 { return n - 1 }

	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	if len(slept) != 2 {
		t.Fatalf("expected 2 delays for 3 calls, got %d", len(slept))
	}
	for _, d := range slept {
		if d != 10*time.Second {
			t.Errorf("expected max delay, got %s", d)
		}
	}
}

func TestPacerDelayWithinBounds(t *testing.T) {
	p := NewPacer(5*time.Second, 10*time.Second)
	for i := 0; i < 200; i++ {
		d := p.next()
		if d < 5*time.Second || d > 10*time.Second {
			t.Fatalf("delay %s out of range", d)
		}
	}
}

func TestPacerCanceled(t *testing.T) {
	p := NewPacer(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	p.Wait(ctx)
	cancel()

	done := make(chan error, 1)
	go func() { done <- p.Wait(ctx) }()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait ignored cancellation")
	}
}

func TestVoiceRetriesOnce(t *testing.T) {
	attempts := 0
	synth := &fakeSynth{fail: func(string) bool {
		attempts++
		return attempts == 1
	}}
	v := NewVoice(synth, 2)

	path := filepath.Join(t.TempDir(), "seg.mp3")
	if err := v.SpeakToFile(context.Background(), "hello", 1.0, path); err != nil {
		t.Fatalf("SpeakToFile failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "<hello>" || synth.count() != 2 {
		t.Errorf("expected retried audio, got %q after %d calls", data, synth.count())
	}
}

func TestVoiceGivesUp(t *testing.T) {
	synth := &fakeSynth{fail: func(string) bool { return true }}
	_, err := NewVoice(synth, 2).Speak(context.Background(), "hello", 1.0)
	if !errors.Is(err, ErrProviderError) {
		t.Errorf("expected ErrProviderError, got %v", err)
	}
}
