package radio

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/airadio/api/internal/client"
)

// Pacer spaces out synthesis calls by a random delay in [Min, Max]. The
// first call goes out at once.
type Pacer struct {
	Min, Max time.Duration

	started bool
	randN   func(n int64) int64
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a pacer for the given delay range
func NewPacer(minDelay, maxDelay time.Duration) *Pacer {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Pacer{
		Min:   minDelay,
		Max:   maxDelay,
		randN: rand.Int64N,
		sleep: sleepContext,
	}
}

// Wait blocks for the next delay. It returns early with the context error
// on cancellation.
func (p *Pacer) Wait(ctx context.Context) error {
	if !p.started {
		p.started = true
		return ctx.Err()
	}
	return p.sleep(ctx, p.next())
}

func (p *Pacer) next() time.Duration {
	span := int64(p.Max - p.Min)
	if span <= 0 {
		return p.Min
	}
	return p.Min + time.Duration(p.randN(span+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Voice synthesizes text into audio files
type Voice struct {
	synth    client.Synthesizer
	attempts int
}

// NewVoice wraps synth with the retry policy
func NewVoice(synth client.Synthesizer, attempts int) *Voice {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	return &Voice{synth: synth, attempts: attempts}
}

// Speak synthesizes text at speed and returns the encoded audio.
func (v *Voice) Speak(ctx context.Context, text string, speed float64) ([]byte, error) {
	return Retry(ctx, v.attempts, func(ctx context.Context, attempt int) Attempt[[]byte] {
		return observedCall("tts", func() ([]byte, error) {
			data, err := v.synth.Synthesize(ctx, text, speed)
			if err == nil && len(data) == 0 {
				err = errors.New("empty audio")
			}
			return data, err
		})
	})
}

// SpeakToFile synthesizes text and writes it to path.
func (v *Voice) SpeakToFile(ctx context.Context, text string, speed float64, path string) error {
	data, err := v.Speak(ctx, text, speed)
	if err != nil {
		return err
	}
	return writeAudio(path, data)
}

func writeAudio(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create audio dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}
	return nil
}
