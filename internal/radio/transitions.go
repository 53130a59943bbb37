package radio

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/airadio/api/internal/client"
	"github.com/airadio/api/internal/model"
)

// TransitionWriter produces the spoken bridge between two songs
type TransitionWriter struct {
	llm      client.LLM
	voice    *Voice
	attempts int
}

// NewTransitionWriter creates a writer speaking through voice
func NewTransitionWriter(llm client.LLM, voice *Voice, attempts int) *TransitionWriter {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	return &TransitionWriter{llm: llm, voice: voice, attempts: attempts}
}

// Text asks the language model for the transition script.
func (w *TransitionWriter) Text(ctx context.Context, current, next model.Song, opts model.DJOptions, log zerolog.Logger) (string, error) {
	prompt := TransitionPrompt(current, next, opts.Style, opts.Length)
	return Retry(ctx, w.attempts, func(ctx context.Context, attempt int) Attempt[string] {
		a := observedCall("llm", func() (string, error) {
			text, err := w.llm.Complete(ctx, SystemPrompt, prompt)
			if err == nil && len(SplitSentences(text)) == 0 {
				err = fmt.Errorf("%w: empty transition", ErrMalformedResponse)
			}
			return text, err
		})
		if a.Err != nil {
			log.Warn().Err(a.Err).Int("attempt", attempt).Msg("transition call failed")
		}
		return a
	})
}

// Render speaks text sentence by sentence at speed and writes the joined
// audio to path. ok is false when synthesis failed and the transition
// should be left out.
func (w *TransitionWriter) Render(ctx context.Context, text string, speed float64, path string, log zerolog.Logger) (bool, error) {
	var buf bytes.Buffer
	for i, sentence := range SplitSentences(text) {
		data, err := w.voice.Speak(ctx, sentence, speed)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false, err
			}
			log.Warn().Err(err).Int("sentence", i).Msg("transition synthesis failed")
			return false, nil
		}
		buf.Write(data)
	}
	if buf.Len() == 0 {
		return false, nil
	}
	if err := writeAudio(path, buf.Bytes()); err != nil {
		return false, err
	}
	return true, nil
}
