package radio

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/airadio/api/internal/catalog"
	"github.com/airadio/api/internal/client"
	"github.com/airadio/api/internal/metrics"
	"github.com/airadio/api/internal/model"
)

// ScriptWriter gathers transcripts for an artist and asks the language
// model for the intro script.
type ScriptWriter struct {
	catalog     catalog.Catalog
	transcriber client.Transcriber
	llm         client.LLM
	templates   Templates
	limit       int
	attempts    int
}

// Script is the output of script generation
type Script struct {
	Songs       []model.Song
	Transcripts []model.SongTranscript
	Prompt      string
	Text        string
}

// NewScriptWriter wires the script stage. limit bounds each transcript in
// the prompt.
func NewScriptWriter(cat catalog.Catalog, transcriber client.Transcriber, llm client.LLM, templates Templates, limit, attempts int) *ScriptWriter {
	if limit <= 0 {
		limit = DefaultTranscriptLimit
	}
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	return &ScriptWriter{
		catalog:     cat,
		transcriber: transcriber,
		llm:         llm,
		templates:   templates,
		limit:       limit,
		attempts:    attempts,
	}
}

// Write runs the whole script stage for artist.
func (w *ScriptWriter) Write(ctx context.Context, artist string, log zerolog.Logger) (*Script, error) {
	songs, err := w.catalog.SongsForArtist(ctx, artist)
	if err != nil {
		return nil, err
	}
	if len(songs) == 0 {
		return nil, noSongsFound(artist)
	}
	log.Info().Int("songs", len(songs)).Msg("found songs for artist")

	transcripts := make([]model.SongTranscript, 0, len(songs))
	for _, song := range songs {
		t, err := w.Transcript(ctx, song, log)
		if err != nil {
			return nil, err
		}
		transcripts = append(transcripts, t)
	}

	prompt := IntroPrompt(transcripts, w.templates, w.limit)
	text, err := w.complete(ctx, prompt, "intro", log)
	if err != nil {
		return nil, err
	}

	return &Script{
		Songs:       songs,
		Transcripts: transcripts,
		Prompt:      prompt,
		Text:        text,
	}, nil
}

// Transcript returns the cached transcript of song or transcribes it and
// stores the result next to the song.
func (w *ScriptWriter) Transcript(ctx context.Context, song model.Song, log zerolog.Logger) (model.SongTranscript, error) {
	cached, ok, err := catalog.LoadTranscript(song)
	if err != nil {
		log.Warn().Err(err).Str("song", song.Name).Msg("ignoring unreadable transcript cache")
	}
	if ok {
		return cached, nil
	}

	log.Info().Str("song", song.Name).Msg("transcribing song")
	text, err := Retry(ctx, w.attempts, func(ctx context.Context, attempt int) Attempt[string] {
		return observedCall("transcriber", func() (string, error) {
			return w.transcriber.Transcribe(ctx, song.Path)
		})
	})
	if err != nil {
		return model.SongTranscript{}, err
	}

	t := model.SongTranscript{
		Artist:     song.Artist,
		SongName:   song.Name,
		Transcript: strings.TrimSpace(text),
	}
	if err := catalog.SaveTranscript(song, t); err != nil {
		log.Warn().Err(err).Str("song", song.Name).Msg("failed to cache transcript")
	}
	return t, nil
}

// OpeningPhrase asks for a short opener spoken before the intro.
func (w *ScriptWriter) OpeningPhrase(ctx context.Context, log zerolog.Logger) (string, error) {
	text, err := w.complete(ctx, OpeningPhrasePrompt, "opening phrase", log)
	if err != nil {
		return "", err
	}
	return CleanOpeningPhrase(text), nil
}

func (w *ScriptWriter) complete(ctx context.Context, prompt, what string, log zerolog.Logger) (string, error) {
	return Retry(ctx, w.attempts, func(ctx context.Context, attempt int) Attempt[string] {
		log.Info().Int("attempt", attempt).Msgf("requesting %s", what)
		a := observedCall("llm", func() (string, error) {
			text, err := w.llm.Complete(ctx, SystemPrompt, prompt)
			if err == nil && strings.TrimSpace(text) == "" {
				err = ErrMalformedResponse
			}
			return strings.TrimSpace(text), err
		})
		if a.Err != nil {
			log.Warn().Err(a.Err).Int("attempt", attempt).Msgf("%s call failed", what)
		}
		return a
	})
}

// observedCall runs fn and counts the outcome per provider.
func observedCall[T any](provider string, fn func() (T, error)) Attempt[T] {
	v, err := fn()
	a := FromCall(v, err)
	outcome := "ok"
	switch a.Outcome {
	case OutcomeRetry:
		outcome = "retry"
	case OutcomeFatal:
		outcome = "fatal"
	}
	metrics.IncProviderCall(provider, outcome)
	return a
}
