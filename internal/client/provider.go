package client

import (
	"context"
	"fmt"
)

// LLM produces text from a system and a user prompt
type LLM interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Synthesizer turns text into encoded audio at the given speech rate
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, speed float64) ([]byte, error)
}

// Transcriber turns an audio file into text
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// APIError is a non-success HTTP response from a provider
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// ErrNotConfigured is returned by providers without credentials
var ErrNotConfigured = fmt.Errorf("provider not configured")

func truncateBody(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
