package client

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

var _ Transcriber = (*WhisperClient)(nil)

// WhisperClient implements Transcriber against any OpenAI-compatible
// /audio/transcriptions endpoint (OpenAI itself or Groq).
type WhisperClient struct {
	client     openai.Client
	provider   string
	model      string
	configured bool
}

// NewWhisperClient creates a transcription client. An empty baseURL uses
// the OpenAI default.
func NewWhisperClient(provider, apiKey, baseURL, model string) *WhisperClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Retries are decided by the pipeline.
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &WhisperClient{
		client:     openai.NewClient(opts...),
		provider:   provider,
		model:      model,
		configured: apiKey != "",
	}
}

// Transcribe uploads the audio file and returns its text
func (c *WhisperClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if !c.configured {
		return "", fmt.Errorf("%s: %w", c.provider, ErrNotConfigured)
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:           f,
		Model:          openai.AudioModel(c.model),
		ResponseFormat: openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("%s transcription: %w", c.provider, err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// IsConfigured returns true if the client has an API key
func (c *WhisperClient) IsConfigured() bool {
	return c.configured
}
