package client

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/airadio/api/internal/config"
)

var _ Synthesizer = (*OpenAISpeechClient)(nil)

// OpenAISpeechClient implements Synthesizer with the OpenAI speech endpoint
type OpenAISpeechClient struct {
	client     openai.Client
	model      string
	voice      string
	configured bool
}

// NewOpenAISpeechClient creates a speech client; BaseURL may point at any
// compatible server.
func NewOpenAISpeechClient(cfg *config.OpenAIConfig) *OpenAISpeechClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAISpeechClient{
		client:     openai.NewClient(opts...),
		model:      cfg.SpeechModel,
		voice:      cfg.Voice,
		configured: cfg.APIKey != "",
	}
}

// Synthesize returns MP3 bytes for text spoken at speed
func (c *OpenAISpeechClient) Synthesize(ctx context.Context, text string, speed float64) ([]byte, error) {
	if !c.configured {
		return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
	}

	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.model),
		Voice:          openai.AudioSpeechNewParamsVoice(c.voice),
		Speed:          openai.Float(speed),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("openai returned empty audio")
	}
	return audio, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *OpenAISpeechClient) IsConfigured() bool {
	return c.configured
}
