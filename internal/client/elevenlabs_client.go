package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/airadio/api/internal/config"
)

var _ Synthesizer = (*ElevenLabsClient)(nil)

// ElevenLabsClient implements Synthesizer for the ElevenLabs text-to-speech API
type ElevenLabsClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	voiceID    string
	modelID    string
}

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id,omitempty"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Speed float64 `json:"speed"`
}

// NewElevenLabsClient creates a new ElevenLabs client
func NewElevenLabsClient(cfg *config.ElevenLabsConfig) *ElevenLabsClient {
	return &ElevenLabsClient{
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		voiceID: cfg.VoiceID,
		modelID: cfg.ModelID,
	}
}

// Synthesize returns MP3 bytes for text spoken at speed
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string, speed float64) ([]byte, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("elevenlabs: %w", ErrNotConfigured)
	}

	bodyBytes, err := json.Marshal(elevenLabsRequest{
		Text:          text,
		ModelID:       c.modelID,
		VoiceSettings: elevenLabsSettings{Speed: speed},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, url.PathEscape(c.voiceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Provider: "elevenlabs", StatusCode: resp.StatusCode, Body: truncateBody(respBody)}
	}
	if len(respBody) == 0 {
		return nil, fmt.Errorf("elevenlabs returned empty audio")
	}
	return respBody, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *ElevenLabsClient) IsConfigured() bool {
	return c.apiKey != "" && c.voiceID != ""
}
