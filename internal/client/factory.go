package client

import (
	"context"
	"fmt"

	"github.com/airadio/api/internal/config"
)

// NewLLM returns the language model selected by llm.provider
func NewLLM(ctx context.Context, cfg *config.Config) (LLM, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		return NewGeminiClient(ctx, &cfg.Gemini)
	case "groq":
		return NewGroqClient(&cfg.Groq), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// NewSynthesizer returns the text-to-speech provider selected by tts.provider
func NewSynthesizer(cfg *config.Config) (Synthesizer, error) {
	switch cfg.TTS.Provider {
	case "openai":
		return NewOpenAISpeechClient(&cfg.OpenAI), nil
	case "elevenlabs":
		return NewElevenLabsClient(&cfg.ElevenLabs), nil
	default:
		return nil, fmt.Errorf("unknown tts provider %q", cfg.TTS.Provider)
	}
}

// NewTranscriber returns the Whisper endpoint selected by
// transcribe.provider, reusing that provider's credentials.
func NewTranscriber(cfg *config.Config) (Transcriber, error) {
	switch cfg.Transcribe.Provider {
	case "groq":
		return NewWhisperClient("groq", cfg.Groq.APIKey, cfg.Groq.BaseURL, cfg.Groq.TranscriptionModel), nil
	case "openai":
		return NewWhisperClient("openai", cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.TranscriptionModel), nil
	default:
		return nil, fmt.Errorf("unknown transcribe provider %q", cfg.Transcribe.Provider)
	}
}
