package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8000" {
		t.Errorf("expected port 8000, got %s", cfg.Server.Port)
	}
	if cfg.Queue.Backend != "memory" {
		t.Errorf("expected memory queue, got %s", cfg.Queue.Backend)
	}
	if cfg.Audio.SynthDelayMin != 5*time.Second || cfg.Audio.SynthDelayMax != 10*time.Second {
		t.Errorf("unexpected synth delay range [%s, %s]", cfg.Audio.SynthDelayMin, cfg.Audio.SynthDelayMax)
	}
	if cfg.Audio.TranscriptLimit != 200 {
		t.Errorf("expected transcript limit 200, got %d", cfg.Audio.TranscriptLimit)
	}
	if cfg.Transcribe.Provider != "groq" || cfg.OpenAI.TranscriptionModel != "whisper-1" {
		t.Errorf("unexpected transcription defaults %s/%s", cfg.Transcribe.Provider, cfg.OpenAI.TranscriptionModel)
	}
	if cfg.R2.SignedURLExpiry != 24*time.Hour {
		t.Errorf("expected 24h signed url expiry, got %s", cfg.R2.SignedURLExpiry)
	}
	if cfg.Groq.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("unexpected groq base url %s", cfg.Groq.BaseURL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("QUEUE_BACKEND", "ASYNQ")
	t.Setenv("SYNTH_DELAY_MIN", "0s")
	t.Setenv("SYNTH_DELAY_MAX", "0s")
	t.Setenv("LLM_PROVIDER", "gemini")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Queue.Backend != "asynq" {
		t.Errorf("expected asynq, got %s", cfg.Queue.Backend)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("expected gemini, got %s", cfg.LLM.Provider)
	}
	if cfg.Audio.SynthDelayMax != 0 {
		t.Errorf("expected zero delay, got %s", cfg.Audio.SynthDelayMax)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TTS_PROVIDER", "gtts")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown tts provider")
	}
}

func TestLoadRejectsUnknownTranscriber(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TRANSCRIBE_PROVIDER", "local")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown transcribe provider")
	}
}

func TestReadSecretFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groq_key")
	if err := os.WriteFile(path, []byte("  secret-key\n"), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("GROQ_API_KEY_FILE", path)

	readSecret("GROQ_API_KEY")

	if got := os.Getenv("GROQ_API_KEY"); got != "secret-key" {
		t.Errorf("expected secret-key, got %q", got)
	}
}
