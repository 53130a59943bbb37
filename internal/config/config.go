package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Redis      RedisConfig
	Queue      QueueConfig
	RateLimit  RateLimitConfig
	LLM        LLMConfig
	Groq       GroqConfig
	Gemini     GeminiConfig
	TTS        TTSConfig
	Transcribe TranscribeConfig
	ElevenLabs ElevenLabsConfig
	OpenAI     OpenAIConfig
	Audio      AudioConfig
	R2         R2Config
	Jobs       JobsConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type LogConfig struct {
	Level  string
	Format string // json or console
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type QueueConfig struct {
	Backend     string // memory or asynq
	PollTimeout time.Duration
}

type RateLimitConfig struct {
	GeneratePerHour int
}

type LLMConfig struct {
	Provider string // groq or gemini
}

type GroqConfig struct {
	APIKey             string
	BaseURL            string
	Model              string
	TranscriptionModel string
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type TTSConfig struct {
	Provider string // elevenlabs or openai
}

type TranscribeConfig struct {
	Provider string // groq or openai
}

type ElevenLabsConfig struct {
	APIKey  string
	BaseURL string
	VoiceID string
	ModelID string
}

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	SpeechModel        string
	Voice              string
	TranscriptionModel string
}

type AudioConfig struct {
	MusicDir        string
	CacheDir        string
	OutputDir       string
	LogDir          string
	TemplatesPath   string
	AssembleMode    string // concat or ffmpeg
	SynthDelayMin   time.Duration
	SynthDelayMax   time.Duration
	TranscriptLimit int
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
	// SignedURLExpiry applies when PublicURL is empty (private bucket).
	SignedURLExpiry time.Duration
}

type JobsConfig struct {
	MirrorToRedis bool
	MirrorTTL     time.Duration
}

func Load() (*Config, error) {
	// A local .env is optional; real environment variables win.
	_ = godotenv.Load()

	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("GROQ_API_KEY")
	readSecret("GEMINI_API_KEY")
	readSecret("ELEVENLABS_API_KEY")
	readSecret("OPENAI_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables
	v.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "LOG_FORMAT")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("queue.backend", "QUEUE_BACKEND")
	_ = v.BindEnv("queue.poll_timeout", "QUEUE_POLL_TIMEOUT")
	_ = v.BindEnv("ratelimit.generate_per_hour", "RATELIMIT_GENERATE_PER_HOUR")
	_ = v.BindEnv("llm.provider", "LLM_PROVIDER")
	_ = v.BindEnv("groq.api_key", "GROQ_API_KEY")
	_ = v.BindEnv("groq.base_url", "GROQ_BASE_URL")
	_ = v.BindEnv("groq.model", "GROQ_MODEL")
	_ = v.BindEnv("groq.transcription_model", "GROQ_TRANSCRIPTION_MODEL")
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("gemini.base_url", "GEMINI_BASE_URL")
	_ = v.BindEnv("gemini.model", "GEMINI_MODEL")
	_ = v.BindEnv("tts.provider", "TTS_PROVIDER")
	_ = v.BindEnv("transcribe.provider", "TRANSCRIBE_PROVIDER")
	_ = v.BindEnv("elevenlabs.api_key", "ELEVENLABS_API_KEY")
	_ = v.BindEnv("elevenlabs.base_url", "ELEVENLABS_BASE_URL")
	_ = v.BindEnv("elevenlabs.voice_id", "ELEVENLABS_VOICE_ID")
	_ = v.BindEnv("elevenlabs.model_id", "ELEVENLABS_MODEL_ID")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("openai.speech_model", "OPENAI_SPEECH_MODEL")
	_ = v.BindEnv("openai.voice", "OPENAI_VOICE")
	_ = v.BindEnv("openai.transcription_model", "OPENAI_TRANSCRIPTION_MODEL")
	_ = v.BindEnv("audio.music_dir", "MUSIC_DIR")
	_ = v.BindEnv("audio.cache_dir", "CACHE_DIR")
	_ = v.BindEnv("audio.output_dir", "OUTPUT_DIR")
	_ = v.BindEnv("audio.log_dir", "TASK_LOG_DIR")
	_ = v.BindEnv("audio.templates_path", "TEMPLATES_PATH")
	_ = v.BindEnv("audio.assemble_mode", "ASSEMBLE_MODE")
	_ = v.BindEnv("audio.synth_delay_min", "SYNTH_DELAY_MIN")
	_ = v.BindEnv("audio.synth_delay_max", "SYNTH_DELAY_MAX")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = v.BindEnv("r2.signed_url_expiry", "R2_SIGNED_URL_EXPIRY")
	_ = v.BindEnv("jobs.mirror_to_redis", "JOBS_MIRROR_TO_REDIS")

	// Defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("queue.backend", "memory")
	v.SetDefault("queue.poll_timeout", "1s")
	v.SetDefault("ratelimit.generate_per_hour", 10)

	// Provider defaults
	v.SetDefault("llm.provider", "groq")
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("groq.transcription_model", "whisper-large-v3")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("tts.provider", "elevenlabs")
	v.SetDefault("transcribe.provider", "groq")
	v.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io")
	v.SetDefault("elevenlabs.voice_id", "UgBBYS2sOqTuMpoF3BR0")
	v.SetDefault("elevenlabs.model_id", "eleven_multilingual_v2")
	v.SetDefault("openai.speech_model", "gpt-4o-mini-tts")
	v.SetDefault("openai.voice", "alloy")
	v.SetDefault("openai.transcription_model", "whisper-1")
	v.SetDefault("r2.signed_url_expiry", "24h")

	// Audio pipeline defaults
	v.SetDefault("audio.music_dir", "music")
	v.SetDefault("audio.cache_dir", "cache/audio")
	v.SetDefault("audio.output_dir", "output")
	v.SetDefault("audio.log_dir", "logs")
	v.SetDefault("audio.templates_path", "data/radio_intro_templates.json")
	v.SetDefault("audio.assemble_mode", "concat")
	v.SetDefault("audio.synth_delay_min", "5s")
	v.SetDefault("audio.synth_delay_max", "10s")
	v.SetDefault("audio.transcript_limit", 200)

	v.SetDefault("jobs.mirror_to_redis", false)
	v.SetDefault("jobs.mirror_ttl", "24h")

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("server.port"),
			Env:  v.GetString("server.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Queue: QueueConfig{
			Backend:     strings.ToLower(v.GetString("queue.backend")),
			PollTimeout: v.GetDuration("queue.poll_timeout"),
		},
		RateLimit: RateLimitConfig{
			GeneratePerHour: v.GetInt("ratelimit.generate_per_hour"),
		},
		LLM: LLMConfig{
			Provider: strings.ToLower(v.GetString("llm.provider")),
		},
		Groq: GroqConfig{
			APIKey:             v.GetString("groq.api_key"),
			BaseURL:            v.GetString("groq.base_url"),
			Model:              v.GetString("groq.model"),
			TranscriptionModel: v.GetString("groq.transcription_model"),
		},
		Gemini: GeminiConfig{
			APIKey:  v.GetString("gemini.api_key"),
			BaseURL: v.GetString("gemini.base_url"),
			Model:   v.GetString("gemini.model"),
		},
		TTS: TTSConfig{
			Provider: strings.ToLower(v.GetString("tts.provider")),
		},
		Transcribe: TranscribeConfig{
			Provider: strings.ToLower(v.GetString("transcribe.provider")),
		},
		ElevenLabs: ElevenLabsConfig{
			APIKey:  v.GetString("elevenlabs.api_key"),
			BaseURL: v.GetString("elevenlabs.base_url"),
			VoiceID: v.GetString("elevenlabs.voice_id"),
			ModelID: v.GetString("elevenlabs.model_id"),
		},
		OpenAI: OpenAIConfig{
			APIKey:             v.GetString("openai.api_key"),
			BaseURL:            v.GetString("openai.base_url"),
			SpeechModel:        v.GetString("openai.speech_model"),
			Voice:              v.GetString("openai.voice"),
			TranscriptionModel: v.GetString("openai.transcription_model"),
		},
		Audio: AudioConfig{
			MusicDir:        v.GetString("audio.music_dir"),
			CacheDir:        v.GetString("audio.cache_dir"),
			OutputDir:       v.GetString("audio.output_dir"),
			LogDir:          v.GetString("audio.log_dir"),
			TemplatesPath:   v.GetString("audio.templates_path"),
			AssembleMode:    strings.ToLower(v.GetString("audio.assemble_mode")),
			SynthDelayMin:   v.GetDuration("audio.synth_delay_min"),
			SynthDelayMax:   v.GetDuration("audio.synth_delay_max"),
			TranscriptLimit: v.GetInt("audio.transcript_limit"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       v.GetString("r2.public_url"),
			SignedURLExpiry: v.GetDuration("r2.signed_url_expiry"),
		},
		Jobs: JobsConfig{
			MirrorToRedis: v.GetBool("jobs.mirror_to_redis"),
			MirrorTTL:     v.GetDuration("jobs.mirror_ttl"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values and inconsistent ranges.
func (c *Config) Validate() error {
	switch c.Queue.Backend {
	case "memory", "asynq":
	default:
		return fmt.Errorf("invalid queue.backend %q", c.Queue.Backend)
	}
	switch c.LLM.Provider {
	case "groq", "gemini":
	default:
		return fmt.Errorf("invalid llm.provider %q", c.LLM.Provider)
	}
	switch c.TTS.Provider {
	case "elevenlabs", "openai":
	default:
		return fmt.Errorf("invalid tts.provider %q", c.TTS.Provider)
	}
	switch c.Transcribe.Provider {
	case "groq", "openai":
	default:
		return fmt.Errorf("invalid transcribe.provider %q", c.Transcribe.Provider)
	}
	switch c.Audio.AssembleMode {
	case "concat", "ffmpeg":
	default:
		return fmt.Errorf("invalid audio.assemble_mode %q", c.Audio.AssembleMode)
	}
	if c.Audio.SynthDelayMin < 0 || c.Audio.SynthDelayMax < c.Audio.SynthDelayMin {
		return fmt.Errorf("invalid synthesis delay range [%s, %s]", c.Audio.SynthDelayMin, c.Audio.SynthDelayMax)
	}
	if c.Queue.PollTimeout <= 0 {
		return fmt.Errorf("queue.poll_timeout must be positive")
	}
	if c.Audio.TranscriptLimit <= 0 {
		return fmt.Errorf("audio.transcript_limit must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}
