package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/airadio/api/internal/catalog"
	"github.com/airadio/api/internal/client"
	"github.com/airadio/api/internal/config"
	"github.com/airadio/api/internal/handler"
	"github.com/airadio/api/internal/logging"
	"github.com/airadio/api/internal/metrics"
	"github.com/airadio/api/internal/middleware"
	"github.com/airadio/api/internal/model"
	"github.com/airadio/api/internal/radio"
	"github.com/airadio/api/internal/task"
	ws "github.com/airadio/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("failed to load config")
	}

	log := logging.New(cfg.Log, cfg.IsDevelopment())
	metrics.MustRegister()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis not available, rate limiting and job mirroring are degraded")
	}

	// Initialize external clients
	llm, err := client.NewLLM(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create language model client")
	}
	synth, err := client.NewSynthesizer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create speech client")
	}
	transcriber, err := client.NewTranscriber(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create transcription client")
	}
	dev := cfg.IsDevelopment()
	log.Info().
		Str("llm", cfg.LLM.Provider).
		Str("tts", cfg.TTS.Provider).
		Str("transcribe", cfg.Transcribe.Provider).
		Str("groq_key", logging.Redact(cfg.Groq.APIKey, dev)).
		Str("openai_key", logging.Redact(cfg.OpenAI.APIKey, dev)).
		Str("elevenlabs_key", logging.Redact(cfg.ElevenLabs.APIKey, dev)).
		Msg("providers configured")

	// Initialize R2 client (optional - continues if not configured)
	var storage client.Storage
	var signExpiry time.Duration
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(ctx, &cfg.R2)
		if err != nil {
			log.Warn().Err(err).Msg("R2 client not initialized")
		} else {
			storage = r2Client
			if cfg.R2.PublicURL == "" {
				signExpiry = cfg.R2.SignedURLExpiry
			}
		}
	} else {
		log.Info().Msg("R2 storage not configured, shows stay local")
	}

	templates, err := radio.LoadTemplates(cfg.Audio.TemplatesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load intro templates")
	}

	songs := catalog.NewFSCatalog(cfg.Audio.MusicDir)
	orchestrator := radio.NewOrchestrator(radio.Options{
		Catalog:         songs,
		LLM:             llm,
		Synthesizer:     synth,
		Transcriber:     transcriber,
		Storage:         storage,
		SignedURLExpiry: signExpiry,
		Templates:       templates,
		CacheDir:        cfg.Audio.CacheDir,
		OutputDir:       cfg.Audio.OutputDir,
		AssembleMode:    model.AssembleMode(cfg.Audio.AssembleMode),
		SynthDelayMin:   cfg.Audio.SynthDelayMin,
		SynthDelayMax:   cfg.Audio.SynthDelayMax,
		TranscriptLimit: cfg.Audio.TranscriptLimit,
	})

	// Job queue
	var queue task.Queue
	switch cfg.Queue.Backend {
	case "asynq":
		aq := task.NewAsynqQueue(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log.With().Str("component", "asynq").Logger())
		if err := aq.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start asynq queue")
		}
		defer aq.Close()
		queue = aq
	default:
		queue = task.NewMemoryQueue()
	}

	registry := task.NewRegistry(queue, task.RegistryOptions{
		LogDir: cfg.Audio.LogDir,
		Logger: log.With().Str("component", "registry").Logger(),
	})

	// Initialize WebSocket hub
	hub := ws.NewHub(log.With().Str("component", "websocket").Logger())
	go hub.Run(ctx)
	registry.AddObserver(hub)

	var archive handler.JobArchive
	if cfg.Jobs.MirrorToRedis {
		mirror := task.NewRedisMirror(redisClient, cfg.Jobs.MirrorTTL, log)
		registry.AddObserver(mirror)
		archive = mirror
	}

	worker := task.NewWorker(registry, cfg.Queue.PollTimeout, log.With().Str("component", "worker").Logger())
	worker.Handle(model.JobKindGenerateRadio, orchestrator)
	worker.Attach(ctx)

	// Initialize handlers
	validate := validator.New()
	radioHandler := handler.NewRadioHandler(registry, archive, validate)
	artistHandler := handler.NewArtistHandler(songs)
	rateLimiter := middleware.NewRateLimiter(redisClient, log)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: !cfg.IsDevelopment(),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"queue": fiber.Map{
				"backend": cfg.Queue.Backend,
				"waiting": queue.Len(),
			},
			"services": fiber.Map{
				"llm":     cfg.LLM.Provider,
				"tts":     cfg.TTS.Provider,
				"storage": storage != nil,
			},
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes
	api := app.Group("/api")

	radioRoutes := api.Group("/radio")
	radioRoutes.Post("/generate", rateLimiter.GenerateLimit(cfg.RateLimit.GeneratePerHour), radioHandler.Generate)
	radioRoutes.Get("/status/:taskId", radioHandler.Status)
	radioRoutes.Get("/result/:taskId", radioHandler.Result)
	radioRoutes.Get("/download/:taskId", radioHandler.Download)
	radioRoutes.Get("/logs/:taskId", radioHandler.Logs)
	radioRoutes.Post("/cancel/:taskId", radioHandler.Cancel)

	api.Get("/artists", artistHandler.List)
	api.Get("/artists/:name/songs", artistHandler.Songs)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/tasks/:taskId", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("taskId"))
	}))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Str("queue", cfg.Queue.Backend).Msg("server starting")
	if err := app.Listen(addr); err != nil {
		log.Error().Err(err).Msg("server error")
	}

	// Stop the worker; a running job fails as canceled.
	cancel()
	worker.Wait()
	log.Info().Msg("worker stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
