// interviewd runs the AI interview service: a websocket endpoint that drives
// voice interviews plus a small status API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/voxhire/interviewd/config"
	"github.com/voxhire/interviewd/identity"
	"github.com/voxhire/interviewd/interview"
	"github.com/voxhire/interviewd/logging"
	"github.com/voxhire/interviewd/provider"
	"github.com/voxhire/interviewd/provider/anthropic"
	"github.com/voxhire/interviewd/provider/openai"
	"github.com/voxhire/interviewd/retrieval"
	"github.com/voxhire/interviewd/server"
	"github.com/voxhire/interviewd/store"
	"github.com/voxhire/interviewd/websearch"
)

func main() {
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.LogLevelInfo,
		Format:    "json",
		Output:    os.Stdout,
		Component: "interviewd",
	})

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting interviewd", "port", cfg.Port, "llm_provider", cfg.LLMProvider, "dev", cfg.IsDevelopment())

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		logger.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Database connected", "path", cfg.DBPath)

	// OpenAI always backs embeddings, speech and transcription; the chat
	// completers switch to Anthropic when configured. The question generator
	// runs warmer than the answer evaluator.
	oai := openai.New(func(o *openai.Options) {
		o.ChatModel = cfg.OpenAI.ChatModel
		o.EmbeddingModel = cfg.OpenAI.EmbeddingModel
		o.SpeechModel = cfg.OpenAI.SpeechModel
		o.SpeechVoice = cfg.OpenAI.SpeechVoice
		o.TranscribeModel = cfg.OpenAI.TranscribeModel
		o.Temperature = 0.7
	})

	var llm, llmPrecise provider.Completer
	switch cfg.LLMProvider {
	case "anthropic":
		llm = anthropic.New(func(o *anthropic.Options) {
			o.Model = cfg.Anthropic.Model
			o.Temperature = 0.7
		})
		llmPrecise = anthropic.New(func(o *anthropic.Options) {
			o.Model = cfg.Anthropic.Model
			o.Temperature = 0.3
		})
	default:
		llm = oai
		llmPrecise = openai.New(func(o *openai.Options) {
			o.ChatModel = cfg.OpenAI.ChatModel
			o.Temperature = 0.3
		})
	}

	bank := retrieval.New(oai, retrieval.WithLogger(logger))
	search := websearch.New(cfg.Search.TavilyAPIKey, cfg.Search.SerperAPIKey, websearch.WithLogger(logger))
	interviewer := interview.NewInterviewer(llm, llmPrecise, bank, search, logger)

	var verifier identity.Verifier
	if cfg.TokenSecret != "" {
		verifier = identity.NewHMACVerifier(cfg.TokenSecret)
	} else {
		logger.Warn("TOKEN_SECRET not set, accepting unsigned tokens (development only)")
		verifier = identity.InsecureVerifier{}
	}

	handler := server.NewHandler(server.Deps{
		Interviewer:         interviewer,
		Speech:              oai,
		Transcriber:         oai,
		Repo:                repo,
		Verifier:            verifier,
		Registry:            server.NewRegistry(),
		Logger:              logger,
		TranscriptDir:       cfg.TranscriptDir,
		TranscriptQueueSize: cfg.TranscriptQueueSize,
		AllowedOrigin:       cfg.FrontendURL,
		Dev:                 cfg.IsDevelopment(),
	})

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Mount("/", handler.Routes())

	// Voice frames keep connections open for the length of an interview, so
	// no write timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped successfully")
}
