package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/personakit/harness/internal/config"
	"github.com/personakit/harness/internal/experiment"
	"github.com/personakit/harness/internal/httpapi"
	"github.com/personakit/harness/internal/llm"
	"github.com/personakit/harness/internal/server"
	"github.com/personakit/harness/internal/store"
	"github.com/personakit/harness/internal/telemetry"
)

const envFile = ".env.local"

func main() {
	// Load .env files if present. .env.local carries operator-set secrets
	// (the settings endpoint writes the OpenAI key there).
	_ = godotenv.Load(envFile)
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	shutdown, err := telemetry.InitTracer("personakit", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	personas := store.NewPersonaStore(cfg.Data.Dir)
	questions := store.NewQuestionStore(cfg.Data.Dir)
	questionnaires := store.NewQuestionnaireStore(cfg.Data.Dir)
	reports := store.NewReportStore(cfg.Data.ResultsDir)

	gateway := llm.New(llm.Config{
		OllamaEndpoint: cfg.Ollama.Endpoint,
		OllamaModel:    cfg.Ollama.Model,
		OpenAIKey:      cfg.OpenAI.APIKey,
		OpenAIModel:    cfg.OpenAI.Model,
	}, logger)

	runner := experiment.New(personas, questions, questionnaires, reports, gateway, logger, cfg.OpenAI.Model)

	srv := server.New(cfg.Server.Port, logger)
	handler := httpapi.NewHandler(personas, questions, questionnaires, reports, runner, gateway, logger, envFile)
	handler.Routes(srv.Router)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("personakit started",
		slog.Int("port", cfg.Server.Port),
		slog.String("data_dir", cfg.Data.Dir),
		slog.String("results_dir", cfg.Data.ResultsDir),
		slog.String("ollama_endpoint", cfg.Ollama.Endpoint))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	case <-sigChan:
	}

	logger.Info("shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
