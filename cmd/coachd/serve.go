package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/cache"
	"github.com/fyrsmithlabs/coachd/internal/config"
	"github.com/fyrsmithlabs/coachd/internal/exercise"
	"github.com/fyrsmithlabs/coachd/internal/http"
	"github.com/fyrsmithlabs/coachd/internal/llm"
	"github.com/fyrsmithlabs/coachd/internal/logging"
	"github.com/fyrsmithlabs/coachd/internal/planner"
	"github.com/fyrsmithlabs/coachd/internal/rerank"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the coachd HTTP server",
	Long: `Start the coachd HTTP server.

The server exposes:
  POST /v1/plans   generate a workout plan
  GET  /health     service status and catalog size
  GET  /metrics    Prometheus metrics`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadWithFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("starting coachd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("index_path", cfg.Index.Path))

	index, err := buildIndex(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize exercise index: %w", err)
	}
	logger.Info("exercise index ready", zap.Int("exercises", index.Count()))

	generator, err := llm.NewClient(llm.Config{
		APIKey:     cfg.LLM.APIKey.Value(),
		Model:      cfg.LLM.Model,
		BaseURL:    cfg.LLM.BaseURL,
		MaxTokens:  cfg.LLM.MaxTokens,
		Timeout:    cfg.LLM.Timeout.Duration(),
		MaxRetries: cfg.LLM.MaxRetries,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize generation client: %w", err)
	}

	reranker, err := buildReranker(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize reranker: %w", err)
	}

	svc, err := planner.NewService(planner.Options{
		Generator:    generator,
		Retriever:    index,
		Reranker:     reranker,
		Cache:        cache.New(),
		Logger:       logger,
		IntentTTL:    cfg.Cache.IntentTTL.Duration(),
		PlanTTL:      cfg.Cache.PlanTTL.Duration(),
		RetrievalTTL: cfg.Cache.RetrievalTTL.Duration(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize planner: %w", err)
	}

	srv, err := http.NewServer(svc, index, logger, &http.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// buildIndex creates the exercise index, with semantic search when an
// embedding server is configured.
func buildIndex(cfg *config.Config, logger *zap.Logger) (*exercise.Index, error) {
	var embedder exercise.Embedder
	if cfg.Embedding.BaseURL != "" {
		e, err := exercise.NewHTTPEmbedder(exercise.EmbedderConfig{
			BaseURL: cfg.Embedding.BaseURL,
			APIKey:  cfg.Embedding.APIKey.Value(),
			Timeout: cfg.Embedding.Timeout.Duration(),
		})
		if err != nil {
			return nil, err
		}
		embedder = e
	} else {
		logger.Warn("no embedding server configured, falling back to keyword search")
	}

	return exercise.NewIndex(exercise.IndexConfig{
		Path:       cfg.Index.Path,
		Collection: cfg.Index.Collection,
		Compress:   cfg.Index.Compress,
	}, embedder, logger)
}

// buildReranker selects the reranker implementation from config.
// Mode "off" returns nil; retrieval then orders candidates by score.
func buildReranker(cfg *config.Config, logger *zap.Logger) (rerank.Reranker, error) {
	switch cfg.Rerank.Mode {
	case "off":
		return nil, nil
	case "lexical":
		return rerank.NewLexicalReranker(), nil
	case "http":
		return rerank.NewHTTPReranker(rerank.HTTPConfig{
			BaseURL: cfg.Rerank.BaseURL,
			APIKey:  cfg.Rerank.APIKey.Value(),
			Model:   cfg.Rerank.Model,
			Timeout: cfg.Rerank.Timeout.Duration(),
		}, logger)
	default:
		return nil, fmt.Errorf("unknown rerank mode: %q", cfg.Rerank.Mode)
	}
}
