package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coursewise/coursewise/internal/api"
	"github.com/coursewise/coursewise/internal/cfai"
	"github.com/coursewise/coursewise/internal/config"
	"github.com/coursewise/coursewise/internal/embedding"
	"github.com/coursewise/coursewise/internal/rag"
	"github.com/coursewise/coursewise/internal/ratelimit"
	"github.com/coursewise/coursewise/internal/vectorize"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "coursewise",
	Short: "Coursewise - course vector builder and Q&A service",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// Signal handling drives the whole server lifecycle.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := config.LoadEnvFile(""); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	initLogger(cfg.Log)
	slog.Info("configuration loaded")

	client := cfai.NewClient(cfg.Cloudflare.AccountID, cfg.Cloudflare.APIToken,
		cfai.WithBaseURL(cfg.Cloudflare.BaseURL))

	embedder, err := newEmbedder(cfg, client)
	if err != nil {
		return err
	}
	slog.Info("embedder initialized", "provider", cfg.Embedding.Provider, "model", embedder.ModelName())

	searcher := vectorize.NewClient(cfg.Cloudflare.AccountID, cfg.Cloudflare.APIToken,
		cfg.Vectorize.Index, vectorize.WithBaseURL(cfg.Cloudflare.BaseURL))
	generator := cfai.NewGenerator(client, cfg.Generation.Model,
		cfg.Generation.Temperature, cfg.Generation.MaxTokens)

	asker := rag.New(embedder, searcher, generator, cfg.Generation.TopK)
	limiter := ratelimit.New(cfg.RateLimit.Limit, time.Duration(cfg.RateLimit.Window))

	handler := api.NewHandler(asker, limiter, embedder.ModelName(), Version)
	router := api.NewRouter(handler)
	slog.Info("router initialized", "index", cfg.Vectorize.Index)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called
		// gracefully; anything else is a real failure.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newEmbedder builds the configured embedding backend wrapped in the
// batching layer.
func newEmbedder(cfg *config.Config, client *cfai.Client) (embedding.Embedder, error) {
	var svc embedding.ChunkService
	switch cfg.Embedding.Provider {
	case "", "workersai":
		svc = cfai.NewEmbedder(client, cfg.Embedding.Model)
	case "openai":
		svc = embedding.NewOpenAI(cfg.Embedding.OpenAIAPIKey, cfg.Embedding.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
	return embedding.NewBatcher(svc, cfg.Embedding.BatchSize, time.Duration(cfg.Embedding.BatchDelay)), nil
}

// initLogger installs the process-wide slog handler.
func initLogger(cfg config.LogConfig) {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
