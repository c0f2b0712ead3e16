package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yegors/yt-scribe/internal/api"
	"github.com/yegors/yt-scribe/internal/chunker"
	"github.com/yegors/yt-scribe/internal/completion"
	"github.com/yegors/yt-scribe/internal/config"
	"github.com/yegors/yt-scribe/internal/metrics"
	"github.com/yegors/yt-scribe/internal/storage/sqlite"
	"github.com/yegors/yt-scribe/internal/tokenizer"
	"github.com/yegors/yt-scribe/internal/transcription"
	"github.com/yegors/yt-scribe/internal/youtube"
	"github.com/yegors/yt-scribe/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("yt-scribe stopped with error", logger.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	counter, err := tokenizer.New(cfg.Chunking.TokenizerModel)
	if err != nil {
		return err
	}

	corrector, err := completion.NewClient(completion.Config{
		APIKey:       cfg.OpenAI.APIKey,
		BaseURL:      cfg.OpenAI.BaseURL,
		Model:        cfg.OpenAI.Model,
		SystemPrompt: cfg.Completion.SystemPrompt,
		Timeout:      time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,

		RequestsPerSecond: cfg.Completion.RequestsPerSecond,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	source, err := youtube.NewClient(youtube.Config{
		BaseURL:   cfg.Transcript.BaseURL,
		Proxy:     cfg.Transcript.Proxy,
		Languages: cfg.Transcript.Languages,
		Timeout:   time.Duration(cfg.Transcript.TimeoutSeconds) * time.Second,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create transcript client: %w", err)
	}

	m := metrics.New()

	// Interface-typed so a disabled store stays a nil interface
	var (
		historyStore  transcription.HistoryStore
		historyReader api.HistoryReader
	)
	if cfg.Storage.Enabled {
		db, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer closeDB(db, log)

		store, err := sqlite.NewTranscriptStorage(db, log)
		if err != nil {
			return err
		}
		historyStore, historyReader = store, store
		log.Info("Transcription history enabled", logger.String("path", cfg.Storage.Path))
	}

	coordinator := transcription.NewCoordinator(chunker.New(counter), corrector, cfg.Completion.MaxConcurrency, m, log)
	service := transcription.NewService(source, coordinator, historyStore, transcription.Config{
		MaxTokens:  cfg.Chunking.MaxTokens,
		Timestamps: cfg.Transcript.Timestamps,
		Timeout:    time.Duration(cfg.Pipeline.TimeoutSeconds) * time.Second,
	}, m, log)

	router := api.NewRouter(service, historyReader, api.NewTokenAuthenticator(cfg.Auth.Token), m, api.RouterConfig{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	}, log)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server",
			logger.String("addr", server.Addr),
			logger.String("model", corrector.Model()),
			logger.Int("max_tokens", cfg.Chunking.MaxTokens),
			logger.Int("max_concurrency", cfg.Completion.MaxConcurrency),
			logger.Bool("auth", cfg.Auth.Token != ""))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

func closeDB(db *sql.DB, log *logger.Logger) {
	if err := db.Close(); err != nil {
		log.Error("Failed to close database", logger.Error(err))
	}
}
