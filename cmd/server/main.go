package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dino-is-real/vmeet-v2/internal/api"
	"github.com/Dino-is-real/vmeet-v2/internal/config"
	"github.com/Dino-is-real/vmeet-v2/internal/directory"
	"github.com/Dino-is-real/vmeet-v2/internal/handlers"
	"github.com/Dino-is-real/vmeet-v2/internal/notes"
	"github.com/Dino-is-real/vmeet-v2/internal/notify"
	"github.com/Dino-is-real/vmeet-v2/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize key-value store
	kv, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("store connection failed")
	}
	defer kv.Close()
	logger.Info().Str("backend", cfg.StoreBackend).Msg("store ready")

	// Change notifications: Redis pub/sub reaches every replica sharing the
	// store, otherwise only subscribers in this process are notified.
	var notifier notify.Notifier = notify.NewLocal()
	if rs, ok := kv.(*store.RedisStore); ok {
		rn, err := notify.NewRedis(ctx, rs.Client(), logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis pub/sub subscription failed")
		}
		defer rn.Close()
		notifier = rn
		logger.Info().Str("channel", notify.Channel).Msg("subscribed to change notifications")
	}

	dir := directory.NewService(kv, notifier,
		directory.WithLogger(logger.With().Str("component", "directory").Logger()),
		directory.WithExpiry(cfg.RoomExpiry),
	)

	if cfg.CompactInterval > 0 {
		scheduler, err := directory.StartCompaction(dir, cfg.CompactInterval, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to schedule compaction")
		}
		defer scheduler.Stop()
		logger.Info().Dur("interval", cfg.CompactInterval).Msg("room compaction scheduled")
	}

	h := handlers.NewHandler(dir, notes.NewStore(kv, logger), kv, notifier, logger)

	// Create router
	router := api.NewRouter(logger, h, api.RouterConfig{RateLimitPerMinute: cfg.RateLimitPerMinute})

	// Create server. No WriteTimeout: /events holds its connection open.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting vmeet room directory")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}

// openStore connects to the backend named in the configuration.
func openStore(ctx context.Context, cfg *config.Config) (store.KVStore, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		return store.NewSQLiteStore(ctx, cfg.SQLitePath)
	case config.BackendPostgres:
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	case config.BackendRedis:
		return store.NewRedisStore(ctx, cfg.RedisURL)
	default:
		return store.NewMemoryStore(), nil
	}
}
