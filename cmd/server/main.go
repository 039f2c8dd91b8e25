package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mcoot/badminton-pairing/internal/api"
	"github.com/mcoot/badminton-pairing/internal/api/events"
	"github.com/mcoot/badminton-pairing/internal/factory"
	"github.com/mcoot/badminton-pairing/internal/model"
	redisstorage "github.com/mcoot/badminton-pairing/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, serverConfig, err := configFromEnv(logger)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Event hub for live session streams
	hub := events.NewHub(logger)
	go hub.Run()

	// Create API router; it also serves /metrics
	router := api.NewRouter(api.RouterConfig{
		Logger:            logger,
		SessionController: app.SessionController,
		Metrics:           app.Metrics,
		Events:            hub,
	})

	server := api.NewServer(router, serverConfig, logger)
	// Open streams would otherwise hold the shutdown until its timeout
	server.OnShutdown(hub.Close)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if closer, ok := app.Storage.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}

	logger.Info("server stopped")
}

// configFromEnv builds the factory and server configuration from environment variables
func configFromEnv(logger *slog.Logger) (factory.Config, api.ServerConfig, error) {
	cfg := factory.Config{
		Logger:      logger,
		StorageType: os.Getenv("STORAGE_TYPE"),
		StateFile:   os.Getenv("STATE_FILE"),
		PolicyFile:  os.Getenv("PAIRING_POLICY_FILE"),
	}
	serverConfig := api.DefaultServerConfig()

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, serverConfig, fmt.Errorf("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		if prefix := os.Getenv("REDIS_KEY_PREFIX"); prefix != "" {
			redisCfg.KeyPrefix = prefix
		}
		cfg.RedisConfig = &redisCfg
	}

	ints := []struct {
		name   string
		target *int
	}{
		{"HTTP_PORT", &serverConfig.Port},
		{"LEVEL_MIN", &cfg.Levels.Min},
		{"LEVEL_MAX", &cfg.Levels.Max},
		{"DEFAULT_COURT_COUNT", &cfg.DefaultCourtCount},
	}
	for _, v := range ints {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, serverConfig, fmt.Errorf("%s must be a number: %w", v.name, err)
		}
		*v.target = n
	}

	// A partial level range keeps the default for the other bound
	if cfg.Levels != (model.LevelRange{}) {
		defaults := model.DefaultLevelRange()
		if cfg.Levels.Min == 0 {
			cfg.Levels.Min = defaults.Min
		}
		if cfg.Levels.Max == 0 {
			cfg.Levels.Max = defaults.Max
		}
	}

	return cfg, serverConfig, nil
}
