// Package main is the entry point for the ChatBet server.
//
// main only reads configuration, creates the long-lived dependencies
// (logger, store, lock, sports API client, agent engine) and starts the
// server. All actual logic lives in the internal packages.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/chatbet/internal/agent"
	"github.com/sakif/chatbet/internal/config"
	"github.com/sakif/chatbet/internal/lock"
	"github.com/sakif/chatbet/internal/repository/backend"
	"github.com/sakif/chatbet/internal/server"
	"github.com/sakif/chatbet/internal/sportsapi"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// config.yaml is optional; CONFIG_PATH points somewhere else.
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "loading config:", err)
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	// === 3. STORAGE ===
	store, err := backend.Open(cfg.Database)
	if err != nil {
		return err
	}

	// === 4. THREAD LOCK ===
	// Redis is only needed when several server instances share a database.
	var locker lock.Locker
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			store.Close()
			return fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			store.Close()
			return fmt.Errorf("connecting to redis: %w", err)
		}
		locker = lock.NewRedis(client, cfg.Redis.LockTTL, logger)
		logger.Info("using redis thread lock", slog.String("addr", opts.Addr))
	}

	// === 5. SPORTS API + AGENT ===
	source := sportsapi.NewClient(sportsapi.Config{
		BaseURL: cfg.SportsAPI.BaseURL,
		Timeout: cfg.SportsAPI.Timeout,
		Logger:  logger,
	})

	llm, err := agent.NewModel(ctx, agent.ModelConfig{
		Provider: cfg.LLM.Provider,
		Name:     cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("creating model: %w", err)
	}
	logger.Info("model ready",
		slog.String("provider", cfg.LLM.Provider),
		slog.String("model", cfg.LLM.Model),
	)

	// === 6. CREATE AND START THE SERVER ===
	srv, err := server.New(server.Config{
		Port:         cfg.Server.Port,
		CORSOrigins:  cfg.Server.CORSOrigins,
		WriteTimeout: cfg.Server.WriteTimeout,
		LockWait:     cfg.Server.LockWait,
	}, server.Deps{
		Store:  store,
		Engine: agent.NewADKEngine(llm, logger),
		Source: source,
		Locker: locker,
	}, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("creating server: %w", err)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	// and closes the store on the way out.
	return srv.Start()
}
