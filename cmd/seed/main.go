// Command seed loads the sports lookup table and the demo users into the
// configured database. Running it twice is harmless.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/chatbet/internal/config"
	"github.com/sakif/chatbet/internal/repository"
	"github.com/sakif/chatbet/internal/repository/backend"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(logger); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := backend.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.SeedSports(ctx, repository.DefaultSports); err != nil {
		return fmt.Errorf("seeding sports: %w", err)
	}
	if err := store.SeedUsers(ctx, repository.DefaultUsers); err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}

	logger.Info("database seeded",
		slog.String("driver", cfg.Database.Driver),
		slog.Int("sports", len(repository.DefaultSports)),
		slog.Int("users", len(repository.DefaultUsers)),
	)
	return nil
}
