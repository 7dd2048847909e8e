// Package backend opens the configured repository.Store implementation.
package backend

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sakif/chatbet/internal/config"
	"github.com/sakif/chatbet/internal/repository"
	"github.com/sakif/chatbet/internal/repository/postgres"
	sqliteRepo "github.com/sakif/chatbet/internal/repository/sqlite"
)

// Open returns a store for cfg.Driver. For sqlite the parent directory of the
// database file is created first.
func Open(cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return db, nil
	case config.DriverSQLite:
		if cfg.URL != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.URL), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
