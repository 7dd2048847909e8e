package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/chatbet/internal/model"
	"github.com/sakif/chatbet/internal/repository"
)

var _ repository.Seeder = (*DB)(nil)

// SeedSports inserts the sports lookup rows, leaving existing IDs untouched.
func (db *DB) SeedSports(ctx context.Context, sports []model.Sport) error {
	for _, s := range sports {
		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO sports (id, name) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
			s.ID, s.Name,
		)
		if err != nil {
			return fmt.Errorf("sqlite: seeding sport %d: %w", s.ID, err)
		}
	}
	return nil
}

// SeedUsers inserts users, leaving existing IDs untouched.
func (db *DB) SeedUsers(ctx context.Context, users []repository.SeedUser) error {
	for _, u := range users {
		sportID := sql.NullInt64{Int64: u.SportID, Valid: u.SportID != 0}
		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO users (id, name, sport_id) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`,
			u.ID, u.Name, sportID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: seeding user %d: %w", u.ID, err)
		}
	}
	return nil
}
