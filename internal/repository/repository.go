// Package repository declares the storage interfaces used by the service layer.
// Implementations live in the sqlite and postgres sub-packages.
package repository

import (
	"context"

	"github.com/sakif/chatbet/internal/model"
)

// UserRepository reads users and their favourite sport. Users are created
// out-of-band, so the only writes are the seed helpers.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// ThreadRepository creates and reads conversation threads.
type ThreadRepository interface {
	CreateThread(ctx context.Context, thread *model.Thread) error
	GetThread(ctx context.Context, id int64) (*model.Thread, error)
}

// HistoryRepository is the append-only log of chat turns.
type HistoryRepository interface {
	// AppendHistory inserts a new entry. A zero CreatedAt is set to now.
	AppendHistory(ctx context.Context, entry *model.HistoryEntry) error
	// RecentHistory returns at most limit entries for the thread, newest first.
	RecentHistory(ctx context.Context, threadID int64, limit int) ([]model.HistoryEntry, error)
}

// Seeder loads the sports lookup table and the demo users.
type Seeder interface {
	SeedSports(ctx context.Context, sports []model.Sport) error
	SeedUsers(ctx context.Context, users []SeedUser) error
}

// SeedUser is a user row as written by the seeder. SportID 0 means no sport.
type SeedUser struct {
	ID      int64
	Name    string
	SportID int64
}

// Store is everything the server needs from a storage backend.
type Store interface {
	UserRepository
	ThreadRepository
	HistoryRepository
	Seeder
	Close() error
}
