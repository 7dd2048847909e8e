package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/chatbet/internal/apperror"
	"github.com/sakif/chatbet/internal/model"
	"github.com/sakif/chatbet/internal/repository"
)

var _ repository.ThreadRepository = (*DB)(nil)

// CreateThread inserts a thread and fills in its database-issued ID.
// The caller is expected to have checked that the user exists.
func (db *DB) CreateThread(ctx context.Context, thread *model.Thread) error {
	thread.CreatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO threads (user_id, created_at) VALUES (?, ?)`,
		thread.UserID,
		thread.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating thread for user %d: %w", thread.UserID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading thread id: %w", err)
	}
	thread.ID = id

	return nil
}

// GetThread retrieves a thread by ID.
// Returns apperror.ErrNotFound if no thread exists with that ID.
func (db *DB) GetThread(ctx context.Context, id int64) (*model.Thread, error) {
	var (
		t      model.Thread
		userID sql.NullInt64
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM threads WHERE id = ?`,
		id,
	).Scan(&t.ID, &userID, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("thread", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting thread %d: %w", id, err)
	}
	t.UserID = userID.Int64

	return &t, nil
}
