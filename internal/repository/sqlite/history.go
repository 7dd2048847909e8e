package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/chatbet/internal/model"
	"github.com/sakif/chatbet/internal/repository"
)

var _ repository.HistoryRepository = (*DB)(nil)

// AppendHistory inserts a new history entry. Entries are never updated or
// deleted, so there is no read-modify-write to guard against.
func (db *DB) AppendHistory(ctx context.Context, entry *model.HistoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO history (thread_id, input_message, output_message, created_at)
		 VALUES (?, ?, ?, ?)`,
		entry.ThreadID,
		entry.InputMessage,
		entry.OutputMessage,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: appending history to thread %d: %w", entry.ThreadID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading history id: %w", err)
	}
	entry.ID = id

	return nil
}

// RecentHistory returns the newest entries of a thread, newest first.
// Ties on created_at fall back to insertion order.
func (db *DB) RecentHistory(ctx context.Context, threadID int64, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		return []model.HistoryEntry{}, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, thread_id, input_message, output_message, created_at
		 FROM history
		 WHERE thread_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		threadID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing history for thread %d: %w", threadID, err)
	}
	defer rows.Close()

	entries := make([]model.HistoryEntry, 0, limit)
	for rows.Next() {
		var (
			e           model.HistoryEntry
			input, outp sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ThreadID, &input, &outp, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning history row: %w", err)
		}
		e.InputMessage = input.String
		e.OutputMessage = outp.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating history: %w", err)
	}

	return entries, nil
}
