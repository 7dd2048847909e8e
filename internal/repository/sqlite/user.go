package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/sakif/chatbet/internal/apperror"
	"github.com/sakif/chatbet/internal/model"
	"github.com/sakif/chatbet/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `u.id, COALESCE(u.name, ''), s.id, s.name`

// ListUsers returns every user with their favourite sport, ordered by ID.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+`
		 FROM users u
		 LEFT JOIN sports s ON s.id = u.sport_id
		 ORDER BY u.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// GetUserByID retrieves a user and their favourite sport.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+`
		 FROM users u
		 LEFT JOIN sports s ON s.id = u.sport_id
		 WHERE u.id = ?`,
		id,
	)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}

	return u, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanUser reads a row produced by userColumns. The sport columns come from a
// LEFT JOIN, so they are NULL for users without a favourite sport.
func scanUser(s scanner) (*model.User, error) {
	var (
		u         model.User
		sportID   sql.NullInt64
		sportName sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Name, &sportID, &sportName); err != nil {
		return nil, err
	}
	if sportID.Valid {
		u.Sport = &model.Sport{ID: sportID.Int64, Name: sportName.String}
	}
	return &u, nil
}
