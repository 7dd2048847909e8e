// Package service contains the business logic of the chat assistant.
//
// The layers are the same as everywhere in this repo:
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates, orchestrates, owns the chat turn
//	Repository      → reads/writes the database
//
// Services take repository interfaces, never concrete database types, so
// tests inject hand-written mocks (see mocks_test.go).
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/chatbet/internal/apperror"
	"github.com/sakif/chatbet/internal/model"
	"github.com/sakif/chatbet/internal/repository"
)

// UserService lists users and opens conversation threads for them.
type UserService struct {
	users   repository.UserRepository
	threads repository.ThreadRepository
	logger  *slog.Logger
}

func NewUserService(users repository.UserRepository, threads repository.ThreadRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:   users,
		threads: threads,
		logger:  logger,
	}
}

// ListUsers returns every user with their favourite sport.
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// CreateThread opens a new, empty thread owned by userID.
// Returns apperror.ErrNotFound, and creates nothing, if the user is unknown.
func (s *UserService) CreateThread(ctx context.Context, userID int64) (*model.Thread, error) {
	if userID <= 0 {
		return nil, apperror.ValidationFailed("user_id", "user id must be a positive integer")
	}

	// The user must exist before anything is written.
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	thread := &model.Thread{UserID: userID}
	if err := s.threads.CreateThread(ctx, thread); err != nil {
		s.logger.Error("failed to create thread",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating thread for user %d: %w", userID, err)
	}

	s.logger.Info("thread created",
		slog.Int64("thread_id", thread.ID),
		slog.Int64("user_id", userID),
	)
	return thread, nil
}
