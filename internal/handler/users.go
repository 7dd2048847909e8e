package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/chatbet/internal/model"
)

// UserService is what the user endpoints need; *service.UserService
// implements it.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateThread(ctx context.Context, userID int64) (*model.Thread, error)
}

// UserHandler serves users and thread creation.
type UserHandler struct {
	users  UserService
	logger *slog.Logger
}

func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleList returns every user with their favourite sport.
//
// HTTP: GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateThreadResponse is returned when a thread is opened.
type CreateThreadResponse struct {
	ThreadID int64 `json:"thread_id"`
}

// HandleCreateThread opens a new thread for a user.
//
// HTTP: POST /api/users/{userID}/threads
// RESPONSE: 201 {"thread_id": 12}, or 404 for an unknown user.
func (h *UserHandler) HandleCreateThread(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}

	thread, err := h.users.CreateThread(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateThreadResponse{ThreadID: thread.ID})
}
