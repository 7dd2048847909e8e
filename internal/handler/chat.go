package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/chatbet/internal/apperror"
	"github.com/sakif/chatbet/internal/model"
)

// ChatService is what the thread endpoints need; *service.ChatService
// implements it.
type ChatService interface {
	Send(ctx context.Context, threadID int64, query string) (string, error)
	History(ctx context.Context, threadID int64, limit int) ([]model.HistoryEntry, error)
}

// ChatHandler serves chat turns and thread history.
type ChatHandler struct {
	chat   ChatService
	logger *slog.Logger
}

func NewChatHandler(chat ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// SendMessageRequest is the body of a chat turn.
type SendMessageRequest struct {
	Query string `json:"query"`
}

// SendMessageResponse carries the agent's answer.
type SendMessageResponse struct {
	Response string `json:"response"`
}

// HandleSendMessage runs one chat turn.
//
// HTTP: POST /api/threads/{threadID}/messages
// REQUEST BODY: {"query": "What's on this weekend?"}
//
// The request context is passed down to every upstream call, so a client
// that disconnects cancels the turn.
func (h *ChatHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	threadID, err := pathID(r, "threadID")
	if err != nil {
		writeError(w, err)
		return
	}

	var req SendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid chat request body", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	answer, err := h.chat.Send(r.Context(), threadID, req.Query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SendMessageResponse{Response: answer})
}

// HistoryEntryResponse is one turn of a thread.
type HistoryEntryResponse struct {
	ID            int64  `json:"id"`
	InputMessage  string `json:"input_message"`
	OutputMessage string `json:"output_message"`
	CreatedAt     string `json:"created_at"`
}

// HandleHistory returns a thread's recent turns, oldest first.
//
// HTTP: GET /api/threads/{threadID}/history?limit=20
func (h *ChatHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	threadID, err := pathID(r, "threadID")
	if err != nil {
		writeError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, apperror.ValidationFailed("limit", "limit must be a positive integer"))
			return
		}
	}

	entries, err := h.chat.History(r.Context(), threadID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			ID:            e.ID,
			InputMessage:  e.InputMessage,
			OutputMessage: e.OutputMessage,
			CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
