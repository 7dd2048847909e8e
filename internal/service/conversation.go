package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sakif/chatbet/internal/agent"
	"github.com/sakif/chatbet/internal/model"
	"github.com/sakif/chatbet/internal/repository"
)

const (
	// ReplayLimit is how many earlier turns are replayed into the agent.
	ReplayLimit = 10

	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// ConversationService bridges the durable history table and the agent's
// per-turn session.
type ConversationService struct {
	history repository.HistoryRepository
	logger  *slog.Logger
	now     func() time.Time
}

func NewConversationService(history repository.HistoryRepository, logger *slog.Logger) *ConversationService {
	return &ConversationService{
		history: history,
		logger:  logger,
		now:     time.Now,
	}
}

// Load returns the last ReplayLimit entries of the thread, oldest first.
func (s *ConversationService) Load(ctx context.Context, threadID int64) ([]model.HistoryEntry, error) {
	return s.recent(ctx, threadID, ReplayLimit)
}

// History returns up to limit of the thread's most recent entries, oldest
// first. The limit is clamped to [1, MaxHistoryLimit].
func (s *ConversationService) History(ctx context.Context, threadID int64, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.recent(ctx, threadID, limit)
}

func (s *ConversationService) recent(ctx context.Context, threadID int64, limit int) ([]model.HistoryEntry, error) {
	// The repository returns newest first so LIMIT keeps the latest entries.
	entries, err := s.history.RecentHistory(ctx, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading history of thread %d: %w", threadID, err)
	}
	slices.Reverse(entries)
	return entries, nil
}

// Replay loads the thread's recent history and appends it to the session:
// each input as a user turn, each output as an assistant turn. Blank sides
// are skipped.
func (s *ConversationService) Replay(ctx context.Context, engine agent.Engine, session *agent.Session, threadID int64) error {
	entries, err := s.Load(ctx, threadID)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if strings.TrimSpace(e.InputMessage) != "" {
			if err := engine.AppendTurn(ctx, session, agent.RoleUser, e.InputMessage); err != nil {
				return fmt.Errorf("replaying entry %d: %w", e.ID, err)
			}
		}
		if strings.TrimSpace(e.OutputMessage) != "" {
			if err := engine.AppendTurn(ctx, session, agent.RoleAssistant, e.OutputMessage); err != nil {
				return fmt.Errorf("replaying entry %d: %w", e.ID, err)
			}
		}
	}

	s.logger.Debug("history replayed",
		slog.Int64("thread_id", threadID),
		slog.Int("entries", len(entries)),
	)
	return nil
}

// Append stores a completed turn with a server-assigned timestamp.
func (s *ConversationService) Append(ctx context.Context, threadID int64, input, output string) (*model.HistoryEntry, error) {
	entry := &model.HistoryEntry{
		ThreadID:      threadID,
		InputMessage:  input,
		OutputMessage: output,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.history.AppendHistory(ctx, entry); err != nil {
		return nil, fmt.Errorf("saving history of thread %d: %w", threadID, err)
	}
	return entry, nil
}
