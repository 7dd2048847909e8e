package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/chatbet/internal/agent"
	"github.com/sakif/chatbet/internal/apperror"
	"github.com/sakif/chatbet/internal/lock"
	"github.com/sakif/chatbet/internal/model"
	"github.com/sakif/chatbet/internal/repository"
	"github.com/sakif/chatbet/internal/tools"
)

// TurnState names a step of a chat turn. Errors returned by Send are
// prefixed with the state the turn failed in.
type TurnState string

const (
	StateResolveContext TurnState = "RESOLVE_CONTEXT"
	StateBuildAgent     TurnState = "BUILD_AGENT"
	StateReplayHistory  TurnState = "REPLAY_HISTORY"
	StateInvoke         TurnState = "INVOKE"
	StatePersist        TurnState = "PERSIST"
	StateDone           TurnState = "DONE"
	StateFailed         TurnState = "FAILED"
)

// DefaultLockWait is how long a turn waits for another turn on the same
// thread before it is refused with apperror.ErrConflict.
const DefaultLockWait = 2 * time.Minute

// ChatDeps are the collaborators of a ChatService.
type ChatDeps struct {
	Threads       repository.ThreadRepository
	Users         repository.UserRepository
	Conversations *ConversationService
	Engine        agent.Engine
	Source        tools.FixtureSource
	Locker        lock.Locker
	Logger        *slog.Logger

	// LockWait defaults to DefaultLockWait.
	LockWait time.Duration
	// Now defaults to time.Now; the date in the system prompt comes from it.
	Now func() time.Time
}

// ChatService runs chat turns.
type ChatService struct {
	threads       repository.ThreadRepository
	users         repository.UserRepository
	conversations *ConversationService
	engine        agent.Engine
	source        tools.FixtureSource
	locker        lock.Locker
	logger        *slog.Logger
	lockWait      time.Duration
	now           func() time.Time
}

func NewChatService(deps ChatDeps) *ChatService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	locker := deps.Locker
	if locker == nil {
		locker = lock.NewMemory()
	}
	lockWait := deps.LockWait
	if lockWait <= 0 {
		lockWait = DefaultLockWait
	}
	return &ChatService{
		threads:       deps.Threads,
		users:         deps.Users,
		conversations: deps.Conversations,
		engine:        deps.Engine,
		source:        deps.Source,
		locker:        locker,
		logger:        deps.Logger,
		lockWait:      lockWait,
		now:           now,
	}
}

// turn carries the state of one Send call between steps.
type turn struct {
	threadID int64
	query    string

	thread   *model.Thread
	user     *model.User
	prefs    model.Preferences
	registry *tools.Registry
	session  *agent.Session
	answer   string
}

// Send runs one chat turn on a thread and returns the agent's answer.
//
// THE TURN:
//
//	RESOLVE_CONTEXT → BUILD_AGENT → REPLAY_HISTORY → INVOKE → PERSIST → DONE
//
// Any failing step moves the turn to FAILED: nothing is written to the
// history and the error is returned wrapped with the failing state.
// Turns on the same thread run one at a time; a turn that waits longer
// than the lock wait is refused with apperror.ErrConflict.
func (s *ChatService) Send(ctx context.Context, threadID int64, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", apperror.ValidationFailed("query", "query is required")
	}

	release, err := s.acquire(ctx, threadID)
	if err != nil {
		return "", err
	}
	defer release()

	start := time.Now()
	t := &turn{threadID: threadID, query: query}

	steps := []struct {
		state TurnState
		run   func(context.Context, *turn) error
	}{
		{StateResolveContext, s.resolveContext},
		{StateBuildAgent, s.buildAgent},
		{StateReplayHistory, s.replayHistory},
		{StateInvoke, s.invoke},
		{StatePersist, s.persist},
	}

	for _, step := range steps {
		if err := step.run(ctx, t); err != nil {
			return "", s.fail(t, step.state, err)
		}
	}

	s.logger.Info("chat turn completed",
		slog.Int64("thread_id", threadID),
		slog.String("state", string(StateDone)),
		slog.Duration("duration", time.Since(start)),
	)
	return t.answer, nil
}

// acquire takes the thread's turn lock. Running out of lock wait while the
// caller is still waiting means another turn holds the thread.
func (s *ChatService) acquire(ctx context.Context, threadID int64) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	release, err := s.locker.Acquire(waitCtx, threadKey(threadID))
	if err == nil {
		return release, nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		s.logger.Warn("thread busy",
			slog.Int64("thread_id", threadID),
			slog.Duration("waited", s.lockWait),
		)
		return nil, apperror.Conflict("thread", strconv.FormatInt(threadID, 10))
	}
	return nil, fmt.Errorf("waiting for thread %d: %w", threadID, err)
}

func (s *ChatService) fail(t *turn, state TurnState, err error) error {
	attrs := []any{
		slog.Int64("thread_id", t.threadID),
		slog.String("state", string(StateFailed)),
		slog.String("failed_in", string(state)),
		slog.String("error", err.Error()),
	}
	// Unknown threads and bad input are caller mistakes, not server faults.
	if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
		s.logger.Warn("chat turn rejected", attrs...)
	} else {
		s.logger.Error("chat turn failed", attrs...)
	}
	return fmt.Errorf("%s: %w", state, err)
}

func (s *ChatService) resolveContext(ctx context.Context, t *turn) error {
	thread, err := s.threads.GetThread(ctx, t.threadID)
	if err != nil {
		return err
	}
	user, err := s.users.GetUserByID(ctx, thread.UserID)
	if err != nil {
		return err
	}

	t.thread = thread
	t.user = user
	t.prefs = model.PreferencesFor(user)
	return nil
}

func (s *ChatService) buildAgent(ctx context.Context, t *turn) error {
	t.registry = tools.NewRegistry(s.source, t.prefs, s.logger)
	agentTools, err := t.registry.ADKTools()
	if err != nil {
		return err
	}

	session, err := s.engine.BeginSession(ctx, threadKey(t.threadID), agent.SessionConfig{
		Instruction: BuildInstruction(t.user, t.prefs, s.now()),
		Tools:       agentTools,
		UserID:      strconv.FormatInt(t.user.ID, 10),
	})
	if err != nil {
		return err
	}
	t.session = session
	return nil
}

func (s *ChatService) replayHistory(ctx context.Context, t *turn) error {
	return s.conversations.Replay(ctx, s.engine, t.session, t.threadID)
}

func (s *ChatService) invoke(ctx context.Context, t *turn) error {
	answer, err := s.engine.Run(ctx, t.session, t.query)
	// An upstream failure inside a tool fails the turn even when the agent
	// went on to answer without the data.
	if upstreamErr := t.registry.Err(); upstreamErr != nil {
		return upstreamErr
	}
	if err != nil {
		return err
	}
	t.answer = answer
	return nil
}

func (s *ChatService) persist(ctx context.Context, t *turn) error {
	_, err := s.conversations.Append(ctx, t.threadID, t.query, t.answer)
	return err
}

// threadKey is the session and lock key of a thread.
func threadKey(threadID int64) string {
	return "thread_" + strconv.FormatInt(threadID, 10)
}

// History returns the thread's recent turns, oldest first.
// Returns apperror.ErrNotFound for an unknown thread.
func (s *ChatService) History(ctx context.Context, threadID int64, limit int) ([]model.HistoryEntry, error) {
	if _, err := s.threads.GetThread(ctx, threadID); err != nil {
		return nil, err
	}
	return s.conversations.History(ctx, threadID, limit)
}
