package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/chatbet/internal/agent"
	"github.com/sakif/chatbet/internal/apperror"
	"github.com/sakif/chatbet/internal/model"
	"github.com/sakif/chatbet/internal/sportsapi"
)

// mockSource is a tools.FixtureSource returning canned fixtures and odds.
type mockSource struct {
	mu       sync.Mutex
	prefs    []model.Preferences
	fixtures []sportsapi.Fixture
	odds     []any
	err      error
}

func (m *mockSource) seen(p model.Preferences) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs = append(m.prefs, p)
}

func (m *mockSource) FixturesByTeams(_ context.Context, p model.Preferences, _, _ string) ([]sportsapi.Fixture, error) {
	m.seen(p)
	return m.fixtures, m.err
}

func (m *mockSource) FixturesByTeam(_ context.Context, p model.Preferences, _ string) ([]sportsapi.Fixture, error) {
	m.seen(p)
	return m.fixtures, m.err
}

func (m *mockSource) FixturesByDate(_ context.Context, p model.Preferences, _ string) ([]sportsapi.Fixture, error) {
	m.seen(p)
	return m.fixtures, m.err
}

func (m *mockSource) FixturesByDates(_ context.Context, p model.Preferences, _, _ string) ([]sportsapi.Fixture, error) {
	m.seen(p)
	return m.fixtures, m.err
}

func (m *mockSource) OddsForFixtures(_ context.Context, p model.Preferences, _ []sportsapi.Fixture) ([]any, error) {
	m.seen(p)
	return m.odds, nil
}

var (
	basketball = &model.Sport{ID: 3, Name: "Basketball"}
	ada        = model.User{ID: 9, Name: "Ada", Sport: basketball}
	// Saturday
	turnTime = time.Date(2025, time.June, 14, 10, 0, 0, 0, time.UTC)
)

type chatFixture struct {
	svc    *ChatService
	store  *mockStore
	engine *fakeEngine
	source *mockSource
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestChat wires a ChatService to mocks. Thread 5 belongs to Ada, whose
// favourite sport is Basketball.
func newTestChat(t *testing.T, engine agent.Engine) *chatFixture {
	t.Helper()

	store := newMockStore()
	store.addUser(ada)
	store.addThread(5, ada.ID)

	fake, _ := engine.(*fakeEngine)
	if engine == nil {
		fake = &fakeEngine{answer: "Two games this weekend."}
		engine = fake
	}

	source := &mockSource{}
	logger := testLogger()
	svc := NewChatService(ChatDeps{
		Threads:       store,
		Users:         store,
		Conversations: NewConversationService(store, logger),
		Engine:        engine,
		Source:        source,
		Logger:        logger,
		Now:           func() time.Time { return turnTime },
	})

	return &chatFixture{svc: svc, store: store, engine: fake, source: source}
}

func TestSendExampleTurn(t *testing.T) {
	f := newTestChat(t, nil)

	got, err := f.svc.Send(context.Background(), 5, "What's on this weekend?")

	require.NoError(t, err)
	assert.Equal(t, "Two games this weekend.", got)

	entries := f.store.entries(5)
	require.Len(t, entries, 1)
	assert.Equal(t, "What's on this weekend?", entries[0].InputMessage)
	assert.Equal(t, "Two games this weekend.", entries[0].OutputMessage)

	require.Len(t, f.engine.configs, 1)
	cfg := f.engine.configs[0]
	assert.Equal(t, []string{"thread_5"}, f.engine.keys)
	assert.Contains(t, cfg.Instruction, "The user's name is Ada.")
	assert.Contains(t, cfg.Instruction, "The user's favorite sport is Basketball.")
	assert.Contains(t, cfg.Instruction, "Current date: Saturday, 2025-06-14")
	assert.Len(t, cfg.Tools, 7)
	assert.Equal(t, []string{"What's on this weekend?"}, f.engine.queries)
}

func TestSendReplaysLastTenTurnsOldestFirst(t *testing.T) {
	f := newTestChat(t, nil)
	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 12; i++ {
		require.NoError(t, f.store.AppendHistory(context.Background(), &model.HistoryEntry{
			ThreadID:      5,
			InputMessage:  fmt.Sprintf("q%d", i),
			OutputMessage: fmt.Sprintf("a%d", i),
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}))
	}

	_, err := f.svc.Send(context.Background(), 5, "next")
	require.NoError(t, err)

	var want []replayedTurn
	for i := 3; i <= 12; i++ {
		want = append(want,
			replayedTurn{Role: agent.RoleUser, Text: fmt.Sprintf("q%d", i)},
			replayedTurn{Role: agent.RoleAssistant, Text: fmt.Sprintf("a%d", i)},
		)
	}
	assert.Equal(t, want, f.engine.turns)
	assert.Len(t, f.store.entries(5), 13)
}

func TestSendUserWithoutSport(t *testing.T) {
	f := newTestChat(t, nil)
	f.store.addUser(model.User{ID: 2, Name: "Edward"})
	f.store.addThread(8, 2)

	_, err := f.svc.Send(context.Background(), 8, "hello")
	require.NoError(t, err)

	assert.Contains(t, f.engine.configs[0].Instruction, "The user's favorite sport is not set.")
}

func TestSendFailures(t *testing.T) {
	tests := []struct {
		name      string
		threadID  int64
		query     string
		setup     func(f *chatFixture)
		wantState TurnState
		wantIs    error
	}{
		{
			name:      "blank query",
			threadID:  5,
			query:     "  ",
			wantIs:    apperror.ErrValidation,
			wantState: "",
		},
		{
			name:      "unknown thread",
			threadID:  404,
			query:     "hi",
			wantState: StateResolveContext,
			wantIs:    apperror.ErrNotFound,
		},
		{
			name:     "thread owner missing",
			threadID: 6,
			query:    "hi",
			setup: func(f *chatFixture) {
				f.store.addThread(6, 77)
			},
			wantState: StateResolveContext,
			wantIs:    apperror.ErrNotFound,
		},
		{
			name:     "agent cannot start",
			threadID: 5,
			query:    "hi",
			setup: func(f *chatFixture) {
				f.engine.beginErr = errEngine
			},
			wantState: StateBuildAgent,
			wantIs:    errEngine,
		},
		{
			name:     "history replay fails",
			threadID: 5,
			query:    "hi",
			setup: func(f *chatFixture) {
				f.store.history = append(f.store.history, model.HistoryEntry{ID: 1, ThreadID: 5, InputMessage: "q", OutputMessage: "a"})
				f.store.nextHistoryID = 1
				f.engine.appendErr = errEngine
			},
			wantState: StateReplayHistory,
			wantIs:    errEngine,
		},
		{
			name:     "agent fails",
			threadID: 5,
			query:    "hi",
			setup: func(f *chatFixture) {
				f.engine.run = func(context.Context, string) (string, error) { return "", errEngine }
			},
			wantState: StateInvoke,
			wantIs:    errEngine,
		},
		{
			name:     "history write fails",
			threadID: 5,
			query:    "hi",
			setup: func(f *chatFixture) {
				f.store.appendErr = errors.New("disk full")
			},
			wantState: StatePersist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestChat(t, nil)
			if tt.setup != nil {
				tt.setup(f)
			}
			before := len(f.store.entries(tt.threadID))

			got, err := f.svc.Send(context.Background(), tt.threadID, tt.query)

			require.Error(t, err)
			assert.Empty(t, got)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantState != "" {
				assert.Contains(t, err.Error(), string(tt.wantState)+": ")
			}
			assert.Len(t, f.store.entries(tt.threadID), before, "a failed turn writes nothing")
		})
	}
}

func TestSendSerialisesTurnsOnSameThread(t *testing.T) {
	var active, maxActive atomic.Int32
	engine := &fakeEngine{
		run: func(ctx context.Context, query string) (string, error) {
			n := active.Add(1)
			defer active.Add(-1)
			for {
				old := maxActive.Load()
				if n <= old || maxActive.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return "answer to " + query, nil
		},
	}
	f := newTestChat(t, engine)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Send(context.Background(), 5, fmt.Sprintf("q%d", i))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive.Load())
	assert.Len(t, f.store.entries(5), 5)
}

func TestSendCancelledWhileWaitingForThread(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	engine := &fakeEngine{
		run: func(ctx context.Context, query string) (string, error) {
			if query == "first" {
				close(started)
				<-unblock
			}
			return "ok", nil
		},
	}
	f := newTestChat(t, engine)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Send(context.Background(), 5, "first")
		done <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.svc.Send(ctx, 5, "second")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(unblock)
	require.NoError(t, <-done)
	assert.Len(t, f.store.entries(5), 1)
}

func TestSendRefusedWhenThreadStaysBusy(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	engine := &fakeEngine{
		run: func(ctx context.Context, query string) (string, error) {
			if query == "first" {
				close(started)
				<-unblock
			}
			return "ok", nil
		},
	}
	f := newTestChat(t, engine)
	f.svc.lockWait = 20 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Send(context.Background(), 5, "first")
		done <- err
	}()
	<-started

	_, err := f.svc.Send(context.Background(), 5, "second")
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)

	close(unblock)
	require.NoError(t, <-done)
	assert.Len(t, f.store.entries(5), 1, "the refused turn writes nothing")

	_, err = f.svc.Send(context.Background(), 5, "third")
	assert.NoError(t, err, "the thread is free again")
}

func TestHistory(t *testing.T) {
	f := newTestChat(t, nil)
	seedHistory(t, f.store, 5, 3)

	got, err := f.svc.History(context.Background(), 5, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2", "q3"}, inputs(got))

	_, err = f.svc.History(context.Background(), 404, 0)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
