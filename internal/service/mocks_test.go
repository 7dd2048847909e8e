package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sakif/chatbet/internal/agent"
	"github.com/sakif/chatbet/internal/apperror"
	"github.com/sakif/chatbet/internal/model"
)

// =========================================================================
// MOCK STORE
// =========================================================================
//
// mockStore implements the user, thread and history repositories in memory.
// Setting appendErr simulates a failing history write.

type mockStore struct {
	mu            sync.Mutex
	users         map[int64]*model.User
	threads       map[int64]*model.Thread
	history       []model.HistoryEntry
	nextThreadID  int64
	nextHistoryID int64
	appendErr     error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:   make(map[int64]*model.User),
		threads: make(map[int64]*model.Thread),
	}
}

func (m *mockStore) addUser(u model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = &u
}

func (m *mockStore) addThread(id, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[id] = &model.Thread{ID: id, UserID: userID, CreatedAt: time.Now()}
	if id > m.nextThreadID {
		m.nextThreadID = id
	}
}

func (m *mockStore) entries(threadID int64) []model.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.HistoryEntry
	for _, e := range m.history {
		if e.ThreadID == threadID {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockStore) ListUsers(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	copied := *u
	return &copied, nil
}

func (m *mockStore) CreateThread(_ context.Context, thread *model.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextThreadID++
	thread.ID = m.nextThreadID
	thread.CreatedAt = time.Now()
	stored := *thread
	m.threads[thread.ID] = &stored
	return nil
}

func (m *mockStore) GetThread(_ context.Context, id int64) (*model.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threads[id]
	if !ok {
		return nil, apperror.NotFound("thread", strconv.FormatInt(id, 10))
	}
	copied := *t
	return &copied, nil
}

func (m *mockStore) AppendHistory(_ context.Context, entry *model.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.nextHistoryID++
	entry.ID = m.nextHistoryID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.history = append(m.history, *entry)
	return nil
}

func (m *mockStore) RecentHistory(_ context.Context, threadID int64, limit int) ([]model.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.HistoryEntry
	for _, e := range m.history {
		if e.ThreadID == threadID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =========================================================================
// FAKE ENGINE
// =========================================================================

type replayedTurn struct {
	Role agent.Role
	Text string
}

// fakeEngine records what the service asks of the agent. run, when set,
// produces the answer; otherwise answer is returned.
type fakeEngine struct {
	mu        sync.Mutex
	keys      []string
	configs   []agent.SessionConfig
	turns     []replayedTurn
	queries   []string
	answer    string
	run       func(ctx context.Context, query string) (string, error)
	beginErr  error
	appendErr error
}

var errEngine = errors.New("engine exploded")

func (f *fakeEngine) BeginSession(_ context.Context, key string, cfg agent.SessionConfig) (*agent.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	f.keys = append(f.keys, key)
	f.configs = append(f.configs, cfg)
	return &agent.Session{Key: key}, nil
}

func (f *fakeEngine) AppendTurn(_ context.Context, _ *agent.Session, role agent.Role, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.turns = append(f.turns, replayedTurn{Role: role, Text: text})
	return nil
}

func (f *fakeEngine) Run(ctx context.Context, _ *agent.Session, query string) (string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	run := f.run
	answer := f.answer
	f.mu.Unlock()

	if run != nil {
		return run(ctx, query)
	}
	return answer, nil
}
