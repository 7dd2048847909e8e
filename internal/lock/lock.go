// Package lock serialises chat turns on the same thread.
//
// Two turns on one thread would both read the same history and both append
// to it, so the second turn waits for the first to finish. Turns on
// different threads never block each other.
package lock

import (
	"context"
	"sync"
)

// Locker hands out exclusive per-key locks. Acquire blocks until the lock is
// held or ctx is done; the returned release func must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// Memory is an in-process Locker for a single server instance.
type Memory struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch      chan struct{}
	waiters int
}

var _ Locker = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{slots: make(map[string]*slot)}
}

func (m *Memory) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.waiters++
	m.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		m.leave(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			m.leave(key, s)
		})
	}, nil
}

// leave drops the slot once nobody holds or waits for it.
func (m *Memory) leave(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.waiters--
	if s.waiters == 0 {
		delete(m.slots, key)
	}
}
