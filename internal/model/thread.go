package model

import "time"

// Thread is one ongoing conversation between a user and the assistant.
// Threads are never updated after creation.
type Thread struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryEntry is one persisted chat turn: the user's query and the
// assistant's final answer. Entries are append-only; within a thread they are
// ordered by CreatedAt, ties broken by ID.
type HistoryEntry struct {
	ID            int64     `json:"id"`
	ThreadID      int64     `json:"threadId"`
	InputMessage  string    `json:"inputMessage"`
	OutputMessage string    `json:"outputMessage"`
	CreatedAt     time.Time `json:"createdAt"`
}
