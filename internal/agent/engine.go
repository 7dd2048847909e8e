// Package agent runs the language-model agent behind a chat turn.
//
// Engine is the seam between the turn orchestration in the service package
// and the agent framework. ADKEngine is the production implementation.
package agent

import (
	"context"

	"google.golang.org/adk/tool"
)

// Role is the speaker of a replayed turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SessionConfig configures the agent of one session.
type SessionConfig struct {
	// Instruction is the system prompt.
	Instruction string
	Tools       []tool.Tool

	// UserID scopes the session; defaults to "user".
	UserID string
}

// Engine drives an agent through one chat turn: open a session, replay the
// earlier turns into it and then run the new query.
type Engine interface {
	BeginSession(ctx context.Context, key string, cfg SessionConfig) (*Session, error)
	AppendTurn(ctx context.Context, s *Session, role Role, text string) error
	Run(ctx context.Context, s *Session, query string) (string, error)
}
