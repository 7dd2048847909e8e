package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	adkagent "google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const (
	appName   = "chatbet"
	agentName = "chatbet"
)

// ErrNoResponse is returned when the agent finishes without any text.
var ErrNoResponse = errors.New("agent: no response")

var _ Engine = (*ADKEngine)(nil)

// Session is an agent conversation scoped to one chat turn.
type Session struct {
	Key string

	userID  string
	service session.Service
	handle  session.Session
	runner  *runner.Runner
}

// ADKEngine runs an ADK llmagent. Each session gets its own in-memory
// session store, so nothing outlives the turn; durable history is replayed
// by the caller.
type ADKEngine struct {
	llm    model.LLM
	logger *slog.Logger
}

func NewADKEngine(llm model.LLM, logger *slog.Logger) *ADKEngine {
	return &ADKEngine{llm: llm, logger: logger}
}

func (e *ADKEngine) BeginSession(ctx context.Context, key string, cfg SessionConfig) (*Session, error) {
	a, err := llmagent.New(llmagent.Config{
		Name:        agentName,
		Model:       e.llm,
		Description: "Sports betting assistant",
		Instruction: cfg.Instruction,
		Tools:       cfg.Tools,
	})
	if err != nil {
		return nil, fmt.Errorf("agent: creating llm agent: %w", err)
	}

	service := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          a,
		SessionService: service,
	})
	if err != nil {
		return nil, fmt.Errorf("agent: creating runner: %w", err)
	}

	userID := cfg.UserID
	if userID == "" {
		userID = "user"
	}

	resp, err := service.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: key,
	})
	if err != nil {
		return nil, fmt.Errorf("agent: creating session %s: %w", key, err)
	}

	return &Session{
		Key:     key,
		userID:  userID,
		service: service,
		handle:  resp.Session,
		runner:  r,
	}, nil
}

// AppendTurn adds an earlier message to the session as if it had been said
// in this conversation.
func (e *ADKEngine) AppendTurn(ctx context.Context, s *Session, role Role, text string) error {
	ev := session.NewEvent(uuid.NewString())
	switch role {
	case RoleUser:
		ev.Author = "user"
		ev.LLMResponse = model.LLMResponse{Content: genai.NewContentFromText(text, genai.RoleUser)}
	case RoleAssistant:
		ev.Author = agentName
		ev.LLMResponse = model.LLMResponse{Content: genai.NewContentFromText(text, genai.RoleModel)}
	default:
		return fmt.Errorf("agent: unknown role %q", role)
	}

	if err := s.service.AppendEvent(ctx, s.handle, ev); err != nil {
		return fmt.Errorf("agent: appending %s turn: %w", role, err)
	}
	return nil
}

// Run sends query to the agent and blocks until it produces its final
// answer, running any tool calls it makes along the way.
func (e *ADKEngine) Run(ctx context.Context, s *Session, query string) (string, error) {
	msg := genai.NewContentFromText(query, genai.RoleUser)

	var final string
	events := 0
	for ev, err := range s.runner.Run(ctx, s.userID, s.Key, msg, adkagent.RunConfig{}) {
		if err != nil {
			return "", fmt.Errorf("agent: running: %w", err)
		}
		if ev == nil {
			continue
		}
		events++
		if ev.Partial || ev.Content == nil {
			continue
		}
		for _, part := range ev.Content.Parts {
			if part.FunctionCall != nil {
				e.logger.Debug("agent called tool", "session", s.Key, "tool", part.FunctionCall.Name)
			}
		}
		if text := eventText(ev); text != "" {
			final = text
		}
	}

	if final == "" {
		return "", ErrNoResponse
	}

	e.logger.Debug("agent run finished", "session", s.Key, "events", events)
	return final, nil
}

// eventText joins the visible text parts of an event, skipping reasoning.
func eventText(ev *session.Event) string {
	var b strings.Builder
	for _, part := range ev.Content.Parts {
		if part.Thought || part.Text == "" {
			continue
		}
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}
