package agent

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
	"google.golang.org/genai"
)

// scriptedLLM replies with the next response of its script on every call
// and records the requests it received.
type scriptedLLM struct {
	mu       sync.Mutex
	script   []*model.LLMResponse
	requests []*model.LLMRequest
}

func (m *scriptedLLM) Name() string { return "scripted" }

func (m *scriptedLLM) GenerateContent(_ context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		m.mu.Lock()
		m.requests = append(m.requests, req)
		n := len(m.requests)
		m.mu.Unlock()

		idx := n - 1
		if idx >= len(m.script) {
			idx = len(m.script) - 1
		}
		yield(m.script[idx], nil)
	}
}

func textResponse(text string) *model.LLMResponse {
	return &model.LLMResponse{
		Content:      genai.NewContentFromText(text, genai.RoleModel),
		TurnComplete: true,
	}
}

// requestText flattens every text part sent to the model.
func requestText(req *model.LLMRequest) string {
	var b strings.Builder
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			b.WriteString(p.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestADKEngineReplaysHistory(t *testing.T) {
	llm := &scriptedLLM{script: []*model.LLMResponse{textResponse("The Lakers host the Celtics at 19:00.")}}
	engine := NewADKEngine(llm, discardLogger())
	ctx := context.Background()

	s, err := engine.BeginSession(ctx, "thread_5", SessionConfig{Instruction: "You are ChatBet."})
	require.NoError(t, err)

	require.NoError(t, engine.AppendTurn(ctx, s, RoleUser, "Any Lakers games?"))
	require.NoError(t, engine.AppendTurn(ctx, s, RoleAssistant, "Yes, two this week."))

	got, err := engine.Run(ctx, s, "When is the next one?")
	require.NoError(t, err)
	assert.Equal(t, "The Lakers host the Celtics at 19:00.", got)

	require.Len(t, llm.requests, 1)
	sent := requestText(llm.requests[0])
	assert.Contains(t, sent, "Any Lakers games?")
	assert.Contains(t, sent, "Yes, two this week.")
	assert.Contains(t, sent, "When is the next one?")
	assert.Less(t, strings.Index(sent, "Any Lakers games?"), strings.Index(sent, "When is the next one?"))
}

func TestADKEngineRunsTools(t *testing.T) {
	type teamArgs struct {
		Team string `json:"team"`
	}
	type teamResult struct {
		Data string `json:"data"`
	}

	var (
		mu     sync.Mutex
		called []string
	)
	lookup, err := functiontool.New(functiontool.Config{
		Name:        "get_fixtures_by_team",
		Description: "Get sports fixtures data for one specified team",
	}, func(_ tool.Context, in teamArgs) (teamResult, error) {
		mu.Lock()
		called = append(called, in.Team)
		mu.Unlock()
		return teamResult{Data: `[{"id": 101}]`}, nil
	})
	require.NoError(t, err)

	llm := &scriptedLLM{script: []*model.LLMResponse{
		{
			Content: &genai.Content{
				Role: genai.RoleModel,
				Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{
					ID:   "call_1",
					Name: "get_fixtures_by_team",
					Args: map[string]any{"team": "Lakers"},
				}}},
			},
		},
		textResponse("Fixture 101 is the next Lakers game."),
	}}
	engine := NewADKEngine(llm, discardLogger())
	ctx := context.Background()

	s, err := engine.BeginSession(ctx, "thread_7", SessionConfig{
		Instruction: "You are ChatBet.",
		Tools:       []tool.Tool{lookup},
	})
	require.NoError(t, err)

	got, err := engine.Run(ctx, s, "When do the Lakers play?")
	require.NoError(t, err)

	assert.Equal(t, "Fixture 101 is the next Lakers game.", got)
	assert.Equal(t, []string{"Lakers"}, called)
	assert.Len(t, llm.requests, 2, "the tool result is sent back to the model")
}

func TestADKEngineNoResponse(t *testing.T) {
	llm := &scriptedLLM{script: []*model.LLMResponse{textResponse("   ")}}
	engine := NewADKEngine(llm, discardLogger())
	ctx := context.Background()

	s, err := engine.BeginSession(ctx, "thread_1", SessionConfig{Instruction: "You are ChatBet."})
	require.NoError(t, err)

	_, err = engine.Run(ctx, s, "hello")
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestAppendTurnUnknownRole(t *testing.T) {
	engine := NewADKEngine(&scriptedLLM{script: []*model.LLMResponse{textResponse("x")}}, discardLogger())
	ctx := context.Background()

	s, err := engine.BeginSession(ctx, "thread_1", SessionConfig{})
	require.NoError(t, err)

	assert.Error(t, engine.AppendTurn(ctx, s, Role("system"), "hi"))
}

func TestNewModel(t *testing.T) {
	m, err := NewModel(context.Background(), ModelConfig{
		Provider: ProviderOpenAI,
		Name:     "gpt-4o-mini",
		APIKey:   "test",
		BaseURL:  "http://localhost:1",
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", m.Name())

	_, err = NewModel(context.Background(), ModelConfig{Provider: "anthropic"})
	assert.Error(t, err)
}
