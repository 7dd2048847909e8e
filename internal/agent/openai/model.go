// Package openai adapts any OpenAI-compatible chat completions endpoint to
// the ADK model.LLM interface, so the agent can run on providers other than
// Gemini.
package openai

import (
	"context"
	"errors"
	"fmt"
	"iter"

	goopenai "github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
)

var _ model.LLM = (*Model)(nil)

var ErrNoChoices = errors.New("openai: response has no choices")

// Model is a model.LLM backed by the chat completions API.
type Model struct {
	client *goopenai.Client
	name   string
}

// NewModel creates a Model for modelName. cfg carries the API key and,
// for compatible providers, the base URL.
func NewModel(modelName string, cfg goopenai.ClientConfig) *Model {
	return &Model{
		client: goopenai.NewClientWithConfig(cfg),
		name:   modelName,
	}
}

func (m *Model) Name() string {
	return m.name
}

// GenerateContent sends one chat completion request. Responses are never
// streamed: a chat turn only needs the final answer, so stream is ignored
// and a single complete response is yielded.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		chatReq, err := toChatRequest(req, m.name)
		if err != nil {
			yield(nil, err)
			return
		}

		resp, err := m.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			yield(nil, fmt.Errorf("openai: chat completion: %w", err))
			return
		}

		llmResp, err := fromChatResponse(&resp)
		if err != nil {
			yield(nil, err)
			return
		}
		yield(llmResp, nil)
	}
}
