package agent

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"

	"github.com/sakif/chatbet/internal/agent/openai"
)

// Supported model providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ModelConfig selects and configures the language model.
type ModelConfig struct {
	Provider string
	Name     string
	APIKey   string

	// BaseURL overrides the provider endpoint, e.g. for an
	// OpenAI-compatible gateway.
	BaseURL string
}

// NewModel creates the model.LLM for cfg.Provider.
func NewModel(ctx context.Context, cfg ModelConfig) (model.LLM, error) {
	switch cfg.Provider {
	case ProviderGemini:
		clientCfg := &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if cfg.BaseURL != "" {
			clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
		}
		m, err := gemini.NewModel(ctx, cfg.Name, clientCfg)
		if err != nil {
			return nil, fmt.Errorf("agent: creating gemini model: %w", err)
		}
		return m, nil

	case ProviderOpenAI:
		openaiCfg := goopenai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			openaiCfg.BaseURL = cfg.BaseURL
		}
		return openai.NewModel(cfg.Name, openaiCfg), nil

	default:
		return nil, fmt.Errorf("agent: unsupported model provider %q", cfg.Provider)
	}
}
