package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func toChatRequest(req *model.LLMRequest, modelName string) (goopenai.ChatCompletionRequest, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Contents)+1)

	if req.Config != nil && req.Config.SystemInstruction != nil {
		if text := joinText(req.Config.SystemInstruction); text != "" {
			messages = append(messages, goopenai.ChatCompletionMessage{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: text,
			})
		}
	}

	for _, content := range req.Contents {
		msgs, err := toMessages(content)
		if err != nil {
			return goopenai.ChatCompletionRequest{}, err
		}
		messages = append(messages, msgs...)
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model:    modelName,
		Messages: messages,
	}

	if cfg := req.Config; cfg != nil {
		if len(cfg.Tools) > 0 {
			tools, err := toTools(cfg.Tools)
			if err != nil {
				return goopenai.ChatCompletionRequest{}, err
			}
			chatReq.Tools = tools
		}
		if cfg.Temperature != nil {
			chatReq.Temperature = *cfg.Temperature
		}
		if cfg.TopP != nil {
			chatReq.TopP = *cfg.TopP
		}
		if cfg.MaxOutputTokens > 0 {
			chatReq.MaxTokens = int(cfg.MaxOutputTokens)
		}
		if len(cfg.StopSequences) > 0 {
			chatReq.Stop = cfg.StopSequences
		}
	}

	return chatReq, nil
}

// toMessages converts one content. Function responses become separate tool
// messages; everything else is folded into a single message.
func toMessages(content *genai.Content) ([]goopenai.ChatCompletionMessage, error) {
	var (
		out       []goopenai.ChatCompletionMessage
		text      strings.Builder
		toolCalls []goopenai.ToolCall
	)

	for _, part := range content.Parts {
		switch {
		case part.FunctionResponse != nil:
			body, err := json.Marshal(part.FunctionResponse.Response)
			if err != nil {
				return nil, fmt.Errorf("openai: encoding response of %s: %w", part.FunctionResponse.Name, err)
			}
			out = append(out, goopenai.ChatCompletionMessage{
				Role:       goopenai.ChatMessageRoleTool,
				ToolCallID: part.FunctionResponse.ID,
				Name:       part.FunctionResponse.Name,
				Content:    string(body),
			})
		case part.FunctionCall != nil:
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("openai: encoding arguments of %s: %w", part.FunctionCall.Name, err)
			}
			toolCalls = append(toolCalls, goopenai.ToolCall{
				ID:   part.FunctionCall.ID,
				Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{
					Name:      part.FunctionCall.Name,
					Arguments: string(args),
				},
			})
		case part.Thought:
			// reasoning is not sent back
		case part.Text != "":
			text.WriteString(part.Text)
		}
	}

	if text.Len() == 0 && len(toolCalls) == 0 {
		return out, nil
	}

	return append(out, goopenai.ChatCompletionMessage{
		Role:      toRole(content.Role),
		Content:   text.String(),
		ToolCalls: toolCalls,
	}), nil
}

func toRole(role string) string {
	switch role {
	case genai.RoleModel:
		return goopenai.ChatMessageRoleAssistant
	case "system":
		return goopenai.ChatMessageRoleSystem
	default:
		return goopenai.ChatMessageRoleUser
	}
}

func joinText(content *genai.Content) string {
	var texts []string
	for _, part := range content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

func toTools(tools []*genai.Tool) ([]goopenai.Tool, error) {
	var out []goopenai.Tool
	for _, t := range tools {
		if t == nil {
			continue
		}
		for _, decl := range t.FunctionDeclarations {
			var params any = decl.ParametersJsonSchema
			if decl.ParametersJsonSchema == nil && decl.Parameters != nil {
				params = decl.Parameters
			}
			if params == nil {
				return nil, fmt.Errorf("openai: tool %s has no parameter schema", decl.Name)
			}
			out = append(out, goopenai.Tool{
				Type: goopenai.ToolTypeFunction,
				Function: &goopenai.FunctionDefinition{
					Name:        decl.Name,
					Description: decl.Description,
					Parameters:  params,
				},
			})
		}
	}
	return out, nil
}

func fromChatResponse(resp *goopenai.ChatCompletionResponse) (*model.LLMResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	msg := resp.Choices[0].Message
	content := &genai.Content{Role: genai.RoleModel}

	if msg.ReasoningContent != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: msg.ReasoningContent, Thought: true})
	}
	if msg.Content != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
	}
	for _, call := range msg.ToolCalls {
		if call.Type != goopenai.ToolTypeFunction {
			continue
		}
		content.Parts = append(content.Parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   call.ID,
				Name: call.Function.Name,
				Args: parseArgs(call.Function.Arguments),
			},
		})
	}

	var usage *genai.GenerateContentResponseUsageMetadata
	if resp.Usage.TotalTokens > 0 {
		usage = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(resp.Usage.PromptTokens),
			CandidatesTokenCount: int32(resp.Usage.CompletionTokens),
			TotalTokenCount:      int32(resp.Usage.TotalTokens),
		}
	}

	return &model.LLMResponse{
		Content:       content,
		UsageMetadata: usage,
		FinishReason:  toFinishReason(resp.Choices[0].FinishReason),
		TurnComplete:  true,
	}, nil
}

func toFinishReason(reason goopenai.FinishReason) genai.FinishReason {
	switch reason {
	case goopenai.FinishReasonStop, goopenai.FinishReasonToolCalls, goopenai.FinishReasonFunctionCall:
		return genai.FinishReasonStop
	case goopenai.FinishReasonLength:
		return genai.FinishReasonMaxTokens
	case goopenai.FinishReasonContentFilter:
		return genai.FinishReasonSafety
	default:
		return genai.FinishReasonUnspecified
	}
}

// parseArgs decodes tool call arguments. Malformed arguments yield an empty
// map, which the tool then rejects as missing fields.
func parseArgs(raw string) map[string]any {
	args := make(map[string]any)
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return make(map[string]any)
	}
	return args
}
