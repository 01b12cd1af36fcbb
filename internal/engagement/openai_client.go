package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAILLMClient implements LLMClient using the OpenAI chat completions API.
type OpenAILLMClient struct {
	client  *openai.Client
	modelID string
}

// NewOpenAILLMClient creates an OpenAI-backed generation client.
func NewOpenAILLMClient(apiKey, modelID string) (*OpenAILLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("engagement: openai api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gpt-4o-mini"
	}
	return &OpenAILLMClient{
		client:  openai.NewClient(apiKey),
		modelID: modelID,
	}, nil
}

// Complete sends a completion request to OpenAI and returns the response.
func (c *OpenAILLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	model := req.Model
	if model == "" {
		model = c.modelID
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if len(req.System) > 0 {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: strings.Join(req.System, "\n\n"),
		})
	}
	for _, msg := range req.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		role := openai.ChatMessageRoleUser
		if msg.Role == ChatRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	completion, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   int(req.MaxTokens),
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
	if err != nil {
		return LLMResponse{}, fmt.Errorf("engagement: openai completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return LLMResponse{}, errors.New("engagement: openai returned no choices")
	}

	choice := completion.Choices[0]
	return LLMResponse{
		Text: strings.TrimSpace(choice.Message.Content),
		Usage: TokenUsage{
			InputTokens:  int32(completion.Usage.PromptTokens),
			OutputTokens: int32(completion.Usage.CompletionTokens),
			TotalTokens:  int32(completion.Usage.TotalTokens),
		},
		StopReason: string(choice.FinishReason),
	}, nil
}
