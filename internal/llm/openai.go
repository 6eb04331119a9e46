package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"github.com/clearstack/agentbox/internal/domain"
)

// OpenAICompletionClient adapts the OpenAI chat completion API to the
// uniform CompletionClient contract. OpenAI accepts the system message
// inline in the message list, so the request maps directly.
type OpenAICompletionClient struct {
	client *openai.Client
}

func NewOpenAICompletionClient(apiKey string) *OpenAICompletionClient {
	return &OpenAICompletionClient{client: openai.NewClient(apiKey)}
}

func (c *OpenAICompletionClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, domain.NewUpstreamError("openai completion failed", err)
	}

	if len(resp.Choices) == 0 {
		return nil, domain.NewUpstreamError("openai returned no choices", errors.New("empty choices"))
	}

	tokens := resp.Usage.TotalTokens
	return &CompletionResult{
		Text:          resp.Choices[0].Message.Content,
		TokensUsed:    tokens,
		EstimatedCost: EstimateCost(domain.ProviderOpenAI, req.Model, tokens),
	}, nil
}
