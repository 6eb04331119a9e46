package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clearstack/agentbox/internal/domain"
)

const (
	anthropicBaseURL    = "https://api.anthropic.com/v1"
	anthropicAPIVersion = "2023-06-01"
)

// AnthropicCompletionClient adapts the Anthropic messages API to the uniform
// CompletionClient contract. Anthropic requires the system message as a
// separate top-level field rather than inline in the message list; that
// reshaping stays here and never leaks into callers.
type AnthropicCompletionClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewAnthropicCompletionClient(apiKey string) *AnthropicCompletionClient {
	return &AnthropicCompletionClient{
		apiKey:  apiKey,
		baseURL: anthropicBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// NewAnthropicCompletionClientWithBaseURL overrides the API endpoint (for testing).
func NewAnthropicCompletionClientWithBaseURL(apiKey, baseURL string) *AnthropicCompletionClient {
	c := NewAnthropicCompletionClient(apiKey)
	c.baseURL = baseURL
	return c
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *AnthropicCompletionClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	apiReq := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	// Lift the system message out of the list; everything else passes through.
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			apiReq.System = m.Content
			continue
		}
		apiReq.Messages = append(apiReq.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, domain.NewInternalError("failed to marshal anthropic request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewInternalError("failed to build anthropic request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.NewUpstreamError("anthropic request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, domain.NewUpstreamError("failed to read anthropic response", err)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, domain.NewUpstreamError("malformed anthropic response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("anthropic returned status %d", httpResp.StatusCode)
		if apiResp.Error != nil {
			msg = fmt.Sprintf("%s: %s (%s)", msg, apiResp.Error.Message, apiResp.Error.Type)
		}
		return nil, domain.NewUpstreamError(msg, nil)
	}

	if len(apiResp.Content) == 0 {
		return nil, domain.NewUpstreamError("anthropic returned no content", nil)
	}

	tokens := apiResp.Usage.InputTokens + apiResp.Usage.OutputTokens
	return &CompletionResult{
		Text:          apiResp.Content[0].Text,
		TokensUsed:    tokens,
		EstimatedCost: EstimateCost(domain.ProviderAnthropic, req.Model, tokens),
	}, nil
}
