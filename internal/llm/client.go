// Package llm provides uniform clients over the embedding and generation
// backends. Provider variants differ only in request shaping; that variance
// stays inside the adapters.
package llm

import (
	"context"

	"github.com/clearstack/agentbox/internal/domain"
)

// Message roles in a completion request.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged turn in a completion request. At most one
// message carries the system role, conventionally first.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest is the uniform generation request.
type CompletionRequest struct {
	Messages    []Message
	Model       string
	Temperature float32
	MaxTokens   int
}

// CompletionResult is the uniform generation result. TokensUsed is
// provider-authoritative; EstimatedCost is a local table lookup.
type CompletionResult struct {
	Text          string
	TokensUsed    int
	EstimatedCost string
}

// CompletionClient is the uniform interface over a generation backend.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// ClientConfig holds API keys for the supported providers.
type ClientConfig struct {
	OpenAIAPIKey    string
	AnthropicAPIKey string
}

// Registry resolves a CompletionClient by provider name.
type Registry struct {
	clients map[domain.Provider]CompletionClient
}

// NewRegistry builds completion clients for every provider with a key.
func NewRegistry(cfg ClientConfig) *Registry {
	clients := make(map[domain.Provider]CompletionClient)
	if cfg.OpenAIAPIKey != "" {
		clients[domain.ProviderOpenAI] = NewOpenAICompletionClient(cfg.OpenAIAPIKey)
	}
	if cfg.AnthropicAPIKey != "" {
		clients[domain.ProviderAnthropic] = NewAnthropicCompletionClient(cfg.AnthropicAPIKey)
	}
	return &Registry{clients: clients}
}

// NewRegistryWithClients builds a registry over explicit clients (for testing).
func NewRegistryWithClients(clients map[domain.Provider]CompletionClient) *Registry {
	return &Registry{clients: clients}
}

// ClientFor returns the completion client for a provider.
func (r *Registry) ClientFor(provider domain.Provider) (CompletionClient, error) {
	client, ok := r.clients[provider]
	if !ok {
		return nil, domain.NewDomainError(domain.ErrCodeInvalidState,
			"no API key configured for provider "+string(provider))
	}
	return client, nil
}
