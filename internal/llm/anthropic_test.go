package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearstack/agentbox/internal/domain"
)

func TestAnthropicCompletionClient_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("lifts the system message into the top-level field", func(t *testing.T) {
		var captured anthropicRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/messages", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
			assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))

			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"content": []map[string]any{{"type": "text", "text": "Hi there!"}},
				"usage":   map[string]int{"input_tokens": 10, "output_tokens": 7},
			})
		}))
		defer server.Close()

		client := NewAnthropicCompletionClientWithBaseURL("test-key", server.URL)

		result, err := client.Complete(ctx, CompletionRequest{
			Messages: []Message{
				{Role: RoleSystem, Content: "Be terse."},
				{Role: RoleUser, Content: "hello"},
			},
			Model:       "claude-3-haiku",
			Temperature: 0.7,
			MaxTokens:   100,
		})

		require.NoError(t, err)
		assert.Equal(t, "Hi there!", result.Text)
		assert.Equal(t, 17, result.TokensUsed)
		assert.Equal(t, EstimateCost(domain.ProviderAnthropic, "claude-3-haiku", 17), result.EstimatedCost)

		// System content moved out of the messages list.
		assert.Equal(t, "Be terse.", captured.System)
		require.Len(t, captured.Messages, 1)
		assert.Equal(t, "user", captured.Messages[0].Role)
		assert.Equal(t, "hello", captured.Messages[0].Content)
	})

	t.Run("api error becomes an upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"type": "rate_limit_error", "message": "slow down"},
			})
		}))
		defer server.Close()

		client := NewAnthropicCompletionClientWithBaseURL("test-key", server.URL)

		_, err := client.Complete(ctx, CompletionRequest{
			Messages: []Message{{Role: RoleUser, Content: "hello"}},
			Model:    "claude-3-haiku",
		})

		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeUpstreamProvider, domainErr.Code)
		assert.Contains(t, domainErr.Message, "slow down")
	})

	t.Run("empty content is an upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"content": []map[string]any{},
				"usage":   map[string]int{"input_tokens": 1, "output_tokens": 0},
			})
		}))
		defer server.Close()

		client := NewAnthropicCompletionClientWithBaseURL("test-key", server.URL)

		_, err := client.Complete(ctx, CompletionRequest{
			Messages: []Message{{Role: RoleUser, Content: "hello"}},
			Model:    "claude-3-haiku",
		})

		require.Error(t, err)
	})
}

func TestRegistry_ClientFor(t *testing.T) {
	t.Run("resolves configured providers", func(t *testing.T) {
		registry := NewRegistry(ClientConfig{OpenAIAPIKey: "sk-test"})

		client, err := registry.ClientFor(domain.ProviderOpenAI)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("missing key is an invalid state error", func(t *testing.T) {
		registry := NewRegistry(ClientConfig{OpenAIAPIKey: "sk-test"})

		_, err := registry.ClientFor(domain.ProviderAnthropic)
		require.Error(t, err)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeInvalidState, domainErr.Code)
	})
}
