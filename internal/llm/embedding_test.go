package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearstack/agentbox/internal/domain"
)

type fakeEmbeddingAPI struct {
	embedding []float32
	err       error
	calls     int
}

func (f *fakeEmbeddingAPI) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.embedding, f.err
}

func TestEmbeddingClient_GenerateEmbedding(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the backend embedding", func(t *testing.T) {
		api := &fakeEmbeddingAPI{embedding: []float32{0.1, 0.2, 0.3}}
		client := NewEmbeddingClientWithAPI(api, 3)

		embedding, err := client.GenerateEmbedding(ctx, "some text")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, embedding)
	})

	t.Run("rejects empty text without calling the backend", func(t *testing.T) {
		api := &fakeEmbeddingAPI{embedding: []float32{0.1}}
		client := NewEmbeddingClientWithAPI(api, 1)

		_, err := client.GenerateEmbedding(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyText)
		assert.Equal(t, 0, api.calls)
	})

	t.Run("dimension mismatch is an internal error", func(t *testing.T) {
		api := &fakeEmbeddingAPI{embedding: []float32{0.1, 0.2}}
		client := NewEmbeddingClientWithAPI(api, 1536)

		_, err := client.GenerateEmbedding(ctx, "text")
		require.Error(t, err)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeInternalError, domainErr.Code)
		assert.Contains(t, domainErr.Message, "2 dimensions, expected 1536")
	})

	t.Run("backend failure is an upstream error", func(t *testing.T) {
		api := &fakeEmbeddingAPI{err: errors.New("rate limited")}
		client := NewEmbeddingClientWithAPI(api, 3)

		_, err := client.GenerateEmbedding(ctx, "text")
		require.Error(t, err)

		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeUpstreamProvider, domainErr.Code)
	})
}
