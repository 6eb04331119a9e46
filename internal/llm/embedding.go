package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/clearstack/agentbox/internal/domain"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the expected dimension of embeddings
	DefaultEmbeddingDimensions = 1536
)

// ErrEmptyText is returned when text is empty
var ErrEmptyText = errors.New("text cannot be empty")

// EmbeddingAPI defines the interface for the raw embedding backend call
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingClient wraps an embedding backend and enforces the configured
// vector dimension. Calls are stateless and never retried here; retry policy
// belongs to the caller.
type EmbeddingClient struct {
	api        EmbeddingAPI
	dimensions int
}

type openAIEmbeddingAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func newOpenAIEmbeddingAdapter(apiKey string, model openai.EmbeddingModel) *openAIEmbeddingAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &openAIEmbeddingAdapter{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *openAIEmbeddingAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// EmbeddingConfig configures the embedding client.
type EmbeddingConfig struct {
	APIKey     string
	Model      string
	Dimensions int
}

// NewEmbeddingClient creates an embedding client backed by OpenAI.
func NewEmbeddingClient(cfg EmbeddingConfig) *EmbeddingClient {
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &EmbeddingClient{
		api:        newOpenAIEmbeddingAdapter(cfg.APIKey, openai.EmbeddingModel(cfg.Model)),
		dimensions: dimensions,
	}
}

// NewEmbeddingClientWithAPI creates an embedding client over a custom backend (for testing).
func NewEmbeddingClientWithAPI(api EmbeddingAPI, dimensions int) *EmbeddingClient {
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &EmbeddingClient{api: api, dimensions: dimensions}
}

// GenerateEmbedding generates an embedding for the given text.
// A dimension mismatch is a configuration error, not a transient failure.
func (c *EmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.api.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, domain.NewUpstreamError("failed to create embedding", err)
	}

	if len(embedding) != c.dimensions {
		return nil, domain.NewInternalError(
			fmt.Sprintf("embedding has %d dimensions, expected %d", len(embedding), c.dimensions), nil)
	}

	return embedding, nil
}
