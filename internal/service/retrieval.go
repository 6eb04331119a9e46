package service

import (
	"context"

	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/telemetry"
)

// DefaultTopK is the retrieval depth used when the caller passes none.
const DefaultTopK = 3

// RetrievalService embeds queries and finds the nearest stored chunks for
// one agent.
type RetrievalService struct {
	vectors  VectorRepositoryInterface
	embedder EmbeddingClient
	topK     int
}

func NewRetrievalService(vectors VectorRepositoryInterface, embedder EmbeddingClient, topK int) *RetrievalService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RetrievalService{
		vectors:  vectors,
		embedder: embedder,
		topK:     topK,
	}
}

// HasKnowledge reports whether the agent has any indexed chunks.
func (s *RetrievalService) HasKnowledge(ctx context.Context, agentID string) (bool, error) {
	count, err := s.vectors.Count(ctx, agentID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Retrieve returns up to topK chunks nearest to the query, ordered by
// ascending distance. When the agent has no knowledge the result is empty
// and the embedding backend is never called.
func (s *RetrievalService) Retrieve(ctx context.Context, query, agentID string, topK int) ([]*domain.RetrievedChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Retrieve", telemetry.SpanAttributes{
		AgentID:   agentID,
		Operation: "retrieve",
	})
	defer span.End()

	if topK <= 0 {
		topK = s.topK
	}

	hasKnowledge, err := s.HasKnowledge(ctx, agentID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if !hasKnowledge {
		return []*domain.RetrievedChunk{}, nil
	}

	queryEmbedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	results, err := s.vectors.NearestNeighbors(ctx, agentID, queryEmbedding, topK)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return results, nil
}
