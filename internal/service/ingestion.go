package service

import (
	"context"
	"strings"

	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/telemetry"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// IngestionService turns a document into embedded knowledge chunks.
// One Ingest call is one logical unit: every chunk is embedded and inserted
// inside a single transaction, so a failure on any chunk leaves nothing
// behind from that call.
type IngestionService struct {
	txRunner TxRunner
	embedder EmbeddingClient
	chunkCfg ChunkConfig
}

func NewIngestionService(txRunner TxRunner, embedder EmbeddingClient, chunkCfg ChunkConfig) *IngestionService {
	if chunkCfg.MaxSize <= 0 {
		chunkCfg = DefaultChunkConfig()
	}
	return &IngestionService{
		txRunner: txRunner,
		embedder: embedder,
		chunkCfg: chunkCfg,
	}
}

// Ingest chunks the document, embeds each chunk in order, and stores them
// for the agent. Returns the number of chunks created on full success.
func (s *IngestionService) Ingest(ctx context.Context, agentID, text string, baseMetadata map[string]any) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Ingest", telemetry.SpanAttributes{
		AgentID:   agentID,
		Operation: "ingest",
	})
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return 0, domain.ErrEmptyDocument
	}

	chunks := ChunkText(text, s.chunkCfg)
	if len(chunks) == 0 {
		return 0, domain.ErrEmptyDocument
	}

	// Embed everything before touching the database: embedding calls are slow
	// remote requests, and holding a transaction open across them would pin a
	// pool connection for the whole upload.
	embeddings := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		embedding, err := s.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			span.SetError(err)
			return 0, err
		}
		embeddings[i] = embedding
	}

	err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		vectors := repos.Vectors()
		for i, chunk := range chunks {
			metadata := make(map[string]any, len(baseMetadata)+2)
			for k, v := range baseMetadata {
				metadata[k] = v
			}
			metadata[domain.MetaChunkIndex] = i
			metadata[domain.MetaChunkCount] = len(chunks)

			if _, err := vectors.Insert(ctx, agentID, chunk, embeddings[i], metadata); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		return 0, err
	}

	return len(chunks), nil
}
