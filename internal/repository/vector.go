package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/clearstack/agentbox/internal/domain"
)

// VectorRepository persists knowledge chunks and answers nearest-neighbor
// queries. The distance metric is cosine distance (pgvector's <=> operator)
// for the whole store; ties are broken by insertion order via the seq column.
type VectorRepository struct {
	db         dbtx
	dimensions int
}

func NewVectorRepository(pool *pgxpool.Pool, dimensions int) *VectorRepository {
	return &VectorRepository{db: pool, dimensions: dimensions}
}

func NewVectorRepositoryWithTx(tx pgx.Tx, dimensions int) *VectorRepository {
	return &VectorRepository{db: tx, dimensions: dimensions}
}

// Insert stores one chunk with its embedding and returns the new chunk id.
func (r *VectorRepository) Insert(ctx context.Context, agentID, chunkText string, embedding []float32, metadata map[string]any) (string, error) {
	if len(embedding) != r.dimensions {
		return "", domain.NewStorageError(
			fmt.Sprintf("vector has %d dimensions, store is configured for %d", len(embedding), r.dimensions), nil)
	}

	chunk := domain.KnowledgeChunk{
		ID:        uuid.NewString(),
		AgentID:   agentID,
		ChunkText: chunkText,
		Embedding: embedding,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO knowledge_chunks (id, agent_id, chunk_text, embedding, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		chunk.ID, chunk.AgentID, chunk.ChunkText, pgvector.NewVector(chunk.Embedding), chunk.Metadata, chunk.CreatedAt,
	)
	if err != nil {
		return "", domain.NewStorageError("failed to insert knowledge chunk", err)
	}
	return chunk.ID, nil
}

// NearestNeighbors returns up to k chunks for the agent ordered by ascending
// cosine distance to the query vector.
func (r *VectorRepository) NearestNeighbors(ctx context.Context, agentID string, queryVector []float32, k int) ([]*domain.RetrievedChunk, error) {
	if len(queryVector) != r.dimensions {
		return nil, domain.NewStorageError(
			fmt.Sprintf("query vector has %d dimensions, store is configured for %d", len(queryVector), r.dimensions), nil)
	}

	rows, err := r.db.Query(ctx,
		`SELECT chunk_text, embedding <=> $1 AS distance, metadata
		 FROM knowledge_chunks
		 WHERE agent_id = $2
		 ORDER BY distance ASC, seq ASC
		 LIMIT $3`,
		pgvector.NewVector(queryVector), agentID, k,
	)
	if err != nil {
		return nil, domain.NewStorageError("vector search failed", err)
	}
	defer rows.Close()

	results := make([]*domain.RetrievedChunk, 0, k)
	for rows.Next() {
		var chunk domain.RetrievedChunk
		if err := rows.Scan(&chunk.ChunkText, &chunk.Distance, &chunk.Metadata); err != nil {
			return nil, domain.NewStorageError("failed to scan vector search row", err)
		}
		results = append(results, &chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("vector search failed", err)
	}
	return results, nil
}

// Count returns the number of chunks indexed for the agent.
func (r *VectorRepository) Count(ctx context.Context, agentID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM knowledge_chunks WHERE agent_id = $1`,
		agentID,
	).Scan(&count)
	if err != nil {
		return 0, domain.NewStorageError("failed to count knowledge chunks", err)
	}
	return count, nil
}

// DeleteAll removes every chunk for the agent and returns the removed count.
func (r *VectorRepository) DeleteAll(ctx context.Context, agentID string) (int, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM knowledge_chunks WHERE agent_id = $1`,
		agentID,
	)
	if err != nil {
		return 0, domain.NewStorageError("failed to delete knowledge chunks", err)
	}
	return int(tag.RowsAffected()), nil
}
