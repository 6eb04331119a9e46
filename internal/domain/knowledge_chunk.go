package domain

import "time"

// Metadata keys attached to every chunk during ingestion.
const (
	MetaFilename   = "filename"
	MetaFileType   = "file_type"
	MetaFileSize   = "file_size"
	MetaChunkIndex = "chunk_index"
	MetaChunkCount = "chunk_count"
)

// KnowledgeChunk is a bounded slice of a document's text stored with its
// embedding for nearest-neighbor retrieval. Chunks are immutable after
// ingestion and are only removed by deleting an agent's whole knowledge base.
type KnowledgeChunk struct {
	ID        string
	AgentID   string
	ChunkText string
	Embedding []float32
	Metadata  map[string]any
	CreatedAt time.Time
}

// RetrievedChunk is a nearest-neighbor query result. Distance is the cosine
// distance to the query vector; smaller means more relevant.
type RetrievedChunk struct {
	ChunkText string
	Distance  float64
	Metadata  map[string]any
}
