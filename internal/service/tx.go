package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/pagination"
)

// VectorRepositoryInterface defines the vector store contract.
type VectorRepositoryInterface interface {
	Insert(ctx context.Context, agentID, chunkText string, embedding []float32, metadata map[string]any) (string, error)
	NearestNeighbors(ctx context.Context, agentID string, queryVector []float32, k int) ([]*domain.RetrievedChunk, error)
	Count(ctx context.Context, agentID string) (int, error)
	DeleteAll(ctx context.Context, agentID string) (int, error)
}

// ConversationRepositoryInterface defines the conversation persistence contract.
type ConversationRepositoryInterface interface {
	Create(ctx context.Context, turn *domain.ConversationTurn) error
	CountByAgent(ctx context.Context, agentID string) (int, error)
	ListByAgentWithCursor(ctx context.Context, agentID string, cursor *pagination.Cursor, limit int) (*ConversationPageResult, error)
}

// UsageRepositoryInterface defines the usage ledger contract.
type UsageRepositoryInterface interface {
	Create(ctx context.Context, record *domain.UsageRecord) error
	TotalTokensByAgent(ctx context.Context, agentID string) (int64, error)
}

// AgentRepositoryInterface defines the agent persistence contract.
type AgentRepositoryInterface interface {
	Create(ctx context.Context, a *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	List(ctx context.Context) ([]*domain.Agent, error)
	Update(ctx context.Context, a *domain.Agent) error
	Delete(ctx context.Context, id string) error
}

type ConversationPageResult struct {
	Items      []*domain.ConversationTurn
	NextCursor string
	HasMore    bool
}

// TxRepositories provides transaction-bound repositories.
type TxRepositories interface {
	Vectors() VectorRepositoryInterface
	Conversations() ConversationRepositoryInterface
	Usage() UsageRepositoryInterface
}

// TxRunner executes a function within a transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}
