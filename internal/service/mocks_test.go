package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/llm"
	"github.com/clearstack/agentbox/internal/pagination"
)

// MockAgentRepository is a mock implementation of AgentRepositoryInterface
type MockAgentRepository struct {
	mock.Mock
}

func (m *MockAgentRepository) Create(ctx context.Context, a *domain.Agent) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) List(ctx context.Context) ([]*domain.Agent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Agent), args.Error(1)
}

func (m *MockAgentRepository) Update(ctx context.Context, a *domain.Agent) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAgentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVectorRepository is a mock implementation of VectorRepositoryInterface
type MockVectorRepository struct {
	mock.Mock
}

func (m *MockVectorRepository) Insert(ctx context.Context, agentID, chunkText string, embedding []float32, metadata map[string]any) (string, error) {
	args := m.Called(ctx, agentID, chunkText, embedding, metadata)
	return args.String(0), args.Error(1)
}

func (m *MockVectorRepository) NearestNeighbors(ctx context.Context, agentID string, queryVector []float32, k int) ([]*domain.RetrievedChunk, error) {
	args := m.Called(ctx, agentID, queryVector, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RetrievedChunk), args.Error(1)
}

func (m *MockVectorRepository) Count(ctx context.Context, agentID string) (int, error) {
	args := m.Called(ctx, agentID)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorRepository) DeleteAll(ctx context.Context, agentID string) (int, error) {
	args := m.Called(ctx, agentID)
	return args.Int(0), args.Error(1)
}

// MockConversationRepository is a mock implementation of ConversationRepositoryInterface
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) Create(ctx context.Context, turn *domain.ConversationTurn) error {
	args := m.Called(ctx, turn)
	return args.Error(0)
}

func (m *MockConversationRepository) CountByAgent(ctx context.Context, agentID string) (int, error) {
	args := m.Called(ctx, agentID)
	return args.Int(0), args.Error(1)
}

func (m *MockConversationRepository) ListByAgentWithCursor(ctx context.Context, agentID string, cursor *pagination.Cursor, limit int) (*ConversationPageResult, error) {
	args := m.Called(ctx, agentID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ConversationPageResult), args.Error(1)
}

// MockUsageRepository is a mock implementation of UsageRepositoryInterface
type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Create(ctx context.Context, record *domain.UsageRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockUsageRepository) TotalTokensByAgent(ctx context.Context, agentID string) (int64, error) {
	args := m.Called(ctx, agentID)
	return args.Get(0).(int64), args.Error(1)
}

// MockEmbeddingClient is a mock implementation of EmbeddingClient that also
// counts calls, so tests can assert the backend was never reached.
type MockEmbeddingClient struct {
	mock.Mock
	Calls int
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.Calls++
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockCompletionClient is a mock implementation of llm.CompletionClient
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.CompletionResult), args.Error(1)
}

// MockUUIDGenerator returns a fixed sequence of UUIDs
type MockUUIDGenerator struct {
	callCount int
	uuids     []string
}

func NewMockUUIDGenerator(uuids ...string) *MockUUIDGenerator {
	return &MockUUIDGenerator{uuids: uuids}
}

func (m *MockUUIDGenerator) NewString() string {
	if m.callCount < len(m.uuids) {
		id := m.uuids[m.callCount]
		m.callCount++
		return id
	}
	return "default-uuid"
}

// fakeTxRunner runs the transaction callback against mock repositories and mimics
// transactional visibility: on error nothing is considered persisted.
type fakeTxRunner struct {
	vectors       VectorRepositoryInterface
	conversations ConversationRepositoryInterface
	usage         UsageRepositoryInterface

	Began      bool
	Committed  bool
	RolledBack bool
}

func newFakeTxRunner(vectors VectorRepositoryInterface, conversations ConversationRepositoryInterface, usage UsageRepositoryInterface) *fakeTxRunner {
	return &fakeTxRunner{
		vectors:       vectors,
		conversations: conversations,
		usage:         usage,
	}
}

func (f *fakeTxRunner) Vectors() VectorRepositoryInterface             { return f.vectors }
func (f *fakeTxRunner) Conversations() ConversationRepositoryInterface { return f.conversations }
func (f *fakeTxRunner) Usage() UsageRepositoryInterface                { return f.usage }

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	f.Began = true
	if err := fn(f); err != nil {
		f.RolledBack = true
		return err
	}
	f.Committed = true
	return nil
}
