package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clearstack/agentbox/internal/domain"
)

// MockDocumentArchive is a mock implementation of DocumentArchive
type MockDocumentArchive struct {
	mock.Mock
}

func (m *MockDocumentArchive) PutObject(ctx context.Context, key string, content []byte, contentType string) error {
	args := m.Called(ctx, key, content, contentType)
	return args.Error(0)
}

func (m *MockDocumentArchive) DeletePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}

func newKnowledgeFixture(agent *domain.Agent) (*MockAgentRepository, *MockVectorRepository, *MockEmbeddingClient, *fakeTxRunner, *IngestionService) {
	mockAgents := new(MockAgentRepository)
	mockVectors := new(MockVectorRepository)
	mockEmbedder := new(MockEmbeddingClient)
	txRunner := newFakeTxRunner(mockVectors, nil, nil)

	if agent != nil {
		mockAgents.On("GetByID", mock.Anything, agent.ID).Return(agent, nil)
	}

	ingestion := NewIngestionService(txRunner, mockEmbedder, ChunkConfig{MaxSize: 100, Overlap: 10})
	return mockAgents, mockVectors, mockEmbedder, txRunner, ingestion
}

func TestKnowledgeService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("extracts, chunks and ingests a text file", func(t *testing.T) {
		mockAgents, mockVectors, mockEmbedder, _, ingestion := newKnowledgeFixture(activeAgent())
		svc := NewKnowledgeService(mockAgents, ingestion, mockVectors)

		mockEmbedder.On("GenerateEmbedding", mock.Anything, mock.Anything).
			Return([]float32{0.1}, nil)

		var seen map[string]any
		mockVectors.On("Insert", mock.Anything, testAgentID, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				seen = args.Get(4).(map[string]any)
			}).
			Return("chunk-id", nil)

		content := []byte("The refund policy allows returns within 30 days.")
		chunks, err := svc.Upload(ctx, UploadInput{
			AgentID:  testAgentID,
			Filename: "policy.txt",
			FileType: "txt",
			Content:  content,
		})

		require.NoError(t, err)
		assert.Equal(t, 1, chunks)
		assert.Equal(t, "policy.txt", seen[domain.MetaFilename])
		assert.Equal(t, "txt", seen[domain.MetaFileType])
		assert.Equal(t, len(content), seen[domain.MetaFileSize])
	})

	t.Run("rejects disallowed file type without touching the agent store", func(t *testing.T) {
		mockAgents, mockVectors, _, _, ingestion := newKnowledgeFixture(nil)
		svc := NewKnowledgeService(mockAgents, ingestion, mockVectors)

		_, err := svc.Upload(ctx, UploadInput{
			AgentID:  testAgentID,
			Filename: "malware.exe",
			FileType: "exe",
			Content:  []byte("MZ"),
		})

		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeUnsupportedFormat, domainErr.Code)
		mockAgents.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("file type comparison is case-insensitive", func(t *testing.T) {
		mockAgents, mockVectors, mockEmbedder, _, ingestion := newKnowledgeFixture(activeAgent())
		svc := NewKnowledgeService(mockAgents, ingestion, mockVectors)

		mockEmbedder.On("GenerateEmbedding", mock.Anything, mock.Anything).
			Return([]float32{0.1}, nil)
		mockVectors.On("Insert", mock.Anything, testAgentID, mock.Anything, mock.Anything, mock.Anything).
			Return("chunk-id", nil)

		chunks, err := svc.Upload(ctx, UploadInput{
			AgentID:  testAgentID,
			Filename: "NOTES.TXT",
			FileType: "TXT",
			Content:  []byte("some notes"),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, chunks)
	})

	t.Run("rejects unknown agent", func(t *testing.T) {
		mockAgents, mockVectors, _, _, ingestion := newKnowledgeFixture(nil)
		mockAgents.On("GetByID", mock.Anything, testAgentID).Return(nil, domain.ErrAgentNotFound)
		svc := NewKnowledgeService(mockAgents, ingestion, mockVectors)

		_, err := svc.Upload(ctx, UploadInput{
			AgentID:  testAgentID,
			Filename: "a.txt",
			FileType: "txt",
			Content:  []byte("text"),
		})

		assert.ErrorIs(t, err, domain.ErrAgentNotFound)
	})

	t.Run("rejects malformed agent id and missing filename", func(t *testing.T) {
		mockAgents, mockVectors, _, _, ingestion := newKnowledgeFixture(nil)
		svc := NewKnowledgeService(mockAgents, ingestion, mockVectors)

		_, err := svc.Upload(ctx, UploadInput{AgentID: "nope", Filename: "a.txt", FileType: "txt"})
		assert.ErrorIs(t, err, domain.ErrInvalidAgentID)

		_, err = svc.Upload(ctx, UploadInput{AgentID: testAgentID, Filename: "", FileType: "txt"})
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
	})

	t.Run("empty document yields a validation error", func(t *testing.T) {
		mockAgents, mockVectors, _, _, ingestion := newKnowledgeFixture(activeAgent())
		svc := NewKnowledgeService(mockAgents, ingestion, mockVectors)

		_, err := svc.Upload(ctx, UploadInput{
			AgentID:  testAgentID,
			Filename: "empty.txt",
			FileType: "txt",
			Content:  []byte("   "),
		})

		assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	})

	t.Run("archives the original file after successful ingestion", func(t *testing.T) {
		mockAgents, mockVectors, mockEmbedder, _, ingestion := newKnowledgeFixture(activeAgent())
		mockArchive := new(MockDocumentArchive)
		svc := NewKnowledgeServiceWithArchive(mockAgents, ingestion, mockVectors, mockArchive)

		mockEmbedder.On("GenerateEmbedding", mock.Anything, mock.Anything).
			Return([]float32{0.1}, nil)
		mockVectors.On("Insert", mock.Anything, testAgentID, mock.Anything, mock.Anything, mock.Anything).
			Return("chunk-id", nil)

		content := []byte("archive me")
		mockArchive.On("PutObject", mock.Anything, "agents/"+testAgentID+"/keep.txt", content, "text/plain").
			Return(nil)

		_, err := svc.Upload(ctx, UploadInput{
			AgentID:  testAgentID,
			Filename: "keep.txt",
			FileType: "txt",
			Content:  content,
		})

		require.NoError(t, err)
		mockArchive.AssertExpectations(t)
	})

	t.Run("archive failure does not fail the upload", func(t *testing.T) {
		mockAgents, mockVectors, mockEmbedder, _, ingestion := newKnowledgeFixture(activeAgent())
		mockArchive := new(MockDocumentArchive)
		svc := NewKnowledgeServiceWithArchive(mockAgents, ingestion, mockVectors, mockArchive)

		mockEmbedder.On("GenerateEmbedding", mock.Anything, mock.Anything).
			Return([]float32{0.1}, nil)
		mockVectors.On("Insert", mock.Anything, testAgentID, mock.Anything, mock.Anything, mock.Anything).
			Return("chunk-id", nil)
		mockArchive.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("bucket gone"))

		chunks, err := svc.Upload(ctx, UploadInput{
			AgentID:  testAgentID,
			Filename: "keep.txt",
			FileType: "txt",
			Content:  []byte("still indexed"),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, chunks)
	})
}

func TestKnowledgeService_Reset(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes all chunks and reports the count", func(t *testing.T) {
		mockAgents, mockVectors, _, _, ingestion := newKnowledgeFixture(nil)
		svc := NewKnowledgeService(mockAgents, ingestion, mockVectors)

		mockVectors.On("DeleteAll", mock.Anything, testAgentID).Return(12, nil)

		deleted, err := svc.Reset(ctx, testAgentID)
		require.NoError(t, err)
		assert.Equal(t, 12, deleted)
	})

	t.Run("cleans up the archive prefix", func(t *testing.T) {
		mockAgents, mockVectors, _, _, ingestion := newKnowledgeFixture(nil)
		mockArchive := new(MockDocumentArchive)
		svc := NewKnowledgeServiceWithArchive(mockAgents, ingestion, mockVectors, mockArchive)

		mockVectors.On("DeleteAll", mock.Anything, testAgentID).Return(3, nil)
		mockArchive.On("DeletePrefix", mock.Anything, "agents/"+testAgentID+"/").Return(nil)

		_, err := svc.Reset(ctx, testAgentID)
		require.NoError(t, err)
		mockArchive.AssertExpectations(t)
	})

	t.Run("rejects malformed agent id", func(t *testing.T) {
		mockAgents, mockVectors, _, _, ingestion := newKnowledgeFixture(nil)
		svc := NewKnowledgeService(mockAgents, ingestion, mockVectors)

		_, err := svc.Reset(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, domain.ErrInvalidAgentID)
		mockVectors.AssertNotCalled(t, "DeleteAll", mock.Anything, mock.Anything)
	})
}

func TestKnowledgeService_HasKnowledge(t *testing.T) {
	ctx := context.Background()

	mockAgents, mockVectors, _, _, ingestion := newKnowledgeFixture(nil)
	svc := NewKnowledgeService(mockAgents, ingestion, mockVectors)

	mockVectors.On("Count", mock.Anything, testAgentID).Return(2, nil)

	has, err := svc.HasKnowledge(ctx, testAgentID)
	require.NoError(t, err)
	assert.True(t, has)

	_, err = svc.HasKnowledge(ctx, "bad-id")
	assert.ErrorIs(t, err, domain.ErrInvalidAgentID)
}
