package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/pagination"
)

func TestAgentService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active agent", func(t *testing.T) {
		mockAgents := new(MockAgentRepository)
		svc := NewAgentServiceWithUUIDGen(mockAgents, nil, nil, NewMockUUIDGenerator("agent-id-1"))

		mockAgents.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.Agent) bool {
			return a.ID == "agent-id-1" &&
				a.Name == "support-bot" &&
				a.Provider == domain.ProviderOpenAI &&
				a.Model == "gpt-4o" &&
				a.Status == domain.AgentStatusActive &&
				!a.CreatedAt.IsZero() &&
				a.UpdatedAt.Equal(a.CreatedAt)
		})).Return(nil)

		agent, err := svc.Create(ctx, CreateAgentInput{
			Name:     "support-bot",
			Provider: domain.ProviderOpenAI,
			Model:    "gpt-4o",
		})

		require.NoError(t, err)
		assert.Equal(t, "agent-id-1", agent.ID)
		mockAgents.AssertExpectations(t)
	})

	t.Run("rejects missing fields and unknown provider", func(t *testing.T) {
		mockAgents := new(MockAgentRepository)
		svc := NewAgentService(mockAgents, nil, nil)

		_, err := svc.Create(ctx, CreateAgentInput{Provider: domain.ProviderOpenAI, Model: "gpt-4o"})
		require.Error(t, err)

		_, err = svc.Create(ctx, CreateAgentInput{Name: "a", Provider: domain.ProviderOpenAI})
		require.Error(t, err)

		_, err = svc.Create(ctx, CreateAgentInput{Name: "a", Provider: "mistral", Model: "m"})
		assert.ErrorIs(t, err, domain.ErrInvalidProvider)

		mockAgents.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAgentService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("applies only non-nil fields", func(t *testing.T) {
		mockAgents := new(MockAgentRepository)
		svc := NewAgentService(mockAgents, nil, nil)

		existing := activeAgent()
		mockAgents.On("GetByID", mock.Anything, testAgentID).Return(existing, nil)

		newModel := "gpt-4-turbo"
		mockAgents.On("Update", mock.Anything, mock.MatchedBy(func(a *domain.Agent) bool {
			return a.Model == "gpt-4-turbo" &&
				a.Name == "support-bot" &&
				a.SystemPrompt == "You answer support questions."
		})).Return(nil)

		agent, err := svc.Update(ctx, testAgentID, UpdateAgentInput{Model: &newModel})

		require.NoError(t, err)
		assert.Equal(t, "gpt-4-turbo", agent.Model)
		assert.Equal(t, "support-bot", agent.Name)
	})

	t.Run("rejects empty name and invalid status", func(t *testing.T) {
		mockAgents := new(MockAgentRepository)
		svc := NewAgentService(mockAgents, nil, nil)

		mockAgents.On("GetByID", mock.Anything, testAgentID).Return(activeAgent(), nil)

		empty := ""
		_, err := svc.Update(ctx, testAgentID, UpdateAgentInput{Name: &empty})
		require.Error(t, err)

		bad := domain.AgentStatus("paused")
		_, err = svc.Update(ctx, testAgentID, UpdateAgentInput{Status: &bad})
		assert.ErrorIs(t, err, domain.ErrInvalidAgentStatus)

		mockAgents.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("can deactivate an agent", func(t *testing.T) {
		mockAgents := new(MockAgentRepository)
		svc := NewAgentService(mockAgents, nil, nil)

		mockAgents.On("GetByID", mock.Anything, testAgentID).Return(activeAgent(), nil)
		mockAgents.On("Update", mock.Anything, mock.MatchedBy(func(a *domain.Agent) bool {
			return a.Status == domain.AgentStatusInactive
		})).Return(nil)

		inactive := domain.AgentStatusInactive
		agent, err := svc.Update(ctx, testAgentID, UpdateAgentInput{Status: &inactive})

		require.NoError(t, err)
		assert.Equal(t, domain.AgentStatusInactive, agent.Status)
	})
}

func TestAgentService_Status(t *testing.T) {
	ctx := context.Background()

	mockAgents := new(MockAgentRepository)
	mockConversations := new(MockConversationRepository)
	mockUsage := new(MockUsageRepository)
	svc := NewAgentService(mockAgents, mockConversations, mockUsage)

	mockAgents.On("GetByID", mock.Anything, testAgentID).Return(activeAgent(), nil)
	mockConversations.On("CountByAgent", mock.Anything, testAgentID).Return(9, nil)
	mockUsage.On("TotalTokensByAgent", mock.Anything, testAgentID).Return(int64(1234), nil)

	summary, err := svc.Status(ctx, testAgentID)

	require.NoError(t, err)
	assert.Equal(t, 9, summary.ConversationCount)
	assert.Equal(t, int64(1234), summary.TotalTokensUsed)
	assert.Equal(t, "support-bot", summary.Agent.Name)
}

func TestAgentService_ListConversations(t *testing.T) {
	ctx := context.Background()

	t.Run("pages through history", func(t *testing.T) {
		mockAgents := new(MockAgentRepository)
		mockConversations := new(MockConversationRepository)
		svc := NewAgentService(mockAgents, mockConversations, nil)

		mockAgents.On("GetByID", mock.Anything, testAgentID).Return(activeAgent(), nil)
		mockConversations.On("ListByAgentWithCursor", mock.Anything, testAgentID, (*pagination.Cursor)(nil), 20).
			Return(&ConversationPageResult{
				Items:      []*domain.ConversationTurn{{ID: "turn-1"}},
				NextCursor: "next-cursor",
				HasMore:    true,
			}, nil)

		out, err := svc.ListConversations(ctx, ListConversationsInput{AgentID: testAgentID, Limit: 20})

		require.NoError(t, err)
		assert.Len(t, out.Items, 1)
		assert.Equal(t, "next-cursor", out.Cursor)
		assert.True(t, out.HasMore)
	})

	t.Run("malformed cursor is a validation error", func(t *testing.T) {
		mockAgents := new(MockAgentRepository)
		mockConversations := new(MockConversationRepository)
		svc := NewAgentService(mockAgents, mockConversations, nil)

		mockAgents.On("GetByID", mock.Anything, testAgentID).Return(activeAgent(), nil)

		_, err := svc.ListConversations(ctx, ListConversationsInput{AgentID: testAgentID, Cursor: "%%%not-base64%%%", Limit: 20})

		require.Error(t, err)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
	})
}
