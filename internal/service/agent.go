package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clearstack/agentbox/internal/domain"
)

// AgentService manages agent records for the admin surface.
type AgentService struct {
	agents        AgentRepositoryInterface
	conversations ConversationRepositoryInterface
	usage         UsageRepositoryInterface
	uuidGen       UUIDGenerator
}

func NewAgentService(
	agents AgentRepositoryInterface,
	conversations ConversationRepositoryInterface,
	usage UsageRepositoryInterface,
) *AgentService {
	return &AgentService{
		agents:        agents,
		conversations: conversations,
		usage:         usage,
		uuidGen:       &DefaultUUIDGenerator{},
	}
}

// NewAgentServiceWithUUIDGen creates an AgentService with a custom UUID generator (for testing)
func NewAgentServiceWithUUIDGen(
	agents AgentRepositoryInterface,
	conversations ConversationRepositoryInterface,
	usage UsageRepositoryInterface,
	uuidGen UUIDGenerator,
) *AgentService {
	svc := NewAgentService(agents, conversations, usage)
	svc.uuidGen = uuidGen
	return svc
}

// CreateAgentInput carries the fields for a new agent.
type CreateAgentInput struct {
	Name         string
	Provider     domain.Provider
	Model        string
	SystemPrompt string
}

// UpdateAgentInput is a typed partial update. Only non-nil fields are
// applied; there is no update-by-attribute-name path.
type UpdateAgentInput struct {
	Name         *string
	Model        *string
	SystemPrompt *string
	Status       *domain.AgentStatus
}

// AgentStatusSummary reports basic per-agent metrics.
type AgentStatusSummary struct {
	Agent             *domain.Agent
	ConversationCount int
	TotalTokensUsed   int64
}

func (s *AgentService) Create(ctx context.Context, input CreateAgentInput) (*domain.Agent, error) {
	if input.Name == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "agent name is required")
	}
	if input.Model == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "agent model is required")
	}
	if !domain.IsValidProvider(input.Provider) {
		return nil, domain.ErrInvalidProvider
	}

	now := time.Now().UTC()
	agent := &domain.Agent{
		ID:           s.uuidGen.NewString(),
		Name:         input.Name,
		Provider:     input.Provider,
		Model:        input.Model,
		SystemPrompt: input.SystemPrompt,
		Status:       domain.AgentStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *AgentService) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrInvalidAgentID
	}
	return s.agents.GetByID(ctx, id)
}

func (s *AgentService) List(ctx context.Context) ([]*domain.Agent, error) {
	return s.agents.List(ctx)
}

func (s *AgentService) Update(ctx context.Context, id string, input UpdateAgentInput) (*domain.Agent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrInvalidAgentID
	}

	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, domain.NewDomainError(domain.ErrCodeValidation, "agent name cannot be empty")
		}
		agent.Name = *input.Name
	}
	if input.Model != nil {
		if *input.Model == "" {
			return nil, domain.NewDomainError(domain.ErrCodeValidation, "agent model cannot be empty")
		}
		agent.Model = *input.Model
	}
	if input.SystemPrompt != nil {
		agent.SystemPrompt = *input.SystemPrompt
	}
	if input.Status != nil {
		if !domain.IsValidAgentStatus(*input.Status) {
			return nil, domain.ErrInvalidAgentStatus
		}
		agent.Status = *input.Status
	}
	agent.UpdatedAt = time.Now().UTC()

	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

func (s *AgentService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrInvalidAgentID
	}
	return s.agents.Delete(ctx, id)
}

// Status returns the agent with conversation and usage totals.
func (s *AgentService) Status(ctx context.Context, id string) (*AgentStatusSummary, error) {
	agent, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.conversations.CountByAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	tokens, err := s.usage.TotalTokensByAgent(ctx, id)
	if err != nil {
		return nil, err
	}

	return &AgentStatusSummary{
		Agent:             agent,
		ConversationCount: count,
		TotalTokensUsed:   tokens,
	}, nil
}

// ListConversationsInput pages through an agent's conversation history.
type ListConversationsInput struct {
	AgentID string
	Cursor  string
	Limit   int
}

type ListConversationsOutput struct {
	Items   []*domain.ConversationTurn
	Cursor  string
	HasMore bool
}

func (s *AgentService) ListConversations(ctx context.Context, input ListConversationsInput) (*ListConversationsOutput, error) {
	if _, err := uuid.Parse(input.AgentID); err != nil {
		return nil, domain.ErrInvalidAgentID
	}
	if _, err := s.agents.GetByID(ctx, input.AgentID); err != nil {
		return nil, err
	}

	cursor, err := decodeCursor(input.Cursor)
	if err != nil {
		return nil, err
	}

	page, err := s.conversations.ListByAgentWithCursor(ctx, input.AgentID, cursor, input.Limit)
	if err != nil {
		return nil, err
	}

	return &ListConversationsOutput{
		Items:   page.Items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	}, nil
}
