package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/llm"
	"github.com/clearstack/agentbox/internal/telemetry"
)

// RetrievalInterface is the context retrieval contract consumed by the
// chat orchestrator.
type RetrievalInterface interface {
	HasKnowledge(ctx context.Context, agentID string) (bool, error)
	Retrieve(ctx context.Context, query, agentID string, topK int) ([]*domain.RetrievedChunk, error)
}

// CompletionRegistry resolves a completion client by provider.
type CompletionRegistry interface {
	ClientFor(provider domain.Provider) (llm.CompletionClient, error)
}

// GenerationConfig holds the fixed generation parameters.
type GenerationConfig struct {
	Temperature float32
	MaxTokens   int
	TopK        int
}

// ChatOutput is the result of one completed chat turn.
type ChatOutput struct {
	Response       string
	TokensUsed     int
	ResponseTimeMs int
	// RAGContext is nil when no knowledge base was consulted.
	RAGContext []string
}

// ChatService orchestrates one chat turn: validate the agent, retrieve
// context when a knowledge base exists, generate, then persist the
// conversation turn and usage record atomically.
type ChatService struct {
	agents    AgentRepositoryInterface
	retrieval RetrievalInterface
	registry  CompletionRegistry
	txRunner  TxRunner
	uuidGen   UUIDGenerator
	genCfg    GenerationConfig
	now       func() time.Time
}

func NewChatService(
	agents AgentRepositoryInterface,
	retrieval RetrievalInterface,
	registry CompletionRegistry,
	txRunner TxRunner,
	genCfg GenerationConfig,
) *ChatService {
	if genCfg.TopK <= 0 {
		genCfg.TopK = DefaultTopK
	}
	return &ChatService{
		agents:    agents,
		retrieval: retrieval,
		registry:  registry,
		txRunner:  txRunner,
		uuidGen:   &DefaultUUIDGenerator{},
		genCfg:    genCfg,
		now:       time.Now,
	}
}

// NewChatServiceWithClock creates a ChatService with a custom clock and UUID
// generator (for testing).
func NewChatServiceWithClock(
	agents AgentRepositoryInterface,
	retrieval RetrievalInterface,
	registry CompletionRegistry,
	txRunner TxRunner,
	genCfg GenerationConfig,
	uuidGen UUIDGenerator,
	now func() time.Time,
) *ChatService {
	svc := NewChatService(agents, retrieval, registry, txRunner, genCfg)
	svc.uuidGen = uuidGen
	svc.now = now
	return svc
}

// Chat runs one user/agent exchange. Either the turn completes and both the
// conversation row and the usage row exist, or the call fails and neither does.
func (s *ChatService) Chat(ctx context.Context, agentID, message string) (*ChatOutput, error) {
	start := s.now()

	ctx, span := telemetry.StartSpan(ctx, "ChatService.Chat", telemetry.SpanAttributes{
		AgentID:   agentID,
		Operation: "chat",
	})
	defer span.End()

	if strings.TrimSpace(message) == "" {
		return nil, domain.ErrEmptyMessage
	}
	if _, err := uuid.Parse(agentID); err != nil {
		return nil, domain.ErrInvalidAgentID
	}

	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent.Status != domain.AgentStatusActive {
		return nil, domain.NewDomainError(domain.ErrCodeInvalidState,
			fmt.Sprintf("agent is not active (status: %s)", agent.Status))
	}

	// Context retrieval is not best-effort: when a knowledge base exists,
	// answering without it would be wrong, so failures here fail the turn.
	var ragContext []string
	hasKnowledge, err := s.retrieval.HasKnowledge(ctx, agentID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if hasKnowledge {
		docs, err := s.retrieval.Retrieve(ctx, message, agentID, s.genCfg.TopK)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		for _, doc := range docs {
			ragContext = append(ragContext, doc.ChunkText)
		}
	}

	messages := BuildChatMessages(agent.EffectiveSystemPrompt(), ragContext, message)

	client, err := s.registry.ClientFor(agent.Provider)
	if err != nil {
		return nil, err
	}

	result, err := client.Complete(ctx, llm.CompletionRequest{
		Messages:    messages,
		Model:       agent.Model,
		Temperature: s.genCfg.Temperature,
		MaxTokens:   s.genCfg.MaxTokens,
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	responseTimeMs := int(s.now().Sub(start).Milliseconds())
	createdAt := s.now().UTC()

	turn := &domain.ConversationTurn{
		ID:             s.uuidGen.NewString(),
		AgentID:        agentID,
		UserMessage:    message,
		AgentResponse:  result.Text,
		TokensUsed:     result.TokensUsed,
		ResponseTimeMs: responseTimeMs,
		RAGContext:     ragContext,
		CreatedAt:      createdAt,
	}
	usage := &domain.UsageRecord{
		ID:         s.uuidGen.NewString(),
		AgentID:    agentID,
		Provider:   agent.Provider,
		Model:      agent.Model,
		TokensUsed: result.TokensUsed,
		CostUSD:    result.EstimatedCost,
		CreatedAt:  createdAt,
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Conversations().Create(ctx, turn); err != nil {
			return err
		}
		return repos.Usage().Create(ctx, usage)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return &ChatOutput{
		Response:       result.Text,
		TokensUsed:     result.TokensUsed,
		ResponseTimeMs: responseTimeMs,
		RAGContext:     ragContext,
	}, nil
}

// BuildChatMessages assembles the outgoing message list: the system prompt,
// with retrieved context appended as delimited [Document N] blocks when any
// was found, followed by the user message.
func BuildChatMessages(systemPrompt string, ragContext []string, userMessage string) []llm.Message {
	systemContent := systemPrompt
	if len(ragContext) > 0 {
		blocks := make([]string, 0, len(ragContext))
		for i, doc := range ragContext {
			blocks = append(blocks, fmt.Sprintf("[Document %d]\n%s", i+1, doc))
		}
		systemContent += "\n\nUse the following context to answer questions accurately:\n\n" +
			strings.Join(blocks, "\n\n")
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemContent},
		{Role: llm.RoleUser, Content: userMessage},
	}
}
