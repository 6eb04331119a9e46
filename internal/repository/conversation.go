package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/pagination"
	"github.com/clearstack/agentbox/internal/service"
)

type ConversationRepository struct {
	db dbtx
}

func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: pool}
}

func NewConversationRepositoryWithTx(tx pgx.Tx) *ConversationRepository {
	return &ConversationRepository{db: tx}
}

func (r *ConversationRepository) Create(ctx context.Context, turn *domain.ConversationTurn) error {
	// rag_context stays NULL when no knowledge was consulted
	var ragContext any
	if turn.RAGContext != nil {
		ragContext = turn.RAGContext
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO conversations (id, agent_id, user_message, agent_response, tokens_used, response_time_ms, rag_context, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		turn.ID, turn.AgentID, turn.UserMessage, turn.AgentResponse, turn.TokensUsed, turn.ResponseTimeMs, ragContext, turn.CreatedAt,
	)
	if err != nil {
		return domain.NewStorageError("failed to insert conversation turn", err)
	}
	return nil
}

func (r *ConversationRepository) CountByAgent(ctx context.Context, agentID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM conversations WHERE agent_id = $1`,
		agentID,
	).Scan(&count)
	if err != nil {
		return 0, domain.NewStorageError("failed to count conversations", err)
	}
	return count, nil
}

func (r *ConversationRepository) ListByAgentWithCursor(ctx context.Context, agentID string, cursor *pagination.Cursor, limit int) (*service.ConversationPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, agent_id, user_message, agent_response, tokens_used, response_time_ms, rag_context, created_at
			 FROM conversations
			 WHERE agent_id = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			agentID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, agent_id, user_message, agent_response, tokens_used, response_time_ms, rag_context, created_at
			 FROM conversations
			 WHERE agent_id = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			agentID, limit+1,
		)
	}
	if err != nil {
		return nil, domain.NewStorageError("failed to list conversations", err)
	}
	defer rows.Close()

	items, err := scanConversationRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.ConversationPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func scanConversationRows(rows pgx.Rows) ([]*domain.ConversationTurn, error) {
	var items []*domain.ConversationTurn
	for rows.Next() {
		var turn domain.ConversationTurn
		if err := rows.Scan(&turn.ID, &turn.AgentID, &turn.UserMessage, &turn.AgentResponse,
			&turn.TokensUsed, &turn.ResponseTimeMs, &turn.RAGContext, &turn.CreatedAt); err != nil {
			return nil, domain.NewStorageError("failed to scan conversation row", err)
		}
		items = append(items, &turn)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("failed to read conversation rows", err)
	}
	return items, nil
}
