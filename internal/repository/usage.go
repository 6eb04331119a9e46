package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearstack/agentbox/internal/domain"
)

type UsageRepository struct {
	db dbtx
}

func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{db: pool}
}

func NewUsageRepositoryWithTx(tx pgx.Tx) *UsageRepository {
	return &UsageRepository{db: tx}
}

func (r *UsageRepository) Create(ctx context.Context, record *domain.UsageRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO api_usage (id, agent_id, provider, model, tokens_used, cost_usd, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.AgentID, record.Provider, record.Model, record.TokensUsed, record.CostUSD, record.CreatedAt,
	)
	if err != nil {
		return domain.NewStorageError("failed to insert usage record", err)
	}
	return nil
}

func (r *UsageRepository) TotalTokensByAgent(ctx context.Context, agentID string) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(tokens_used), 0) FROM api_usage WHERE agent_id = $1`,
		agentID,
	).Scan(&total)
	if err != nil {
		return 0, domain.NewStorageError("failed to sum usage tokens", err)
	}
	return total, nil
}
