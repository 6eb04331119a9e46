package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearstack/agentbox/internal/domain"
)

type AgentRepository struct {
	db dbtx
}

func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{db: pool}
}

func (r *AgentRepository) Create(ctx context.Context, a *domain.Agent) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO agents (id, name, provider, model, system_prompt, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Name, a.Provider, a.Model, nullableString(a.SystemPrompt), a.Status, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *AgentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	var a domain.Agent
	var systemPrompt *string
	err := r.db.QueryRow(ctx,
		`SELECT id, name, provider, model, system_prompt, status, created_at, updated_at
		 FROM agents WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Name, &a.Provider, &a.Model, &systemPrompt, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, err
	}
	if systemPrompt != nil {
		a.SystemPrompt = *systemPrompt
	}
	return &a, nil
}

func (r *AgentRepository) List(ctx context.Context) ([]*domain.Agent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, provider, model, system_prompt, status, created_at, updated_at
		 FROM agents ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []*domain.Agent
	for rows.Next() {
		var a domain.Agent
		var systemPrompt *string
		if err := rows.Scan(&a.ID, &a.Name, &a.Provider, &a.Model, &systemPrompt, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		if systemPrompt != nil {
			a.SystemPrompt = *systemPrompt
		}
		agents = append(agents, &a)
	}
	return agents, rows.Err()
}

func (r *AgentRepository) Update(ctx context.Context, a *domain.Agent) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE agents
		 SET name = $2, provider = $3, model = $4, system_prompt = $5, status = $6, updated_at = $7
		 WHERE id = $1`,
		a.ID, a.Name, a.Provider, a.Model, nullableString(a.SystemPrompt), a.Status, a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}

func (r *AgentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAgentNotFound
	}
	return nil
}
