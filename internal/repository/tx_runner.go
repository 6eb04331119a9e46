package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearstack/agentbox/internal/service"
)

// TxRunner provides transactional repositories using a pgx pool.
type TxRunner struct {
	pool       *pgxpool.Pool
	dimensions int
}

func NewTxRunner(pool *pgxpool.Pool, dimensions int) *TxRunner {
	return &TxRunner{pool: pool, dimensions: dimensions}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}

	repos := &txRepos{tx: tx, dimensions: r.dimensions}
	if err := fn(repos); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

type txRepos struct {
	tx         pgx.Tx
	dimensions int
}

func (r *txRepos) Vectors() service.VectorRepositoryInterface {
	return NewVectorRepositoryWithTx(r.tx, r.dimensions)
}

func (r *txRepos) Conversations() service.ConversationRepositoryInterface {
	return NewConversationRepositoryWithTx(r.tx)
}

func (r *txRepos) Usage() service.UsageRepositoryInterface {
	return NewUsageRepositoryWithTx(r.tx)
}
