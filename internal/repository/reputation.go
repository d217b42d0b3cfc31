package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/taskescrow/internal/domain"
)

// ReputationRepository handles the per-identity completion counters.
type ReputationRepository struct {
	pool *pgxpool.Pool
}

// NewReputationRepository creates a new ReputationRepository.
func NewReputationRepository(pool *pgxpool.Pool) *ReputationRepository {
	return &ReputationRepository{pool: pool}
}

// Increment bumps the identity's completed-task count by one within the
// settlement transaction, creating the counter on first completion.
func (r *ReputationRepository) Increment(ctx context.Context, tx pgx.Tx, identity domain.Identity) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO reputation (identity, completed_count)
		VALUES ($1, 1)
		ON CONFLICT (identity) DO UPDATE SET completed_count = reputation.completed_count + 1
	`, identity)
	if err != nil {
		return fmt.Errorf("increment reputation for %s: %w", identity, err)
	}

	return nil
}

// Get returns the reputation counter for an identity. Identities never
// seen as freelancer report zero; there is no distinct unknown-identity
// error.
func (r *ReputationRepository) Get(ctx context.Context, identity domain.Identity) (*domain.Reputation, error) {
	query, args, err := psql.
		Select("completed_count").
		From("reputation").
		Where(sq.Eq{"identity": identity}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Get query for reputation: %w", err)
	}

	rep := &domain.Reputation{Identity: identity}
	err = r.pool.QueryRow(ctx, query, args...).Scan(&rep.CompletedCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rep, nil
		}
		return nil, fmt.Errorf("query reputation: %w", err)
	}

	return rep, nil
}
