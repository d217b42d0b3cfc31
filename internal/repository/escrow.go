package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/taskescrow/internal/domain"
	"github.com/shopspring/decimal"
)

// EscrowRepository handles the per-task escrow accounts. Deposited value is
// owned by the ledger until Release zeroes it out, exactly once.
type EscrowRepository struct {
	pool *pgxpool.Pool
}

// NewEscrowRepository creates a new EscrowRepository.
func NewEscrowRepository(pool *pgxpool.Pool) *EscrowRepository {
	return &EscrowRepository{pool: pool}
}

// Deposit places the task's reward into its escrow account within the
// creation transaction.
func (r *EscrowRepository) Deposit(ctx context.Context, tx pgx.Tx, taskID int64, amount decimal.Decimal) error {
	query, args, err := psql.
		Insert("escrow_accounts").
		Columns("task_id", "amount").
		Values(taskID, amount).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Deposit query for task %d: %w", taskID, err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("deposit escrow: %w", err)
	}

	return nil
}

// Release empties the task's escrow account and returns the released
// amount. The released_at IS NULL predicate makes a second release
// impossible; it surfaces as ErrAlreadyCompleted.
func (r *EscrowRepository) Release(ctx context.Context, tx pgx.Tx, taskID int64) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := tx.QueryRow(ctx, `
		UPDATE escrow_accounts
		SET amount = 0, released_at = NOW()
		WHERE task_id = $1 AND released_at IS NULL
		RETURNING (SELECT reward FROM tasks WHERE id = $1)
	`, taskID).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrAlreadyCompleted
		}
		return decimal.Zero, fmt.Errorf("release escrow: %w", err)
	}

	return amount, nil
}

// HeldForTask returns the value currently escrowed for one task. Settled
// tasks report zero.
func (r *EscrowRepository) HeldForTask(ctx context.Context, taskID int64) (decimal.Decimal, error) {
	query, args, err := psql.
		Select("amount").
		From("escrow_accounts").
		Where(sq.Eq{"task_id": taskID}).
		ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build HeldForTask query: %w", err)
	}

	var amount decimal.Decimal
	err = r.pool.QueryRow(ctx, query, args...).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrTaskNotFound
		}
		return decimal.Zero, fmt.Errorf("query escrow account: %w", err)
	}

	return amount, nil
}

// HeldTotal returns the total value held by the ledger across all escrow
// accounts. The conservation invariant says this always equals the sum of
// rewards over unpaid tasks.
func (r *EscrowRepository) HeldTotal(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM escrow_accounts`,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum escrow accounts: %w", err)
	}
	return total, nil
}

// UnpaidRewardTotal returns the sum of rewards over tasks not yet paid,
// the other side of the conservation invariant.
func (r *EscrowRepository) UnpaidRewardTotal(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(reward), 0) FROM tasks WHERE is_paid = false`,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum unpaid rewards: %w", err)
	}
	return total, nil
}
