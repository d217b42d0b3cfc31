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

// AccountRepository handles payout balances. An account row appears the
// first time an identity receives a release; identities without a row hold
// a zero balance.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Credit adds the released amount to the recipient's balance within the
// settlement transaction. If the credit fails the whole settlement rolls
// back, leaving flags unset and value still escrowed.
func (r *AccountRepository) Credit(ctx context.Context, tx pgx.Tx, identity domain.Identity, amount decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO accounts (identity, balance)
		VALUES ($1, $2)
		ON CONFLICT (identity) DO UPDATE SET balance = accounts.balance + EXCLUDED.balance
	`, identity, amount)
	if err != nil {
		return fmt.Errorf("credit account %s: %w", identity, err)
	}

	return nil
}

// Balance returns the payout balance for an identity, zero if never credited.
func (r *AccountRepository) Balance(ctx context.Context, identity domain.Identity) (decimal.Decimal, error) {
	query, args, err := psql.
		Select("balance").
		From("accounts").
		Where(sq.Eq{"identity": identity}).
		ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build Balance query: %w", err)
	}

	var balance decimal.Decimal
	err = r.pool.QueryRow(ctx, query, args...).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("query account: %w", err)
	}

	return balance, nil
}
