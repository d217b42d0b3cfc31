package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// taskCounterName is the ledger_counters row backing task id allocation.
const taskCounterName = "task_counter"

// CounterRepository allocates monotonically increasing ledger ids.
type CounterRepository struct {
	pool *pgxpool.Pool
}

// NewCounterRepository creates a new CounterRepository.
func NewCounterRepository(pool *pgxpool.Pool) *CounterRepository {
	return &CounterRepository{pool: pool}
}

// NextTaskID increments the task counter and returns the new value.
// The UPDATE takes the counter row lock, so concurrent creates serialize
// here and no two calls ever receive the same id. Ids are gapless because
// the increment commits or rolls back with the task insert.
func (r *CounterRepository) NextTaskID(ctx context.Context, tx pgx.Tx) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		`UPDATE ledger_counters SET value = value + 1 WHERE name = $1 RETURNING value`,
		taskCounterName,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("allocate task id: %w", err)
	}
	return id, nil
}

// Current returns the last allocated task id without advancing the counter.
func (r *CounterRepository) Current(ctx context.Context) (int64, error) {
	var value int64
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM ledger_counters WHERE name = $1`,
		taskCounterName,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("read task counter: %w", err)
	}
	return value, nil
}
