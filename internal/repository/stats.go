package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// FreelancerStatsResult holds per-freelancer ledger statistics.
type FreelancerStatsResult struct {
	Identity       string
	CompletedCount int
	TotalEarned    decimal.Decimal
}

// LedgerStatsResult holds overall ledger statistics.
type LedgerStatsResult struct {
	TotalTasks    int
	TasksByStatus map[string]int
	HeldTotal     decimal.Decimal
	ReleasedTotal decimal.Decimal
}

// LedgerStatsRepository aggregates read-only statistics over the ledger.
type LedgerStatsRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerStatsRepository creates a new LedgerStatsRepository.
func NewLedgerStatsRepository(pool *pgxpool.Pool) *LedgerStatsRepository {
	return &LedgerStatsRepository{pool: pool}
}

// GetLedgerStats retrieves overall ledger statistics.
func (r *LedgerStatsRepository) GetLedgerStats(ctx context.Context) (*LedgerStatsResult, error) {
	result := &LedgerStatsResult{
		TasksByStatus: make(map[string]int),
	}

	rows, err := r.pool.Query(ctx, `
		SELECT
			CASE
				WHEN is_paid THEN 'SETTLED'
				WHEN freelancer IS NOT NULL THEN 'ASSIGNED'
				ELSE 'OPEN'
			END AS status,
			COUNT(*)
		FROM tasks
		GROUP BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("query tasks by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		result.TasksByStatus[status] = count
		result.TotalTasks += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status rows: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM escrow_accounts WHERE released_at IS NULL`,
	).Scan(&result.HeldTotal)
	if err != nil {
		return nil, fmt.Errorf("sum held escrow: %w", err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(reward), 0) FROM tasks WHERE is_paid = true`,
	).Scan(&result.ReleasedTotal)
	if err != nil {
		return nil, fmt.Errorf("sum released rewards: %w", err)
	}

	return result, nil
}

// GetTopFreelancers retrieves freelancers ordered by reputation.
func (r *LedgerStatsRepository) GetTopFreelancers(ctx context.Context, limit int) ([]FreelancerStatsResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			rep.identity,
			rep.completed_count,
			COALESCE(acc.balance, 0)
		FROM reputation rep
		LEFT JOIN accounts acc ON acc.identity = rep.identity
		ORDER BY rep.completed_count DESC, rep.identity
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top freelancers: %w", err)
	}
	defer rows.Close()

	var results []FreelancerStatsResult
	for rows.Next() {
		var result FreelancerStatsResult
		if err := rows.Scan(&result.Identity, &result.CompletedCount, &result.TotalEarned); err != nil {
			return nil, fmt.Errorf("scan freelancer stats: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate freelancer rows: %w", err)
	}

	return results, nil
}
