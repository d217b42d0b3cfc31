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

// taskColumns is the shared list of columns for task queries.
var taskColumns = []string{
	"id", "employer", "freelancer", "description", "reward",
	"is_completed", "is_paid", "created_at", "updated_at",
}

// TaskRepository handles database operations for tasks.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.Employer,
		&task.Freelancer,
		&task.Description,
		&task.Reward,
		&task.IsCompleted,
		&task.IsPaid,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &task, nil
}

// scanTasks scans multiple rows into a slice of Task structs.
func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}

// GetByID retrieves a task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, taskID int64) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for task: %w", err)
	}

	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

// GetByIDForUpdate retrieves a task by ID with FOR UPDATE lock (within transaction).
// Mutations on a single task serialize on this row lock.
func (r *TaskRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, taskID int64) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByIDForUpdate query for task %d: %w", taskID, err)
	}

	return scanTask(tx.QueryRow(ctx, query, args...))
}

// ListFilters holds filters for task listing.
type ListFilters struct {
	Status *domain.TaskStatus
	Limit  int
	Offset int
}

// withStatusFilter adds WHERE clauses deriving the lifecycle status from
// the persisted flags.
func withStatusFilter(builder sq.SelectBuilder, status *domain.TaskStatus) sq.SelectBuilder {
	if status == nil {
		return builder
	}
	switch *status {
	case domain.TaskStatusOpen:
		builder = builder.Where(sq.Eq{"freelancer": nil})
	case domain.TaskStatusAssigned:
		builder = builder.Where("freelancer IS NOT NULL").Where(sq.Eq{"is_paid": false})
	case domain.TaskStatusSettled:
		builder = builder.Where(sq.Eq{"is_paid": true})
	}
	return builder
}

// List retrieves tasks ordered by id, optionally filtered by derived status.
func (r *TaskRepository) List(ctx context.Context, filters ListFilters) ([]*domain.Task, error) {
	builder := withStatusFilter(psql.
		Select(taskColumns...).
		From("tasks").
		OrderBy("id ASC"), filters.Status)

	if filters.Limit > 0 {
		builder = builder.Limit(uint64(filters.Limit))
	}
	if filters.Offset > 0 {
		builder = builder.Offset(uint64(filters.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build List query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	return scanTasks(rows)
}

// Count returns the number of tasks matching the status filter, ignoring
// pagination.
func (r *TaskRepository) Count(ctx context.Context, filters ListFilters) (int, error) {
	query, args, err := withStatusFilter(psql.
		Select("COUNT(*)").
		From("tasks"), filters.Status).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build Count query: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}

	return count, nil
}

// Create inserts a new task within a transaction. The id must already be
// allocated from the ledger counter; employer, description and reward are
// immutable once written.
func (r *TaskRepository) Create(ctx context.Context, tx pgx.Tx, task *domain.Task) error {
	query, args, err := psql.
		Insert("tasks").
		Columns("id", "employer", "freelancer", "description", "reward", "is_completed", "is_paid").
		Values(task.ID, task.Employer, task.Freelancer, task.Description, task.Reward, task.IsCompleted, task.IsPaid).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build Create query for task: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

// MarkAssigned sets the freelancer on an open task. The freelancer IS NULL
// predicate makes the update a no-op when another caller won the race;
// zero rows affected maps to ErrAlreadyAssigned.
func (r *TaskRepository) MarkAssigned(ctx context.Context, tx pgx.Tx, taskID int64, freelancer domain.Identity) error {
	query, args, err := psql.
		Update("tasks").
		Set("freelancer", freelancer).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": taskID, "freelancer": nil, "is_paid": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build MarkAssigned query for task %d: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("assign freelancer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyAssigned
	}

	return nil
}

// MarkSettled flips is_completed and is_paid together on an assigned,
// unsettled task. Both flags flip in one statement so no reader ever
// observes them apart.
func (r *TaskRepository) MarkSettled(ctx context.Context, tx pgx.Tx, taskID int64) error {
	query, args, err := psql.
		Update("tasks").
		Set("is_completed", true).
		Set("is_paid", true).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": taskID, "is_completed": false, "is_paid": false}).
		Where("freelancer IS NOT NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build MarkSettled query for task %d: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("settle task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyCompleted
	}

	return nil
}
