package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/taskescrow/internal/domain"
	"github.com/mtlprog/taskescrow/internal/repository"
	"github.com/shopspring/decimal"
)

// Notifier receives committed ledger events for external observers.
// Publication happens strictly after commit; it is not part of the
// atomic unit.
type Notifier interface {
	Publish(events ...*domain.TaskEvent)
}

// AccountStore credits released escrow value to payout balances. Credit
// runs inside the settlement transaction; returning an error aborts the
// whole settlement.
type AccountStore interface {
	Credit(ctx context.Context, tx pgx.Tx, identity domain.Identity, amount decimal.Decimal) error
	Balance(ctx context.Context, identity domain.Identity) (decimal.Decimal, error)
}

// EscrowService coordinates the task state machine and escrow settlement.
// Every mutation runs in a single transaction over the task row, its
// escrow account, and the recipient's balance and reputation entries.
type EscrowService struct {
	pool           *pgxpool.Pool
	taskRepo       *repository.TaskRepository
	counterRepo    *repository.CounterRepository
	escrowRepo     *repository.EscrowRepository
	accountRepo    AccountStore
	reputationRepo *repository.ReputationRepository
	eventRepo      *repository.TaskEventRepository
	statsRepo      *repository.LedgerStatsRepository
	validator      *Validator
	notifier       Notifier
}

// NewEscrowService creates a new EscrowService. notifier may be nil when
// no external observers are attached.
func NewEscrowService(
	pool *pgxpool.Pool,
	taskRepo *repository.TaskRepository,
	counterRepo *repository.CounterRepository,
	escrowRepo *repository.EscrowRepository,
	accountRepo AccountStore,
	reputationRepo *repository.ReputationRepository,
	eventRepo *repository.TaskEventRepository,
	statsRepo *repository.LedgerStatsRepository,
	notifier Notifier,
) *EscrowService {
	return &EscrowService{
		pool:           pool,
		taskRepo:       taskRepo,
		counterRepo:    counterRepo,
		escrowRepo:     escrowRepo,
		accountRepo:    accountRepo,
		reputationRepo: reputationRepo,
		eventRepo:      eventRepo,
		statsRepo:      statsRepo,
		validator:      NewValidator(),
		notifier:       notifier,
	}
}

// rollback discards the transaction unless it was already committed.
func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && err.Error() != "tx is closed" {
		slog.Error("failed to rollback transaction", "error", err)
	}
}

// publish forwards committed events to the notifier, if any.
func (s *EscrowService) publish(events ...*domain.TaskEvent) {
	if s.notifier != nil {
		s.notifier.Publish(events...)
	}
}

// CreateTask allocates the next task id, stores the task, and deposits the
// reward into its escrow account. Returns the created task together with
// the emitted TaskCreated event.
func (s *EscrowService) CreateTask(
	ctx context.Context,
	caller domain.Identity,
	description string,
	reward decimal.Decimal,
) (*domain.Task, []*domain.TaskEvent, error) {
	if err := s.validator.ValidateCreate(description, reward); err != nil {
		return nil, nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	taskID, err := s.counterRepo.NextTaskID(ctx, tx)
	if err != nil {
		return nil, nil, err
	}

	task := &domain.Task{
		ID:          taskID,
		Employer:    caller,
		Description: description,
		Reward:      reward,
	}
	if err := s.taskRepo.Create(ctx, tx, task); err != nil {
		return nil, nil, err
	}

	if err := s.escrowRepo.Deposit(ctx, tx, taskID, reward); err != nil {
		return nil, nil, err
	}

	event := &domain.TaskEvent{
		TaskID: taskID,
		Type:   domain.EventTypeTaskCreated,
		Actor:  &caller,
		Amount: &reward,
		Detail: description,
	}
	if err := s.eventRepo.Create(ctx, tx, event); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.publish(event)

	slog.Info("task created",
		"task_id", taskID,
		"employer", caller,
		"reward", reward,
	)

	return task, []*domain.TaskEvent{event}, nil
}

// AssignFreelancer sets caller as the task's freelancer. The task row lock
// plus the freelancer-is-null predicate guarantee at most one assignment
// ever wins.
func (s *EscrowService) AssignFreelancer(
	ctx context.Context,
	caller domain.Identity,
	taskID int64,
) (*domain.TaskEvent, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.CanAssign(task, caller); err != nil {
		return nil, err
	}

	if err := s.taskRepo.MarkAssigned(ctx, tx, taskID, caller); err != nil {
		return nil, err
	}

	event := &domain.TaskEvent{
		TaskID:    taskID,
		Type:      domain.EventTypeTaskAssigned,
		Actor:     &caller,
		Recipient: &caller,
	}
	if err := s.eventRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.publish(event)

	slog.Info("freelancer assigned",
		"task_id", taskID,
		"freelancer", caller,
	)

	return event, nil
}

// CompleteTask settles the task as one atomic unit: flip both flags,
// release the full escrowed reward to the freelancer's balance, and bump
// the freelancer's reputation. Any failure rolls the whole settlement
// back. Emits TaskCompleted then PaymentReleased, in that order.
func (s *EscrowService) CompleteTask(
	ctx context.Context,
	caller domain.Identity,
	taskID int64,
) ([]*domain.TaskEvent, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.validator.CanComplete(task, caller); err != nil {
		return nil, err
	}

	if err := s.taskRepo.MarkSettled(ctx, tx, taskID); err != nil {
		return nil, err
	}

	amount, err := s.escrowRepo.Release(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	freelancer := *task.Freelancer
	if err := s.accountRepo.Credit(ctx, tx, freelancer, amount); err != nil {
		return nil, err
	}

	if err := s.reputationRepo.Increment(ctx, tx, freelancer); err != nil {
		return nil, err
	}

	completed := &domain.TaskEvent{
		TaskID: taskID,
		Type:   domain.EventTypeTaskCompleted,
		Actor:  &caller,
	}
	released := &domain.TaskEvent{
		TaskID:    taskID,
		Type:      domain.EventTypePaymentReleased,
		Recipient: &freelancer,
		Amount:    &amount,
	}
	for _, event := range []*domain.TaskEvent{completed, released} {
		if err := s.eventRepo.Create(ctx, tx, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	s.publish(completed, released)

	slog.Info("task settled",
		"task_id", taskID,
		"employer", caller,
		"freelancer", freelancer,
		"amount", amount,
	)

	return []*domain.TaskEvent{completed, released}, nil
}

// GetTask retrieves a task by id.
func (s *EscrowService) GetTask(ctx context.Context, taskID int64) (*domain.Task, error) {
	return s.taskRepo.GetByID(ctx, taskID)
}

// ListTasks retrieves one page of tasks ordered by id, together with the
// total number of tasks matching the filter regardless of pagination.
func (s *EscrowService) ListTasks(ctx context.Context, filters repository.ListFilters) ([]*domain.Task, int, error) {
	tasks, err := s.taskRepo.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.taskRepo.Count(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// GetReputation retrieves the reputation counter for an identity,
// zero for identities never seen as freelancer.
func (s *EscrowService) GetReputation(ctx context.Context, identity domain.Identity) (*domain.Reputation, error) {
	return s.reputationRepo.Get(ctx, identity)
}

// GetBalance retrieves the payout balance for an identity.
func (s *EscrowService) GetBalance(ctx context.Context, identity domain.Identity) (*domain.Account, error) {
	balance, err := s.accountRepo.Balance(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &domain.Account{Identity: identity, Balance: balance}, nil
}

// TaskEvents retrieves the journal for a task in emission order.
func (s *EscrowService) TaskEvents(ctx context.Context, taskID int64) ([]*domain.TaskEvent, error) {
	if _, err := s.taskRepo.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListByTaskID(ctx, taskID)
}

// HeldForTask retrieves the value currently escrowed for a task.
func (s *EscrowService) HeldForTask(ctx context.Context, taskID int64) (decimal.Decimal, error) {
	return s.escrowRepo.HeldForTask(ctx, taskID)
}

// Stats retrieves overall ledger statistics.
func (s *EscrowService) Stats(ctx context.Context) (*repository.LedgerStatsResult, error) {
	return s.statsRepo.GetLedgerStats(ctx)
}

// TopFreelancers retrieves freelancers ordered by reputation.
func (s *EscrowService) TopFreelancers(ctx context.Context, limit int) ([]repository.FreelancerStatsResult, error) {
	return s.statsRepo.GetTopFreelancers(ctx, limit)
}

// AuditResult is the outcome of a conservation check over the ledger.
type AuditResult struct {
	HeldTotal       decimal.Decimal
	UnpaidRewardSum decimal.Decimal
	TaskCount       int64
	CounterValue    int64
	Balanced        bool
}

// Audit verifies the ledger's bookkeeping invariants: the value held in
// escrow must equal the sum of rewards over all tasks not yet paid, and
// the id counter must equal the number of tasks (ids are gapless and
// tasks are never deleted).
func (s *EscrowService) Audit(ctx context.Context) (*AuditResult, error) {
	held, err := s.escrowRepo.HeldTotal(ctx)
	if err != nil {
		return nil, err
	}

	unpaid, err := s.escrowRepo.UnpaidRewardTotal(ctx)
	if err != nil {
		return nil, err
	}

	count, err := s.taskRepo.Count(ctx, repository.ListFilters{})
	if err != nil {
		return nil, err
	}

	counter, err := s.counterRepo.Current(ctx)
	if err != nil {
		return nil, err
	}

	return &AuditResult{
		HeldTotal:       held,
		UnpaidRewardSum: unpaid,
		TaskCount:       int64(count),
		CounterValue:    counter,
		Balanced:        held.Equal(unpaid) && int64(count) == counter,
	}, nil
}
