package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaskStatus is the position of a task in the escrow lifecycle.
// It is derived from the persisted record, never stored.
type TaskStatus string

const (
	TaskStatusOpen     TaskStatus = "OPEN"
	TaskStatusAssigned TaskStatus = "ASSIGNED"
	TaskStatusSettled  TaskStatus = "SETTLED"
)

// IsTerminal returns true if the status is terminal (no transitions allowed).
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSettled
}

// Task is a single employer-funded unit of work. The reward is deposited
// into escrow at creation and released in full to the freelancer when the
// employer certifies completion.
type Task struct {
	ID          int64
	Employer    Identity
	Freelancer  *Identity
	Description string
	Reward      decimal.Decimal
	IsCompleted bool
	IsPaid      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Status derives the lifecycle position from the persisted flags.
func (t *Task) Status() TaskStatus {
	switch {
	case t.IsPaid:
		return TaskStatusSettled
	case t.Freelancer != nil:
		return TaskStatusAssigned
	default:
		return TaskStatusOpen
	}
}

// IsOpen checks if the task has no freelancer and is not settled.
func (t *Task) IsOpen() bool {
	return t.Status() == TaskStatusOpen
}

// IsEmployedBy checks if the task was created and funded by the given identity.
func (t *Task) IsEmployedBy(caller Identity) bool {
	return t.Employer == caller
}
