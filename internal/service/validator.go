package service

import (
	"fmt"
	"strings"

	"github.com/mtlprog/taskescrow/internal/domain"
	"github.com/shopspring/decimal"
)

// Validator holds the guard logic for ledger transitions. Guards are pure:
// they inspect a task snapshot already locked by the caller and decide
// whether the transition may proceed. Evaluation order within each
// operation is part of the contract.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCreate validates creation-time inputs. The reward check runs
// before the description check.
func (v *Validator) ValidateCreate(description string, reward decimal.Decimal) error {
	if reward.Sign() <= 0 {
		return fmt.Errorf("%w: got %s", domain.ErrInvalidReward, reward)
	}
	if strings.TrimSpace(description) == "" {
		return domain.ErrEmptyDescription
	}
	return nil
}

// CanAssign validates that caller may become the task's freelancer.
// Any non-open task rejects with ErrAlreadyAssigned, settled included.
func (v *Validator) CanAssign(task *domain.Task, caller domain.Identity) error {
	if !task.IsOpen() {
		return fmt.Errorf("%w: task %d is %s", domain.ErrAlreadyAssigned, task.ID, task.Status())
	}
	if task.IsEmployedBy(caller) {
		return fmt.Errorf("%w: task %d", domain.ErrSelfAssignment, task.ID)
	}
	return nil
}

// CanComplete validates that caller may settle the task: employer only,
// a freelancer must be assigned, and the task must not already be settled.
func (v *Validator) CanComplete(task *domain.Task, caller domain.Identity) error {
	if !task.IsEmployedBy(caller) {
		return fmt.Errorf("%w: task %d belongs to %s", domain.ErrUnauthorized, task.ID, task.Employer)
	}
	if task.Freelancer == nil {
		return fmt.Errorf("%w: task %d", domain.ErrNoFreelancer, task.ID)
	}
	if task.IsCompleted {
		return fmt.Errorf("%w: task %d", domain.ErrAlreadyCompleted, task.ID)
	}
	return nil
}
