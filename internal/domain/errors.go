package domain

import "errors"

// Domain-specific errors for ledger guard violations. Every guard failure
// is surfaced verbatim to the caller with no partial effect, so retrying
// after any of these is always safe.
var (
	// Creation-time input validation
	ErrInvalidReward    = errors.New("reward must be greater than 0")
	ErrEmptyDescription = errors.New("description cannot be empty")

	// Task errors
	ErrTaskNotFound = errors.New("task does not exist")

	// Assignment guards
	ErrAlreadyAssigned = errors.New("task already assigned")
	ErrSelfAssignment  = errors.New("employer cannot be freelancer")

	// Completion guards
	ErrUnauthorized     = errors.New("only employer can mark as complete")
	ErrNoFreelancer     = errors.New("no freelancer assigned")
	ErrAlreadyCompleted = errors.New("task already completed")
)
