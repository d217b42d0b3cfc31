package dto

import "github.com/shopspring/decimal"

// CreateTaskRequest is the request body for POST /tasks. The reward is the
// value deposited into escrow, fixed for the task's lifetime.
type CreateTaskRequest struct {
	Description string          `json:"description"`
	Reward      decimal.Decimal `json:"reward"`
}
