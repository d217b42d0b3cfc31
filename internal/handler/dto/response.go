package dto

import (
	"time"

	"github.com/mtlprog/taskescrow/internal/domain"
	"github.com/mtlprog/taskescrow/internal/repository"
	"github.com/shopspring/decimal"
)

// TaskResponse is the persisted task surface plus its derived status.
type TaskResponse struct {
	ID          int64           `json:"id"`
	Employer    string          `json:"employer"`
	Freelancer  *string         `json:"freelancer"`
	Description string          `json:"description"`
	Reward      decimal.Decimal `json:"reward"`
	IsCompleted bool            `json:"is_completed"`
	IsPaid      bool            `json:"is_paid"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TasksListResponse represents the response for GET /tasks.
type TasksListResponse struct {
	Tasks  []TaskResponse `json:"tasks"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// TaskDetailResponse represents a task together with its event journal.
type TaskDetailResponse struct {
	Task   TaskResponse    `json:"task"`
	Events []TaskEventInfo `json:"events"`
}

// TaskEventInfo represents one entry of the ledger journal.
type TaskEventInfo struct {
	ID        int64            `json:"id"`
	TaskID    int64            `json:"task_id"`
	Type      string           `json:"type"`
	Actor     *string          `json:"actor"`
	Recipient *string          `json:"recipient"`
	Amount    *decimal.Decimal `json:"amount"`
	Detail    string           `json:"detail,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// CreateTaskResponse is returned from POST /tasks.
type CreateTaskResponse struct {
	Task   TaskResponse    `json:"task"`
	Events []TaskEventInfo `json:"events"`
}

// TaskEventsResponse wraps the events emitted by a mutating call.
type TaskEventsResponse struct {
	Events []TaskEventInfo `json:"events"`
}

// ReputationResponse represents an identity's completion counter.
type ReputationResponse struct {
	Identity       string `json:"identity"`
	CompletedCount int    `json:"completed_count"`
}

// BalanceResponse represents an identity's payout balance.
type BalanceResponse struct {
	Identity string          `json:"identity"`
	Balance  decimal.Decimal `json:"balance"`
}

// StatsResponse represents overall ledger statistics.
type StatsResponse struct {
	TotalTasks     int               `json:"total_tasks"`
	TasksByStatus  map[string]int    `json:"tasks_by_status"`
	HeldTotal      decimal.Decimal   `json:"held_total"`
	ReleasedTotal  decimal.Decimal   `json:"released_total"`
	TopFreelancers []FreelancerStats `json:"top_freelancers"`
}

// FreelancerStats represents one freelancer in the reputation ranking.
type FreelancerStats struct {
	Identity       string          `json:"identity"`
	CompletedCount int             `json:"completed_count"`
	TotalEarned    decimal.Decimal `json:"total_earned"`
}

// ToTaskResponse converts domain.Task to TaskResponse.
func ToTaskResponse(task *domain.Task) TaskResponse {
	var freelancer *string
	if task.Freelancer != nil {
		s := string(*task.Freelancer)
		freelancer = &s
	}

	return TaskResponse{
		ID:          task.ID,
		Employer:    string(task.Employer),
		Freelancer:  freelancer,
		Description: task.Description,
		Reward:      task.Reward,
		IsCompleted: task.IsCompleted,
		IsPaid:      task.IsPaid,
		Status:      string(task.Status()),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskEventInfo converts domain.TaskEvent to TaskEventInfo.
func ToTaskEventInfo(event *domain.TaskEvent) TaskEventInfo {
	var actor, recipient *string
	if event.Actor != nil {
		s := string(*event.Actor)
		actor = &s
	}
	if event.Recipient != nil {
		s := string(*event.Recipient)
		recipient = &s
	}

	return TaskEventInfo{
		ID:        event.ID,
		TaskID:    event.TaskID,
		Type:      string(event.Type),
		Actor:     actor,
		Recipient: recipient,
		Amount:    event.Amount,
		Detail:    event.Detail,
		CreatedAt: event.CreatedAt,
	}
}

// ToTaskEventInfos converts a slice of events preserving emission order.
func ToTaskEventInfos(events []*domain.TaskEvent) []TaskEventInfo {
	infos := make([]TaskEventInfo, len(events))
	for i, event := range events {
		infos[i] = ToTaskEventInfo(event)
	}
	return infos
}

// ToStatsResponse converts repository stats results to StatsResponse.
func ToStatsResponse(stats *repository.LedgerStatsResult, top []repository.FreelancerStatsResult) StatsResponse {
	freelancers := make([]FreelancerStats, len(top))
	for i, f := range top {
		freelancers[i] = FreelancerStats{
			Identity:       f.Identity,
			CompletedCount: f.CompletedCount,
			TotalEarned:    f.TotalEarned,
		}
	}

	return StatsResponse{
		TotalTasks:     stats.TotalTasks,
		TasksByStatus:  stats.TasksByStatus,
		HeldTotal:      stats.HeldTotal,
		ReleasedTotal:  stats.ReleasedTotal,
		TopFreelancers: freelancers,
	}
}
