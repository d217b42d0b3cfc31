package service_test

import (
	"testing"

	"github.com/mtlprog/taskescrow/internal/domain"
	"github.com/mtlprog/taskescrow/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const (
	employer   = domain.Identity("0xE")
	freelancer = domain.Identity("0xF")
	stranger   = domain.Identity("0xS")
)

func openTask() *domain.Task {
	return &domain.Task{
		ID:          1,
		Employer:    employer,
		Description: "Build a website",
		Reward:      decimal.NewFromInt(1),
	}
}

func assignedTask() *domain.Task {
	task := openTask()
	f := freelancer
	task.Freelancer = &f
	return task
}

func settledTask() *domain.Task {
	task := assignedTask()
	task.IsCompleted = true
	task.IsPaid = true
	return task
}

func TestValidateCreate(t *testing.T) {
	v := service.NewValidator()

	tests := []struct {
		name        string
		description string
		reward      decimal.Decimal
		wantErr     error
	}{
		{
			name:        "valid",
			description: "Build a website",
			reward:      decimal.RequireFromString("1.0"),
		},
		{
			name:        "zero reward",
			description: "Build a website",
			reward:      decimal.Zero,
			wantErr:     domain.ErrInvalidReward,
		},
		{
			name:        "negative reward",
			description: "Build a website",
			reward:      decimal.NewFromInt(-1),
			wantErr:     domain.ErrInvalidReward,
		},
		{
			name:    "empty description",
			reward:  decimal.NewFromInt(1),
			wantErr: domain.ErrEmptyDescription,
		},
		{
			name:        "blank description",
			description: "   ",
			reward:      decimal.NewFromInt(1),
			wantErr:     domain.ErrEmptyDescription,
		},
		{
			// The reward guard runs first.
			name:    "zero reward and empty description",
			reward:  decimal.Zero,
			wantErr: domain.ErrInvalidReward,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateCreate(tt.description, tt.reward)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCanAssign(t *testing.T) {
	v := service.NewValidator()

	tests := []struct {
		name    string
		task    *domain.Task
		caller  domain.Identity
		wantErr error
	}{
		{
			name:   "freelancer claims open task",
			task:   openTask(),
			caller: freelancer,
		},
		{
			name:    "already assigned",
			task:    assignedTask(),
			caller:  stranger,
			wantErr: domain.ErrAlreadyAssigned,
		},
		{
			name:    "settled task reports already assigned",
			task:    settledTask(),
			caller:  stranger,
			wantErr: domain.ErrAlreadyAssigned,
		},
		{
			name:    "employer cannot self-assign",
			task:    openTask(),
			caller:  employer,
			wantErr: domain.ErrSelfAssignment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.CanAssign(tt.task, tt.caller)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCanComplete(t *testing.T) {
	v := service.NewValidator()

	tests := []struct {
		name    string
		task    *domain.Task
		caller  domain.Identity
		wantErr error
	}{
		{
			name:   "employer settles assigned task",
			task:   assignedTask(),
			caller: employer,
		},
		{
			name:    "freelancer cannot settle",
			task:    assignedTask(),
			caller:  freelancer,
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "stranger cannot settle",
			task:    assignedTask(),
			caller:  stranger,
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "open task has no freelancer",
			task:    openTask(),
			caller:  employer,
			wantErr: domain.ErrNoFreelancer,
		},
		{
			name:    "already settled",
			task:    settledTask(),
			caller:  employer,
			wantErr: domain.ErrAlreadyCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.CanComplete(tt.task, tt.caller)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskStatusDerivation(t *testing.T) {
	assert.Equal(t, domain.TaskStatusOpen, openTask().Status())
	assert.Equal(t, domain.TaskStatusAssigned, assignedTask().Status())
	assert.Equal(t, domain.TaskStatusSettled, settledTask().Status())
	assert.True(t, domain.TaskStatusSettled.IsTerminal())
	assert.False(t, domain.TaskStatusAssigned.IsTerminal())
}
