package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mtlprog/taskescrow/internal/domain"
	"github.com/mtlprog/taskescrow/internal/handler/dto"
	"github.com/mtlprog/taskescrow/internal/middleware"
	"github.com/mtlprog/taskescrow/internal/repository"
)

// handleCreateTask creates a task and deposits its reward into escrow.
// The caller becomes the task's employer.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := middleware.GetIdentityFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "NO_IDENTITY", "Caller identity required")
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	task, events, err := h.escrowService.CreateTask(ctx, caller, req.Description, req.Reward)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.CreateTaskResponse{
		Task:   dto.ToTaskResponse(task),
		Events: dto.ToTaskEventInfos(events),
	})
}

// handleListTasks lists tasks ordered by id, optionally filtered by status.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()

	var filters repository.ListFilters
	if raw := query.Get("status"); raw != "" {
		status := domain.TaskStatus(raw)
		switch status {
		case domain.TaskStatusOpen, domain.TaskStatusAssigned, domain.TaskStatusSettled:
			filters.Status = &status
		default:
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "status must be OPEN, ASSIGNED or SETTLED")
			return
		}
	}

	filters.Limit = 50
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 200 {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be between 1 and 200")
			return
		}
		filters.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "offset must be non-negative")
			return
		}
		filters.Offset = offset
	}

	tasks, total, err := h.escrowService.ListTasks(ctx, filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list tasks")
		return
	}

	response := dto.TasksListResponse{
		Tasks:  make([]dto.TaskResponse, len(tasks)),
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}
	for i, task := range tasks {
		response.Tasks[i] = dto.ToTaskResponse(task)
	}

	respondJSON(w, http.StatusOK, response)
}

// handleGetTask retrieves a task with its event journal.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.escrowService.GetTask(ctx, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	events, err := h.escrowService.TaskEvents(ctx, taskID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch events")
		return
	}

	respondJSON(w, http.StatusOK, dto.TaskDetailResponse{
		Task:   dto.ToTaskResponse(task),
		Events: dto.ToTaskEventInfos(events),
	})
}

// handleAssignFreelancer assigns the caller as the task's freelancer.
func (h *Handler) handleAssignFreelancer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := middleware.GetIdentityFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "NO_IDENTITY", "Caller identity required")
		return
	}

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	event, err := h.escrowService.AssignFreelancer(ctx, caller, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.TaskEventsResponse{
		Events: dto.ToTaskEventInfos([]*domain.TaskEvent{event}),
	})
}

// handleCompleteTask settles the task: the employer certifies completion,
// escrow releases to the freelancer, reputation bumps. One atomic unit.
func (h *Handler) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller, err := middleware.GetIdentityFromContext(ctx)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "NO_IDENTITY", "Caller identity required")
		return
	}

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	events, err := h.escrowService.CompleteTask(ctx, caller, taskID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.TaskEventsResponse{
		Events: dto.ToTaskEventInfos(events),
	})
}

// handleGetReputation returns the completion counter for an identity.
// Unknown identities report zero rather than an error.
func (h *Handler) handleGetReputation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity := r.PathValue("identity")
	if identity == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "identity is required")
		return
	}

	rep, err := h.escrowService.GetReputation(ctx, domain.Identity(identity))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch reputation")
		return
	}

	respondJSON(w, http.StatusOK, dto.ReputationResponse{
		Identity:       string(rep.Identity),
		CompletedCount: rep.CompletedCount,
	})
}

// handleGetBalance returns the payout balance for an identity.
func (h *Handler) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity := r.PathValue("identity")
	if identity == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "identity is required")
		return
	}

	account, err := h.escrowService.GetBalance(ctx, domain.Identity(identity))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch balance")
		return
	}

	respondJSON(w, http.StatusOK, dto.BalanceResponse{
		Identity: string(account.Identity),
		Balance:  account.Balance,
	})
}
