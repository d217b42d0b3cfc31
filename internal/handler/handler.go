package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/taskescrow/internal/handler/dto"
	"github.com/mtlprog/taskescrow/internal/middleware"
	"github.com/mtlprog/taskescrow/internal/notify"
	"github.com/mtlprog/taskescrow/internal/repository"
	"github.com/mtlprog/taskescrow/internal/service"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	pool               *pgxpool.Pool
	escrowService      *service.EscrowService
	bus                *notify.Bus
	identityMiddleware *middleware.IdentityMiddleware
}

// New creates a new Handler instance with all dependencies.
func New(pool *pgxpool.Pool) *Handler {
	bus := notify.New()

	taskRepo := repository.NewTaskRepository(pool)
	counterRepo := repository.NewCounterRepository(pool)
	escrowRepo := repository.NewEscrowRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)
	reputationRepo := repository.NewReputationRepository(pool)
	eventRepo := repository.NewTaskEventRepository(pool)
	statsRepo := repository.NewLedgerStatsRepository(pool)

	escrowService := service.NewEscrowService(pool, taskRepo, counterRepo, escrowRepo,
		accountRepo, reputationRepo, eventRepo, statsRepo, bus)

	return &Handler{
		pool:               pool,
		escrowService:      escrowService,
		bus:                bus,
		identityMiddleware: middleware.NewIdentityMiddleware(),
	}
}

// Service exposes the escrow service (used for testing).
func (h *Handler) Service() *service.EscrowService {
	return h.escrowService
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	// API v1 routes; the caller identity arrives pre-authenticated from
	// the external signing gateway.
	mux.Handle("POST /api/v1/tasks", h.authed(h.handleCreateTask))
	mux.Handle("GET /api/v1/tasks", h.authed(h.handleListTasks))
	mux.Handle("GET /api/v1/tasks/{id}", h.authed(h.handleGetTask))
	mux.Handle("POST /api/v1/tasks/{id}/assign", h.authed(h.handleAssignFreelancer))
	mux.Handle("POST /api/v1/tasks/{id}/complete", h.authed(h.handleCompleteTask))
	mux.Handle("GET /api/v1/identities/{identity}/reputation", h.authed(h.handleGetReputation))
	mux.Handle("GET /api/v1/identities/{identity}/balance", h.authed(h.handleGetBalance))
	mux.Handle("GET /api/v1/stats", h.authed(h.handleGetStats))
	mux.Handle("GET /api/v1/events", h.authed(h.handleEventStream))
}

// authed wraps a handler func with the identity middleware.
func (h *Handler) authed(fn http.HandlerFunc) http.Handler {
	return h.identityMiddleware.Authenticate(fn)
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.pool.Ping(ctx); err != nil {
		slog.Error("database health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Ping checks if the database is reachable (used for testing).
func (h *Handler) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps a domain error and writes the error response.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// extractTaskID extracts and validates the task id path parameter.
// Returns (taskID, true) if valid, (0, false) if invalid (error already sent).
func extractTaskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task id is required")
		return 0, false
	}

	taskID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || taskID < 1 {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task id must be a positive integer")
		return 0, false
	}

	return taskID, true
}
