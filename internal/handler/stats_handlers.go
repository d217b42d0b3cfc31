package handler

import (
	"net/http"
	"strconv"

	"github.com/mtlprog/taskescrow/internal/handler/dto"
)

// handleGetStats returns overall ledger statistics and the reputation
// ranking.
func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 10
	if raw := r.URL.Query().Get("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "top must be between 1 and 100")
			return
		}
		limit = parsed
	}

	stats, err := h.escrowService.Stats(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch stats")
		return
	}

	top, err := h.escrowService.TopFreelancers(ctx, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch freelancer ranking")
		return
	}

	respondJSON(w, http.StatusOK, dto.ToStatsResponse(stats, top))
}
