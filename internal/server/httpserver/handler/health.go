package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/yndnr/fp4-go/internal/core/domain"
	"github.com/yndnr/fp4-go/internal/telemetry/logger"
)

const readyTimeout = 2 * time.Second

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: h.version,
	})
}

// Ready handles GET /ready. It answers 503 while storage is unreachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed", "error", err)
			requestID := logger.RequestIDFromContext(r.Context())
			writeEnvelope(w, http.StatusServiceUnavailable,
				NewErrorResponse(requestID, domain.ErrStorage.Code, "not ready", nil), h.logger)
			return
		}
	}
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
