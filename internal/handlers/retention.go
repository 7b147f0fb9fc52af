package handlers

import (
	"net/http"

	"github.com/logward/logward/internal/httputil"
	"github.com/logward/logward/internal/logging"
	"github.com/logward/logward/internal/service"
)

type RetentionHandler struct {
	retention *service.RetentionService
	logger    *logging.Logger
}

func NewRetentionHandler(retention *service.RetentionService, logger *logging.Logger) *RetentionHandler {
	return &RetentionHandler{retention: retention, logger: logger}
}

func (h *RetentionHandler) policy() map[string]any {
	return map[string]any{
		"logDays":   int(h.retention.LogMaxAge().Hours() / 24),
		"alertDays": int(h.retention.AlertMaxAge().Hours() / 24),
	}
}

func (h *RetentionHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.retention.Stats(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error("failed to get retention stats", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch retention stats")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"retentionPolicy": h.policy(),
		"stats":           stats,
	})
}

// HandleCleanup is the admin-only manual trigger; it reports stats from
// before and after the pass alongside the deletion counts.
func (h *RetentionHandler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	before, err := h.retention.Stats(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error("failed to get retention stats", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch retention stats")
		return
	}

	result, err := h.retention.Cleanup(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error("cleanup failed", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Cleanup failed")
		return
	}

	after, err := h.retention.Stats(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error("failed to get retention stats", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch retention stats")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"deleted": result,
		"before":  before,
		"after":   after,
	})
}
