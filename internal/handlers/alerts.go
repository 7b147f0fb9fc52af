package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/logward/logward/internal/httputil"
	"github.com/logward/logward/internal/logging"
	"github.com/logward/logward/internal/models"
	"github.com/logward/logward/internal/service"
)

type AlertsHandler struct {
	alerts *service.AlertService
	logger *logging.Logger
}

func NewAlertsHandler(alerts *service.AlertService, logger *logging.Logger) *AlertsHandler {
	return &AlertsHandler{alerts: alerts, logger: logger}
}

func (h *AlertsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.ListAlerts(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error("failed to list alerts", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch alerts")
		return
	}

	if alerts == nil {
		alerts = []*models.Alert{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "alerts": alerts})
}

func (h *AlertsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.AlertType == "" || req.Message == "" {
		httputil.WriteError(w, http.StatusBadRequest, "alert_type and message are required")
		return
	}

	alert, err := h.alerts.CreateAlert(r.Context(), &req)
	if err != nil {
		h.logger.WithContext(r.Context()).Error("failed to create alert", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to create alert")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "alert": alert})
}
