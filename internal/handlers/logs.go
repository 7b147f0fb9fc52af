package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/logward/logward/internal/httputil"
	"github.com/logward/logward/internal/logging"
	"github.com/logward/logward/internal/middleware"
	"github.com/logward/logward/internal/models"
	"github.com/logward/logward/internal/repository"
	"github.com/logward/logward/internal/service"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

type LogsHandler struct {
	logs   *service.LogService
	logger *logging.Logger
}

func NewLogsHandler(logs *service.LogService, logger *logging.Logger) *LogsHandler {
	return &LogsHandler{logs: logs, logger: logger}
}

// HandleLogs is the role-scoped log view: admins see everything, tenant
// users see only the tenant named after their account. Tenant rows never
// leak across that boundary.
func (h *LogsHandler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.WriteError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	switch claims.Role {
	case models.RoleAdmin:
		logs, err := h.logs.ListAllLogs(r.Context())
		if err != nil {
			h.logger.WithContext(r.Context()).Error("failed to list logs", logging.Error(err))
			httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch logs")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "logs": emptyIfNil(logs)})

	case models.RoleTenant:
		logs, err := h.logs.ListTenantLogs(r.Context(), claims.Username)
		if err != nil {
			if errors.Is(err, repository.ErrTenantNotFound) {
				httputil.WriteError(w, http.StatusNotFound, "Tenant not found")
				return
			}
			h.logger.WithContext(r.Context()).Error("failed to list tenant logs", logging.Error(err))
			httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch logs")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "logs": emptyIfNil(logs)})

	default:
		httputil.WriteError(w, http.StatusForbidden, "Access denied")
	}
}

// HandleAllLogs serves the paginated admin view over every log type.
func (h *LogsHandler) HandleAllLogs(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, "")
}

func (h *LogsHandler) HandleFirewallLogs(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, models.LogTypeFirewall)
}

func (h *LogsHandler) HandleNetworkLogs(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, models.LogTypeNetwork)
}

func (h *LogsHandler) writePage(w http.ResponseWriter, r *http.Request, logType string) {
	limit, offset := httputil.LimitOffset(r, defaultPageLimit, maxPageLimit)

	logs, total, err := h.logs.ListLogsPage(r.Context(), logType, limit, offset)
	if err != nil {
		h.logger.WithContext(r.Context()).Error("failed to page logs", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch logs")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.LogPage{
		Success: true,
		Logs:    emptyIfNil(logs),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		Type:    logType,
	})
}

func (h *LogsHandler) HandleTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.logs.ListTenants(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error("failed to list tenants", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch tenants")
		return
	}

	if tenants == nil {
		tenants = []*models.Tenant{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "tenants": tenants})
}

// HandleTenantLogs serves the per-tenant drilldown, logs grouped by source.
func (h *LogsHandler) HandleTenantLogs(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid tenant id")
		return
	}

	tenant, logsBySource, err := h.logs.TenantLogsBySource(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "Tenant not found")
			return
		}
		h.logger.WithContext(r.Context()).Error("failed to fetch tenant logs", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch tenant logs")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"tenant":       tenant,
		"logsBySource": logsBySource,
	})
}

func (h *LogsHandler) HandleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.logs.ListSources(r.Context())
	if err != nil {
		h.logger.WithContext(r.Context()).Error("failed to list sources", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch sources")
		return
	}

	if sources == nil {
		sources = []*models.Source{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "sources": sources})
}

func emptyIfNil(logs []*models.LogEvent) []*models.LogEvent {
	if logs == nil {
		return []*models.LogEvent{}
	}
	return logs
}
