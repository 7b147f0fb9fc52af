// Package server wires handlers, middleware and routes into the HTTP server.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/logward/logward/internal/handlers"
	"github.com/logward/logward/internal/middleware"
	"github.com/logward/logward/internal/models"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Ingest    *handlers.IngestHandler
	Auth      *handlers.AuthHandler
	Logs      *handlers.LogsHandler
	Alerts    *handlers.AlertsHandler
	Retention *handlers.RetentionHandler
}

// NewRouter builds the full route table. Admin-only routes are gated at the
// router so handlers never re-check roles, except /api/logs which branches
// on the caller's role itself.
func NewRouter(h Handlers, auth *middleware.AuthMiddleware, cors middleware.CORSConfig) http.Handler {
	mux := http.NewServeMux()

	// Unauthenticated surface.
	mux.HandleFunc("GET /hello", handlers.HandleHello)
	mux.HandleFunc("GET /healthz", handlers.HandleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /ingest", h.Ingest.HandleIngest)
	mux.HandleFunc("POST /api/signup", h.Auth.HandleSignup)
	mux.HandleFunc("POST /api/login", h.Auth.HandleLogin)

	// Session echo.
	mux.HandleFunc("GET /{$}", auth.RequireAuth(h.Auth.HandleSession))

	adminOnly := auth.RequireRole(models.RoleAdmin)

	// Role-branching log view.
	mux.HandleFunc("GET /api/logs", auth.RequireAuth(h.Logs.HandleLogs))

	// Admin-only views.
	mux.HandleFunc("GET /api/logs/all-logs", adminOnly(h.Logs.HandleAllLogs))
	mux.HandleFunc("GET /api/logs/tenants", adminOnly(h.Logs.HandleTenants))
	mux.HandleFunc("GET /api/logs/tenant/{id}", adminOnly(h.Logs.HandleTenantLogs))
	mux.HandleFunc("GET /api/retention/stats", adminOnly(h.Retention.HandleStats))
	mux.HandleFunc("POST /api/retention/cleanup", adminOnly(h.Retention.HandleCleanup))

	// Data routes open to both roles.
	mux.HandleFunc("GET /api/logs/firewall-logs", auth.RequireDataRole(h.Logs.HandleFirewallLogs))
	mux.HandleFunc("GET /api/logs/network-logs", auth.RequireDataRole(h.Logs.HandleNetworkLogs))
	mux.HandleFunc("GET /api/logs/sources", auth.RequireDataRole(h.Logs.HandleSources))
	mux.HandleFunc("GET /api/alerts", auth.RequireDataRole(h.Alerts.HandleList))
	mux.HandleFunc("POST /api/alerts", auth.RequireDataRole(h.Alerts.HandleCreate))

	return middleware.RequestID(middleware.CORS(cors)(mux))
}
