package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logward/logward/internal/models"
)

func TestHandleLogs_AdminSeesEverything(t *testing.T) {
	env := newTestEnv(t)
	seedTenantLog(t, env, "acme", "user_login", "10.0.0.1")
	seedTenantLog(t, env, "globex", "user_login", "10.0.0.2")

	rec := env.do(t, env.logs.HandleLogs, http.MethodGet, "/api/logs", "", "root", "admin")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["logs"], 2)
}

func TestHandleLogs_TenantScoped(t *testing.T) {
	env := newTestEnv(t)
	seedTenantLog(t, env, "acme", "user_login", "10.0.0.1")
	seedTenantLog(t, env, "globex", "user_login", "10.0.0.2")
	seedTenantLog(t, env, "globex", "user_logout", "10.0.0.2")

	// The tenant user named acme sees only acme rows.
	rec := env.do(t, env.logs.HandleLogs, http.MethodGet, "/api/logs", "", "acme", "tenant")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	logs, ok := body["logs"].([]any)
	require.True(t, ok)
	require.Len(t, logs, 1)
	entry := logs[0].(map[string]any)
	assert.Equal(t, "acme", entry["tenant_name"])
}

func TestHandleLogs_UnknownTenant404(t *testing.T) {
	env := newTestEnv(t)
	seedTenantLog(t, env, "acme", "user_login", "10.0.0.1")

	rec := env.do(t, env.logs.HandleLogs, http.MethodGet, "/api/logs", "", "ghost", "tenant")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Tenant not found", decodeBody(t, rec)["message"])
}

func TestHandleLogs_UnknownRole403(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.logs.HandleLogs, http.MethodGet, "/api/logs", "", "eve", "auditor")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied", decodeBody(t, rec)["message"])
}

func TestHandleAllLogs_Pagination(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 5; i++ {
		seedTenantLog(t, env, "acme", fmt.Sprintf("event_%d", i), "10.0.0.1")
	}

	rec := env.do(t, env.logs.HandleAllLogs, http.MethodGet, "/api/logs/all-logs?limit=2&offset=1", "", "root", "admin")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(5), body["total"])
	assert.Equal(t, float64(2), body["limit"])
	assert.Equal(t, float64(1), body["offset"])
	assert.Len(t, body["logs"], 2)
}

func TestHandleFirewallLogs_TypeFiltered(t *testing.T) {
	env := newTestEnv(t)
	seedTenantLog(t, env, "acme", "user_login", "10.0.0.1")

	sourceID, err := env.repo.GetOrCreateSource(context.Background(), "firewall")
	require.NoError(t, err)
	action := "deny"
	ip := "203.0.113.9"
	err = env.repo.InsertLog(context.Background(), &models.LogEvent{
		Timestamp: time.Now().UTC(),
		LogType:   models.LogTypeFirewall,
		SourceID:  &sourceID,
		Action:    &action,
		SrcIP:     &ip,
	})
	require.NoError(t, err)

	rec := env.do(t, env.logs.HandleFirewallLogs, http.MethodGet, "/api/logs/firewall-logs", "", "root", "admin")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	logs := body["logs"].([]any)
	require.Len(t, logs, 1)
	assert.Equal(t, "firewall", logs[0].(map[string]any)["log_type"])
	assert.Equal(t, "firewall", body["type"])
}

func TestHandleTenants(t *testing.T) {
	env := newTestEnv(t)
	seedTenantLog(t, env, "globex", "a", "10.0.0.1")
	seedTenantLog(t, env, "acme", "b", "10.0.0.2")

	rec := env.do(t, env.logs.HandleTenants, http.MethodGet, "/api/logs/tenants", "", "root", "admin")
	require.Equal(t, http.StatusOK, rec.Code)

	tenants := decodeBody(t, rec)["tenants"].([]any)
	require.Len(t, tenants, 2)
	// Name ascending.
	assert.Equal(t, "acme", tenants[0].(map[string]any)["name"])
	assert.Equal(t, "globex", tenants[1].(map[string]any)["name"])
}

func TestHandleTenantLogs_GroupedBySource(t *testing.T) {
	env := newTestEnv(t)
	seedTenantLog(t, env, "acme", "user_login", "10.0.0.1")
	seedTenantLog(t, env, "acme", "user_logout", "10.0.0.1")

	tenant, err := env.repo.GetTenantByName(context.Background(), "acme")
	require.NoError(t, err)

	// PathValue only resolves through a pattern-matched mux.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/logs/tenant/{id}", env.logs.HandleTenantLogs)

	rec := env.do(t, mux.ServeHTTP, http.MethodGet,
		fmt.Sprintf("/api/logs/tenant/%d", tenant.ID), "", "root", "admin")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	tenantOut := body["tenant"].(map[string]any)
	assert.Equal(t, "acme", tenantOut["name"])

	grouped, ok := body["logsBySource"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, grouped, "webapp")
	assert.Len(t, grouped["webapp"], 2)
}

func TestHandleTenantLogs_UnknownID(t *testing.T) {
	env := newTestEnv(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/logs/tenant/{id}", env.logs.HandleTenantLogs)

	rec := env.do(t, mux.ServeHTTP, http.MethodGet, "/api/logs/tenant/999", "", "root", "admin")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Tenant not found", decodeBody(t, rec)["message"])
}

func TestHandleSources_WithCounts(t *testing.T) {
	env := newTestEnv(t)
	seedTenantLog(t, env, "acme", "a", "10.0.0.1")
	seedTenantLog(t, env, "acme", "b", "10.0.0.1")

	rec := env.do(t, env.logs.HandleSources, http.MethodGet, "/api/logs/sources", "", "root", "admin")
	require.Equal(t, http.StatusOK, rec.Code)

	sources := decodeBody(t, rec)["sources"].([]any)
	require.Len(t, sources, 1)
	source := sources[0].(map[string]any)
	assert.Equal(t, "webapp", source["name"])
	assert.Equal(t, float64(2), source["log_count"])
}
