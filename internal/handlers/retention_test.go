package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logward/logward/internal/models"
)

func TestHandleRetentionStats(t *testing.T) {
	env := newTestEnv(t)
	seedTenantLog(t, env, "acme", "user_login", "10.0.0.1")

	rec := env.do(t, env.retention.HandleStats, http.MethodGet, "/api/retention/stats", "", "root", "admin")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	policy := body["retentionPolicy"].(map[string]any)
	assert.Equal(t, float64(7), policy["logDays"])
	assert.Equal(t, float64(30), policy["alertDays"])

	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["totalLogs"])
}

func TestHandleRetentionCleanup(t *testing.T) {
	env := newTestEnv(t)

	old := time.Now().UTC().Add(-8 * 24 * time.Hour)
	ip := "10.0.0.1"
	err := env.repo.InsertLog(context.Background(), &models.LogEvent{
		Timestamp: old,
		LogType:   models.LogTypeTenant,
		SrcIP:     &ip,
		CreatedAt: old,
	})
	require.NoError(t, err)
	seedTenantLog(t, env, "acme", "user_login", "10.0.0.2")

	rec := env.do(t, env.retention.HandleCleanup, http.MethodPost, "/api/retention/cleanup", "", "root", "admin")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	deleted := body["deleted"].(map[string]any)
	assert.Equal(t, float64(1), deleted["logsDeleted"])

	before := body["before"].(map[string]any)
	after := body["after"].(map[string]any)
	assert.Equal(t, float64(2), before["totalLogs"])
	assert.Equal(t, float64(1), after["totalLogs"])
}
