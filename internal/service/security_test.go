package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logward/logward/internal/models"
	"github.com/logward/logward/internal/repository"
)

func insertFailedLogin(t *testing.T, repo *repository.MemoryRepository, ip, user string) {
	t.Helper()
	err := repo.InsertLog(context.Background(), &models.LogEvent{
		Timestamp: time.Now().UTC(),
		LogType:   models.LogTypeTenant,
		EventType: strPtr("app_login_failed"),
		Message:   strPtr(fmt.Sprintf("Login failed for %s", user)),
		SrcIP:     strPtr(ip),
		Username:  strPtr(user),
	})
	require.NoError(t, err)
}

func TestCheckFailedLogins_RaisesAlert(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewSecurityService(repo, testLogger(), 5*time.Minute, 3, time.Hour)

	insertFailedLogin(t, repo, "10.0.0.9", "alice")
	insertFailedLogin(t, repo, "10.0.0.9", "alice")
	insertFailedLogin(t, repo, "10.0.0.9", "bob")

	svc.CheckFailedLogins(context.Background())

	alerts, err := repo.ListAlerts(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	alert := alerts[0]
	assert.Equal(t, models.AlertTypeFailedLogins, alert.AlertType)
	require.NotNil(t, alert.IPAddress)
	assert.Equal(t, "10.0.0.9", *alert.IPAddress)
	assert.Contains(t, alert.Message, "3 failed logins")
	assert.Contains(t, alert.Message, "10.0.0.9")

	var details map[string]any
	require.NoError(t, json.Unmarshal(alert.Details, &details))
	assert.Equal(t, float64(3), details["attempt_count"])
	assert.ElementsMatch(t, []any{"alice", "bob"}, details["users"])
	assert.Equal(t, "5 minutes", details["time_window"])
}

func TestCheckFailedLogins_BelowThreshold(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewSecurityService(repo, testLogger(), 5*time.Minute, 3, time.Hour)

	insertFailedLogin(t, repo, "10.0.0.9", "alice")
	insertFailedLogin(t, repo, "10.0.0.9", "alice")

	svc.CheckFailedLogins(context.Background())

	alerts, err := repo.ListAlerts(context.Background(), 100)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestCheckFailedLogins_DedupAcrossRuns(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewSecurityService(repo, testLogger(), 5*time.Minute, 3, time.Hour)

	for i := 0; i < 4; i++ {
		insertFailedLogin(t, repo, "10.0.0.9", "alice")
	}

	// Consecutive sweeps see the same failures; only the first alerts.
	svc.CheckFailedLogins(context.Background())
	svc.CheckFailedLogins(context.Background())
	svc.CheckFailedLogins(context.Background())

	alerts, err := repo.ListAlerts(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestCheckFailedLogins_PerIPBuckets(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewSecurityService(repo, testLogger(), 5*time.Minute, 3, time.Hour)

	for i := 0; i < 3; i++ {
		insertFailedLogin(t, repo, "10.0.0.9", "alice")
		insertFailedLogin(t, repo, "172.16.0.4", "bob")
	}

	svc.CheckFailedLogins(context.Background())

	alerts, err := repo.ListAlerts(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
}

func TestCheckFailedLogins_IgnoresSuccesses(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewSecurityService(repo, testLogger(), 5*time.Minute, 3, time.Hour)

	for i := 0; i < 5; i++ {
		err := repo.InsertLog(context.Background(), &models.LogEvent{
			Timestamp: time.Now().UTC(),
			LogType:   models.LogTypeTenant,
			EventType: strPtr("user_login"),
			Message:   strPtr("login succeeded"),
			SrcIP:     strPtr("10.0.0.9"),
			Username:  strPtr("alice"),
		})
		require.NoError(t, err)
	}

	svc.CheckFailedLogins(context.Background())

	alerts, err := repo.ListAlerts(context.Background(), 100)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
