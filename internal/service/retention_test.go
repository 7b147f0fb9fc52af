package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logward/logward/internal/models"
	"github.com/logward/logward/internal/repository"
)

func insertLogCreatedAt(t *testing.T, repo *repository.MemoryRepository, ip string, createdAt time.Time) {
	t.Helper()
	err := repo.InsertLog(context.Background(), &models.LogEvent{
		Timestamp: createdAt,
		LogType:   models.LogTypeTenant,
		SrcIP:     strPtr(ip),
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
}

func TestCleanup_RetentionBoundary(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewRetentionService(repo, testLogger(), 7*24*time.Hour, 30*24*time.Hour)

	now := time.Now().UTC()
	insertLogCreatedAt(t, repo, "10.0.0.1", now.Add(-8*24*time.Hour))
	// One second inside the window survives.
	insertLogCreatedAt(t, repo, "10.0.0.2", now.Add(-7*24*time.Hour).Add(time.Second))
	insertLogCreatedAt(t, repo, "10.0.0.3", now)

	result, err := svc.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.LogsDeleted)

	logs, err := repo.ListLogs(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestCleanup_OrphanAlerts(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewRetentionService(repo, testLogger(), 7*24*time.Hour, 30*24*time.Hour)

	now := time.Now().UTC()
	insertLogCreatedAt(t, repo, "10.0.0.1", now.Add(-10*24*time.Hour))
	insertLogCreatedAt(t, repo, "10.0.0.2", now)

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		addr := ip
		err := repo.InsertAlert(context.Background(), &models.Alert{
			AlertType: models.AlertTypeFailedLogins,
			Message:   "failed logins",
			IPAddress: &addr,
		})
		require.NoError(t, err)
	}

	result, err := svc.Cleanup(context.Background())
	require.NoError(t, err)

	// The pruned log's IP no longer exists anywhere, so its alert is orphaned.
	assert.Equal(t, int64(1), result.LogsDeleted)
	assert.Equal(t, int64(1), result.OrphanAlertsDeleted)

	alerts, err := repo.ListAlerts(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "10.0.0.2", *alerts[0].IPAddress)
}

func TestCleanup_OldAlerts(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewRetentionService(repo, testLogger(), 7*24*time.Hour, 30*24*time.Hour)

	now := time.Now().UTC()
	insertLogCreatedAt(t, repo, "10.0.0.1", now)

	addr := "10.0.0.1"
	err := repo.InsertAlert(context.Background(), &models.Alert{
		AlertType: models.AlertTypeFailedLogins,
		Message:   "stale",
		IPAddress: &addr,
		CreatedAt: now.Add(-31 * 24 * time.Hour),
	})
	require.NoError(t, err)
	err = repo.InsertAlert(context.Background(), &models.Alert{
		AlertType: models.AlertTypeFailedLogins,
		Message:   "fresh",
		IPAddress: &addr,
	})
	require.NoError(t, err)

	result, err := svc.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.AlertsDeleted)

	alerts, err := repo.ListAlerts(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "fresh", alerts[0].Message)
}

func TestStats(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewRetentionService(repo, testLogger(), 7*24*time.Hour, 30*24*time.Hour)

	now := time.Now().UTC()
	insertLogCreatedAt(t, repo, "10.0.0.1", now.Add(-8*24*time.Hour))
	insertLogCreatedAt(t, repo, "10.0.0.2", now)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalLogs)
	assert.Equal(t, int64(1), stats.RecentLogs)
	assert.Equal(t, int64(1), stats.OldLogs)
	assert.NotEmpty(t, stats.Tables)
}
