package repository

import (
	"context"
	"errors"
	"time"

	"github.com/logward/logward/internal/models"
)

var (
	ErrUserExists     = errors.New("user already exists")
	ErrUserNotFound   = errors.New("user not found")
	ErrTenantNotFound = errors.New("tenant not found")
)

// Repository defines the persistence operations of the log management
// service. Implemented by PostgresRepository and, for tests, MemoryRepository.
type Repository interface {
	// Dimension tables. GetOrCreate closes the lookup-then-insert race with
	// an ON CONFLICT DO NOTHING upsert followed by a lookup.
	GetOrCreateTenant(ctx context.Context, name string) (int64, error)
	GetOrCreateSource(ctx context.Context, name string) (int64, error)
	GetTenantByName(ctx context.Context, name string) (*models.Tenant, error)
	GetTenantByID(ctx context.Context, id int64) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	ListSources(ctx context.Context) ([]*models.Source, error)

	// Logs are insert-only; deletion happens only through the retention sweep.
	InsertLog(ctx context.Context, event *models.LogEvent) error
	ListLogs(ctx context.Context, limit int) ([]*models.LogEvent, error)
	ListLogsPage(ctx context.Context, logType string, limit, offset int) ([]*models.LogEvent, int, error)
	ListLogsByTenant(ctx context.Context, tenantID int64, limit int) ([]*models.LogEvent, error)

	// Alerts.
	InsertAlert(ctx context.Context, alert *models.Alert) error
	ListAlerts(ctx context.Context, limit int) ([]*models.Alert, error)
	CountRecentAlerts(ctx context.Context, alertType, ip string, since time.Time) (int, error)

	// FailedLoginGroups returns (src_ip, tenant) buckets with at least
	// threshold login-failure events since the given time.
	FailedLoginGroups(ctx context.Context, since time.Time, threshold int) ([]models.FailedLoginGroup, error)

	// Accounts.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// Retention.
	DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOrphanAlerts(ctx context.Context) (int64, error)
	RetentionStats(ctx context.Context, recentSince time.Time) (*models.RetentionStats, error)

	Close()
}
