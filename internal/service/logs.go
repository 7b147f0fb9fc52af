package service

import (
	"context"
	"fmt"

	"github.com/logward/logward/internal/models"
	"github.com/logward/logward/internal/repository"
)

const (
	adminLogLimit  = 1000
	tenantLogLimit = 1000
)

type LogService struct {
	repo repository.Repository
}

func NewLogService(repo repository.Repository) *LogService {
	return &LogService{repo: repo}
}

// ListAllLogs returns every log row joined with tenant and source names,
// newest first. Admin-only; handlers enforce the role.
func (s *LogService) ListAllLogs(ctx context.Context) ([]*models.LogEvent, error) {
	return s.repo.ListLogs(ctx, adminLogLimit)
}

// ListTenantLogs scopes the read to the tenant named after the caller.
// Returns repository.ErrTenantNotFound when no such tenant exists.
func (s *LogService) ListTenantLogs(ctx context.Context, tenantName string) ([]*models.LogEvent, error) {
	tenant, err := s.repo.GetTenantByName(ctx, tenantName)
	if err != nil {
		return nil, err
	}
	return s.repo.ListLogsByTenant(ctx, tenant.ID, tenantLogLimit)
}

// ListLogsPage returns one page of logs, optionally filtered by log type,
// plus the total matching count for the pagination envelope.
func (s *LogService) ListLogsPage(ctx context.Context, logType string, limit, offset int) ([]*models.LogEvent, int, error) {
	return s.repo.ListLogsPage(ctx, logType, limit, offset)
}

func (s *LogService) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	return s.repo.ListTenants(ctx)
}

// TenantLogsBySource fetches a tenant by id and groups its logs by source
// name for the per-tenant drilldown view.
func (s *LogService) TenantLogsBySource(ctx context.Context, tenantID int64) (*models.Tenant, map[string][]*models.LogEvent, error) {
	tenant, err := s.repo.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}

	logs, err := s.repo.ListLogsByTenant(ctx, tenant.ID, tenantLogLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tenant logs: %w", err)
	}

	grouped := make(map[string][]*models.LogEvent)
	for _, l := range logs {
		name := "unknown"
		if l.SourceName != nil {
			name = *l.SourceName
		}
		grouped[name] = append(grouped[name], l)
	}

	return tenant, grouped, nil
}

func (s *LogService) ListSources(ctx context.Context) ([]*models.Source, error) {
	return s.repo.ListSources(ctx)
}
