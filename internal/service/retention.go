package service

import (
	"context"
	"fmt"
	"time"

	"github.com/logward/logward/internal/logging"
	"github.com/logward/logward/internal/metrics"
	"github.com/logward/logward/internal/models"
	"github.com/logward/logward/internal/repository"
)

// RetentionService enforces the storage retention policy: logs and alerts
// older than their thresholds are deleted, and alerts whose source IP no
// longer appears in any retained log row are swept as orphans.
type RetentionService struct {
	repo        repository.Repository
	logger      *logging.Logger
	logMaxAge   time.Duration
	alertMaxAge time.Duration
}

func NewRetentionService(repo repository.Repository, logger *logging.Logger, logMaxAge, alertMaxAge time.Duration) *RetentionService {
	return &RetentionService{
		repo:        repo,
		logger:      logger,
		logMaxAge:   logMaxAge,
		alertMaxAge: alertMaxAge,
	}
}

func (s *RetentionService) LogMaxAge() time.Duration   { return s.logMaxAge }
func (s *RetentionService) AlertMaxAge() time.Duration { return s.alertMaxAge }

// Stats reports current row counts and table sizes, splitting logs into
// in-retention and past-retention buckets.
func (s *RetentionService) Stats(ctx context.Context) (*models.RetentionStats, error) {
	return s.repo.RetentionStats(ctx, time.Now().UTC().Add(-s.logMaxAge))
}

// Cleanup runs one retention pass and reports what was removed. Any error
// aborts the pass.
func (s *RetentionService) Cleanup(ctx context.Context) (*models.CleanupResult, error) {
	now := time.Now().UTC()
	result := &models.CleanupResult{}

	logsDeleted, err := s.repo.DeleteLogsBefore(ctx, now.Add(-s.logMaxAge))
	if err != nil {
		return nil, fmt.Errorf("failed to prune logs: %w", err)
	}
	result.LogsDeleted = logsDeleted
	metrics.RowsDeleted.WithLabelValues("logs").Add(float64(logsDeleted))

	alertsDeleted, err := s.repo.DeleteAlertsBefore(ctx, now.Add(-s.alertMaxAge))
	if err != nil {
		return nil, fmt.Errorf("failed to prune alerts: %w", err)
	}
	result.AlertsDeleted = alertsDeleted
	metrics.RowsDeleted.WithLabelValues("alerts").Add(float64(alertsDeleted))

	orphansDeleted, err := s.repo.DeleteOrphanAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prune orphan alerts: %w", err)
	}
	result.OrphanAlertsDeleted = orphansDeleted
	metrics.RowsDeleted.WithLabelValues("orphan_alerts").Add(float64(orphansDeleted))

	return result, nil
}

// RunCycle is the scheduler entry point: one cleanup pass with errors logged
// and swallowed.
func (s *RetentionService) RunCycle(ctx context.Context) {
	result, err := s.Cleanup(ctx)
	if err != nil {
		s.logger.Error("retention sweep failed", logging.Sweep("retention"), logging.Error(err))
		metrics.SweepRuns.WithLabelValues("retention", "error").Inc()
		return
	}

	metrics.SweepRuns.WithLabelValues("retention", "ok").Inc()
	if result.LogsDeleted > 0 || result.AlertsDeleted > 0 || result.OrphanAlertsDeleted > 0 {
		s.logger.Info("retention sweep completed",
			logging.Sweep("retention"),
			"logs_deleted", result.LogsDeleted,
			"alerts_deleted", result.AlertsDeleted,
			"orphan_alerts_deleted", result.OrphanAlertsDeleted)
	}
}
