package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/logward/logward/internal/logging"
	"github.com/logward/logward/internal/metrics"
	"github.com/logward/logward/internal/models"
	"github.com/logward/logward/internal/repository"
)

// SecurityService runs the failed-login correlation sweep: it buckets recent
// login failures by source IP and raises one deduplicated alert per IP.
type SecurityService struct {
	repo        repository.Repository
	logger      *logging.Logger
	window      time.Duration
	threshold   int
	dedupWindow time.Duration
}

func NewSecurityService(repo repository.Repository, logger *logging.Logger, window time.Duration, threshold int, dedupWindow time.Duration) *SecurityService {
	return &SecurityService{
		repo:        repo,
		logger:      logger,
		window:      window,
		threshold:   threshold,
		dedupWindow: dedupWindow,
	}
}

// CheckFailedLogins runs one sweep cycle. Errors are logged and swallowed so
// a failing cycle never stops the scheduler; the next tick retries naturally.
func (s *SecurityService) CheckFailedLogins(ctx context.Context) {
	now := time.Now().UTC()

	groups, err := s.repo.FailedLoginGroups(ctx, now.Add(-s.window), s.threshold)
	if err != nil {
		s.logger.Error("failed login sweep query failed", logging.Sweep("security"), logging.Error(err))
		metrics.SweepRuns.WithLabelValues("security", "error").Inc()
		return
	}

	for _, group := range groups {
		if err := s.raiseAlert(ctx, group, now); err != nil {
			s.logger.Error("failed to raise alert",
				logging.Sweep("security"), logging.IP(group.IP), logging.Error(err))
		}
	}

	metrics.SweepRuns.WithLabelValues("security", "ok").Inc()
}

// raiseAlert inserts a failed_login_attempts alert unless one already exists
// for the IP inside the dedup window. The alerts table is the authoritative
// dedup state, so restarts do not re-alert.
func (s *SecurityService) raiseAlert(ctx context.Context, group models.FailedLoginGroup, now time.Time) error {
	recent, err := s.repo.CountRecentAlerts(ctx, models.AlertTypeFailedLogins, group.IP, now.Add(-s.dedupWindow))
	if err != nil {
		return fmt.Errorf("failed to check recent alerts: %w", err)
	}
	if recent > 0 {
		return nil
	}

	tenant := "unknown"
	if group.TenantName != nil {
		tenant = *group.TenantName
	}

	details, err := json.Marshal(map[string]any{
		"attempt_count": group.AttemptCount,
		"users":         group.Users,
		"tenant":        tenant,
		"time_window":   fmt.Sprintf("%d minutes", int(s.window.Minutes())),
		"timestamp":     now.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to encode alert details: %w", err)
	}

	ip := group.IP
	alert := &models.Alert{
		AlertType: models.AlertTypeFailedLogins,
		Message:   fmt.Sprintf("Detected %d failed logins from IP %s (%s)", group.AttemptCount, group.IP, tenant),
		IPAddress: &ip,
		Details:   details,
	}
	if err := s.repo.InsertAlert(ctx, alert); err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	metrics.AlertsRaised.Inc()
	s.logger.Warn("failed login alert raised",
		logging.Sweep("security"), logging.IP(group.IP), logging.Tenant(tenant),
		"attempts", group.AttemptCount)
	return nil
}
