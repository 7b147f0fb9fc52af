package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/logward/logward/internal/models"
	"github.com/logward/logward/internal/repository"
)

const alertListLimit = 100

type AlertService struct {
	repo repository.Repository
}

func NewAlertService(repo repository.Repository) *AlertService {
	return &AlertService{repo: repo}
}

func (s *AlertService) ListAlerts(ctx context.Context) ([]*models.Alert, error) {
	return s.repo.ListAlerts(ctx, alertListLimit)
}

// CreateAlert stores a manually raised alert. created_at is assigned by the
// database, never taken from the request.
func (s *AlertService) CreateAlert(ctx context.Context, req *models.CreateAlertRequest) (*models.Alert, error) {
	alert := &models.Alert{
		AlertType: req.AlertType,
		Message:   req.Message,
	}
	if req.IPAddress != "" {
		ip := req.IPAddress
		alert.IPAddress = &ip
	}
	if req.Details != nil {
		details, err := json.Marshal(req.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to encode details: %w", err)
		}
		alert.Details = details
	}

	if err := s.repo.InsertAlert(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}
