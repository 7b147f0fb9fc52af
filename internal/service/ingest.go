package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/logward/logward/internal/logging"
	"github.com/logward/logward/internal/metrics"
	"github.com/logward/logward/internal/models"
	"github.com/logward/logward/internal/parser"
	"github.com/logward/logward/internal/repository"
)

// severityLevels maps symbolic severities accepted on ingest to the numeric
// scale stored in the database. Numeric severities pass through unchanged.
var severityLevels = map[string]int{
	"low":           2,
	"info":          4,
	"informational": 4,
	"medium":        6,
	"warning":       6,
	"high":          8,
	"critical":      10,
}

type IngestService struct {
	repo   repository.Repository
	logger *logging.Logger
}

func NewIngestService(repo repository.Repository, logger *logging.Logger) *IngestService {
	return &IngestService{repo: repo, logger: logger}
}

// Ingest normalizes one raw event and persists it. The log_type field (alias
// log_tag) selects the pipeline: firewall and network events run through the
// syslog parsers and never carry a tenant, everything else is treated as a
// tenant application event. Missing fields default rather than reject.
func (s *IngestService) Ingest(ctx context.Context, body map[string]any) (*models.LogEvent, error) {
	logType := firstStringValue(body, "log_type", "log_tag")
	if logType == "" {
		logType = models.LogTypeTenant
	}

	var (
		event *models.LogEvent
		err   error
	)
	switch logType {
	case models.LogTypeFirewall:
		event, err = s.buildSyslogEvent(ctx, body, models.LogTypeFirewall, parser.ParseFirewallLine)
	case models.LogTypeNetwork:
		event, err = s.buildSyslogEvent(ctx, body, models.LogTypeNetwork, parser.ParseNetworkLine)
	default:
		event, err = s.buildTenantEvent(ctx, body)
	}
	if err != nil {
		metrics.EventsIngested.WithLabelValues(logType, "error").Inc()
		return nil, err
	}

	if err := s.repo.InsertLog(ctx, event); err != nil {
		metrics.EventsIngested.WithLabelValues(logType, "error").Inc()
		return nil, fmt.Errorf("failed to store event: %w", err)
	}

	metrics.EventsIngested.WithLabelValues(logType, "ok").Inc()
	return event, nil
}

// buildSyslogEvent parses the raw line and merges the parsed fields over the
// request body, so parser output wins on conflicts.
func (s *IngestService) buildSyslogEvent(ctx context.Context, body map[string]any, logType string, parse func(string) parser.Fields) (*models.LogEvent, error) {
	raw := firstStringValue(body, "raw", "log", "message")

	merged := make(map[string]any, len(body))
	for k, v := range body {
		merged[k] = v
	}
	for k, v := range parse(raw) {
		merged[k] = v
	}

	sourceName := firstStringValue(body, "source")
	if sourceName == "" {
		sourceName = logType
	}
	sourceID, err := s.repo.GetOrCreateSource(ctx, sourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source: %w", err)
	}

	event := eventFromFields(merged, logType)
	event.SourceID = &sourceID
	if raw != "" {
		event.RawData = raw
	}
	return event, nil
}

func (s *IngestService) buildTenantEvent(ctx context.Context, body map[string]any) (*models.LogEvent, error) {
	tenantName := firstStringValue(body, "tenant")
	if tenantName == "" {
		tenantName = "unknown"
	}
	tenantID, err := s.repo.GetOrCreateTenant(ctx, tenantName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve tenant: %w", err)
	}

	sourceName := firstStringValue(body, "source")
	if sourceName == "" {
		sourceName = "unknown"
	}
	sourceID, err := s.repo.GetOrCreateSource(ctx, sourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source: %w", err)
	}

	event := eventFromFields(body, models.LogTypeTenant)
	event.TenantID = &tenantID
	event.SourceID = &sourceID
	return event, nil
}

// eventFromFields maps a loosely-typed field map onto a log row, applying the
// accepted field aliases.
func eventFromFields(fields map[string]any, logType string) *models.LogEvent {
	event := &models.LogEvent{
		LogType:   logType,
		Timestamp: timestampValue(fields),
		EventType: firstString(fields, "event_type", "event", "action"),
		Severity:  severityValue(fields),
		Message:   firstString(fields, "message", "msg", "reason"),
		SrcIP:     firstString(fields, "src", "src_ip", "ip"),
		DstIP:     firstString(fields, "dst", "dst_ip"),
		SrcPort:   firstInt(fields, "spt", "src_port"),
		DstPort:   firstInt(fields, "dpt", "dst_port"),
		Protocol:  firstString(fields, "proto", "protocol"),
		Username:  firstString(fields, "user", "username"),
		Host:      firstString(fields, "hostname", "host"),
		Action:    firstString(fields, "action"),
		Vendor:    firstString(fields, "vendor"),
		Product:   firstString(fields, "product"),
		RuleName:  firstString(fields, "rule_name", "rule"),
		RuleID:    firstString(fields, "rule_id"),
		Interface: firstString(fields, "interface", "if"),
		MAC:       firstString(fields, "mac"),
		Policy:    firstString(fields, "policy"),
		Cloud:     jsonValue(fields, "cloud"),
		Tags:      jsonValue(fields, "_tags", "tags"),
	}

	if raw, err := json.Marshal(fields); err == nil {
		event.RawData = string(raw)
	}
	return event
}

func timestampValue(fields map[string]any) time.Time {
	for _, key := range []string{"@timestamp", "timestamp"} {
		if s, ok := fields[key].(string); ok {
			if ts, err := time.Parse(time.RFC3339, s); err == nil {
				return ts.UTC()
			}
		}
	}
	return time.Now().UTC()
}

func severityValue(fields map[string]any) *int {
	switch v := fields["severity"].(type) {
	case string:
		if level, ok := severityLevels[strings.ToLower(v)]; ok {
			return &level
		}
	case float64:
		level := int(v)
		return &level
	case int:
		return &v
	}
	return nil
}

func firstStringValue(fields map[string]any, keys ...string) string {
	if s := firstString(fields, keys...); s != nil {
		return *s
	}
	return ""
}

func firstString(fields map[string]any, keys ...string) *string {
	for _, key := range keys {
		if s, ok := fields[key].(string); ok && s != "" {
			return &s
		}
	}
	return nil
}

func firstInt(fields map[string]any, keys ...string) *int {
	for _, key := range keys {
		switch v := fields[key].(type) {
		case int:
			return &v
		case float64:
			n := int(v)
			return &n
		case string:
			if n, err := strconv.Atoi(v); err == nil {
				return &n
			}
		}
	}
	return nil
}

func jsonValue(fields map[string]any, keys ...string) json.RawMessage {
	for _, key := range keys {
		if v, ok := fields[key]; ok && v != nil {
			if raw, err := json.Marshal(v); err == nil {
				return raw
			}
		}
	}
	return nil
}
