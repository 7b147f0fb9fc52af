package models

import (
	"encoding/json"
	"time"
)

// Log type discriminator values. Anything else arriving on the ingest
// endpoint is stored under the default tenant type.
const (
	LogTypeTenant   = "tenant"
	LogTypeFirewall = "firewall"
	LogTypeNetwork  = "network"
)

// User roles.
const (
	RoleAdmin  = "admin"
	RoleTenant = "tenant"
)

// AlertTypeFailedLogins is the alert type raised by the failed-login sweep.
const AlertTypeFailedLogins = "failed_login_attempts"

// Tenant is a customer/organization boundary. Created lazily on first
// ingestion referencing an unseen name; never updated or deleted here.
type Tenant struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Source is the producing system of a log event (e.g. "crowdstrike", "firewall").
type Source struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LogCount    int64     `json:"log_count"`
}

// LogEvent is one ingested record. Columns not present in the payload stay
// NULL; firewall/network events never carry a tenant reference.
type LogEvent struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	TenantID  *int64    `json:"tenant_id,omitempty"`
	SourceID  *int64    `json:"source_id,omitempty"`
	LogType   string    `json:"log_type"`

	EventType *string `json:"event_type"`
	Severity  *int    `json:"severity"`
	Message   *string `json:"message"`

	SrcIP    *string `json:"src_ip"`
	DstIP    *string `json:"dst_ip"`
	SrcPort  *int    `json:"src_port"`
	DstPort  *int    `json:"dst_port"`
	Protocol *string `json:"protocol"`

	Username *string `json:"user"`
	Host     *string `json:"host"`
	Action   *string `json:"action"`

	Vendor    *string `json:"vendor,omitempty"`
	Product   *string `json:"product,omitempty"`
	RuleName  *string `json:"rule_name,omitempty"`
	RuleID    *string `json:"rule_id,omitempty"`
	Interface *string `json:"interface,omitempty"`
	MAC       *string `json:"mac,omitempty"`
	Policy    *string `json:"policy,omitempty"`

	Cloud   json.RawMessage `json:"cloud,omitempty"`
	RawData string          `json:"raw_data"`
	Tags    json.RawMessage `json:"tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Joined dimension names, populated by list queries.
	TenantName *string `json:"tenant_name,omitempty"`
	SourceName *string `json:"source_name,omitempty"`
}

// Alert is a detection raised by the correlation sweep or created manually.
type Alert struct {
	ID        int64           `json:"id"`
	AlertType string          `json:"alert_type"`
	Message   string          `json:"message"`
	IPAddress *string         `json:"ip_address"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// User is an account row. The password hash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// FailedLoginGroup is one (source IP, tenant) bucket returned by the
// correlation query.
type FailedLoginGroup struct {
	IP           string
	AttemptCount int
	Users        []string
	TenantName   *string
}

// TableSize reports the on-disk footprint of one table.
type TableSize struct {
	Name   string  `json:"tableName"`
	SizeMB float64 `json:"sizeMB"`
}

// RetentionStats is the observability payload of the retention subsystem.
type RetentionStats struct {
	TotalLogs   int64       `json:"totalLogs"`
	RecentLogs  int64       `json:"recentLogs"`
	OldLogs     int64       `json:"oldLogs"`
	TotalAlerts int64       `json:"totalAlerts"`
	Tables      []TableSize `json:"tablesSizeMB"`
}

// CleanupResult reports one retention cycle.
type CleanupResult struct {
	LogsDeleted         int64 `json:"logsDeleted"`
	AlertsDeleted       int64 `json:"alertsDeleted"`
	OrphanAlertsDeleted int64 `json:"orphanAlertsDeleted"`
}
