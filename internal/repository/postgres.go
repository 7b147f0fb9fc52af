package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/logward/logward/internal/models"
)

// logColumns is the shared projection for log queries; every list query
// joins the dimension tables so responses can carry tenant and source names.
const logColumns = `
	l.id, l.timestamp, l.tenant_id, l.source_id, l.log_type,
	l.event_type, l.severity, l.message,
	l.src_ip, l.dst_ip, l.src_port, l.dst_port, l.protocol,
	l.username, l.host, l.action,
	l.vendor, l.product, l.rule_name, l.rule_id,
	l.interface, l.mac, l.policy,
	l.cloud, l.raw_data, l.tags, l.created_at,
	t.name, s.name
`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(ctx context.Context, connString string, maxConns int32) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = maxConns
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// =============================================================================
// TENANTS / SOURCES
// =============================================================================

func (r *PostgresRepository) GetOrCreateTenant(ctx context.Context, name string) (int64, error) {
	return r.getOrCreateDimension(ctx, "tenants", name)
}

func (r *PostgresRepository) GetOrCreateSource(ctx context.Context, name string) (int64, error) {
	return r.getOrCreateDimension(ctx, "sources", name)
}

// getOrCreateDimension upserts a row by name and returns its id. The
// ON CONFLICT DO NOTHING plus lookup pair is race-free without needing a
// transaction: concurrent inserts of the same name both land on one row.
func (r *PostgresRepository) getOrCreateDimension(ctx context.Context, table, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	insert := fmt.Sprintf(`
		INSERT INTO %s (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, table)

	description := fmt.Sprintf("Auto-created for %s", name)
	if _, err := r.pool.Exec(ctx, insert, name, description); err != nil {
		return 0, fmt.Errorf("failed to upsert %s: %w", table, err)
	}

	var id int64
	lookup := fmt.Sprintf(`SELECT id FROM %s WHERE name = $1`, table)
	if err := r.pool.QueryRow(ctx, lookup, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up %s: %w", table, err)
	}

	return id, nil
}

func (r *PostgresRepository) GetTenantByName(ctx context.Context, name string) (*models.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT id, name, description, created_at FROM tenants WHERE name = $1`

	var tenant models.Tenant
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&tenant.ID, &tenant.Name, &tenant.Description, &tenant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &tenant, nil
}

func (r *PostgresRepository) GetTenantByID(ctx context.Context, id int64) (*models.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT id, name, description, created_at FROM tenants WHERE id = $1`

	var tenant models.Tenant
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tenant.ID, &tenant.Name, &tenant.Description, &tenant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &tenant, nil
}

func (r *PostgresRepository) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT id, name, description, created_at FROM tenants ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		var tenant models.Tenant
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.Description, &tenant.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, &tenant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tenants: %w", err)
	}

	return tenants, nil
}

func (r *PostgresRepository) ListSources(ctx context.Context) ([]*models.Source, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT s.id, s.name, s.description, s.created_at, COUNT(l.id)
		FROM sources s
		LEFT JOIN logs l ON l.source_id = s.id
		GROUP BY s.id, s.name, s.description, s.created_at
		ORDER BY s.name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []*models.Source
	for rows.Next() {
		var source models.Source
		if err := rows.Scan(&source.ID, &source.Name, &source.Description, &source.CreatedAt, &source.LogCount); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, &source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}

	return sources, nil
}

// =============================================================================
// LOGS
// =============================================================================

func (r *PostgresRepository) InsertLog(ctx context.Context, event *models.LogEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO logs (
			timestamp, tenant_id, source_id, log_type,
			event_type, severity, message,
			src_ip, dst_ip, src_port, dst_port, protocol,
			username, host, action,
			vendor, product, rule_name, rule_id,
			interface, mac, policy,
			cloud, raw_data, tags
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
		)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		event.Timestamp, event.TenantID, event.SourceID, event.LogType,
		event.EventType, event.Severity, event.Message,
		event.SrcIP, event.DstIP, event.SrcPort, event.DstPort, event.Protocol,
		event.Username, event.Host, event.Action,
		event.Vendor, event.Product, event.RuleName, event.RuleID,
		event.Interface, event.MAC, event.Policy,
		event.Cloud, event.RawData, event.Tags,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert log: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListLogs(ctx context.Context, limit int) ([]*models.LogEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT ` + logColumns + `
		FROM logs l
		LEFT JOIN tenants t ON t.id = l.tenant_id
		LEFT JOIN sources s ON s.id = l.source_id
		ORDER BY l.timestamp DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	return scanLogs(rows)
}

func (r *PostgresRepository) ListLogsPage(ctx context.Context, logType string, limit, offset int) ([]*models.LogEvent, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	countQuery := `SELECT COUNT(*) FROM logs`
	query := `
		SELECT ` + logColumns + `
		FROM logs l
		LEFT JOIN tenants t ON t.id = l.tenant_id
		LEFT JOIN sources s ON s.id = l.source_id
	`
	args := []any{}
	countArgs := []any{}
	if logType != "" {
		countQuery += ` WHERE log_type = $1`
		countArgs = append(countArgs, logType)
		query += ` WHERE l.log_type = $1 ORDER BY l.timestamp DESC LIMIT $2 OFFSET $3`
		args = append(args, logType, limit, offset)
	} else {
		query += ` ORDER BY l.timestamp DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	logs, err := scanLogs(rows)
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func (r *PostgresRepository) ListLogsByTenant(ctx context.Context, tenantID int64, limit int) ([]*models.LogEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT ` + logColumns + `
		FROM logs l
		LEFT JOIN tenants t ON t.id = l.tenant_id
		LEFT JOIN sources s ON s.id = l.source_id
		WHERE l.tenant_id = $1
		ORDER BY l.timestamp DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant logs: %w", err)
	}
	defer rows.Close()

	return scanLogs(rows)
}

func scanLogs(rows pgx.Rows) ([]*models.LogEvent, error) {
	var logs []*models.LogEvent
	for rows.Next() {
		var l models.LogEvent
		err := rows.Scan(
			&l.ID, &l.Timestamp, &l.TenantID, &l.SourceID, &l.LogType,
			&l.EventType, &l.Severity, &l.Message,
			&l.SrcIP, &l.DstIP, &l.SrcPort, &l.DstPort, &l.Protocol,
			&l.Username, &l.Host, &l.Action,
			&l.Vendor, &l.Product, &l.RuleName, &l.RuleID,
			&l.Interface, &l.MAC, &l.Policy,
			&l.Cloud, &l.RawData, &l.Tags, &l.CreatedAt,
			&l.TenantName, &l.SourceName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		logs = append(logs, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating logs: %w", err)
	}

	return logs, nil
}

// =============================================================================
// ALERTS
// =============================================================================

func (r *PostgresRepository) InsertAlert(ctx context.Context, alert *models.Alert) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO alerts (alert_type, message, ip_address, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		alert.AlertType, alert.Message, alert.IPAddress, alert.Details,
	).Scan(&alert.ID, &alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListAlerts(ctx context.Context, limit int) ([]*models.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT id, alert_type, message, ip_address, details, created_at
		FROM alerts
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		var alert models.Alert
		err := rows.Scan(
			&alert.ID, &alert.AlertType, &alert.Message, &alert.IPAddress,
			&alert.Details, &alert.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, &alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}

func (r *PostgresRepository) CountRecentAlerts(ctx context.Context, alertType, ip string, since time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT COUNT(*)
		FROM alerts
		WHERE alert_type = $1 AND ip_address = $2 AND created_at >= $3
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, alertType, ip, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recent alerts: %w", err)
	}

	return count, nil
}

// FailedLoginGroups buckets login-failure events by source IP and tenant.
// The message markers match case-insensitively so "Login Failed", "LogonFailed"
// and the app_login_failed event name all count toward the same bucket.
func (r *PostgresRepository) FailedLoginGroups(ctx context.Context, since time.Time, threshold int) ([]models.FailedLoginGroup, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `
		SELECT l.src_ip,
		       COUNT(*) AS attempt_count,
		       COALESCE(ARRAY_AGG(DISTINCT l.username) FILTER (WHERE l.username IS NOT NULL), '{}') AS users,
		       t.name
		FROM logs l
		LEFT JOIN tenants t ON t.id = l.tenant_id
		WHERE l.created_at >= $1
		  AND l.src_ip IS NOT NULL
		  AND (
			l.event_type ILIKE '%login%fail%' OR
			l.event_type ILIKE '%logonfailed%' OR
			l.event_type ILIKE '%app_login_failed%' OR
			l.message ILIKE '%login%fail%' OR
			l.message ILIKE '%logonfailed%'
		  )
		GROUP BY l.src_ip, t.name
		HAVING COUNT(*) >= $2
	`

	rows, err := r.pool.Query(ctx, query, since, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query failed login groups: %w", err)
	}
	defer rows.Close()

	var groups []models.FailedLoginGroup
	for rows.Next() {
		var g models.FailedLoginGroup
		if err := rows.Scan(&g.IP, &g.AttemptCount, &g.Users, &g.TenantName); err != nil {
			return nil, fmt.Errorf("failed to scan failed login group: %w", err)
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating failed login groups: %w", err)
	}

	return groups, nil
}

// =============================================================================
// USERS
// =============================================================================

func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, user.Username, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		SELECT id, username, password_hash, role, created_at
		FROM users
		WHERE username = $1
	`

	var user models.User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// =============================================================================
// RETENTION
// =============================================================================

func (r *PostgresRepository) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old logs: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *PostgresRepository) DeleteAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, `DELETE FROM alerts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old alerts: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteOrphanAlerts removes failed-login alerts whose source IP no longer
// appears in any retained log row.
func (r *PostgresRepository) DeleteOrphanAlerts(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	query := `
		DELETE FROM alerts a
		WHERE a.ip_address IS NOT NULL
		  AND NOT EXISTS (
			SELECT 1 FROM logs l WHERE l.src_ip = a.ip_address
		  )
	`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphan alerts: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *PostgresRepository) RetentionStats(ctx context.Context, recentSince time.Time) (*models.RetentionStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	stats := &models.RetentionStats{}

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM logs`).Scan(&stats.TotalLogs); err != nil {
		return nil, fmt.Errorf("failed to count logs: %w", err)
	}
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM logs WHERE created_at >= $1`, recentSince).Scan(&stats.RecentLogs); err != nil {
		return nil, fmt.Errorf("failed to count recent logs: %w", err)
	}
	stats.OldLogs = stats.TotalLogs - stats.RecentLogs
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&stats.TotalAlerts); err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}

	sizeQuery := `
		SELECT c.relname,
		       ROUND(pg_total_relation_size(c.oid)::numeric / 1024 / 1024, 2)::float8
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = 'public' AND c.relkind = 'r'
		ORDER BY pg_total_relation_size(c.oid) DESC
	`

	rows, err := r.pool.Query(ctx, sizeQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query table sizes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.TableSize
		if err := rows.Scan(&t.Name, &t.SizeMB); err != nil {
			return nil, fmt.Errorf("failed to scan table size: %w", err)
		}
		stats.Tables = append(stats.Tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table sizes: %w", err)
	}

	return stats, nil
}
