package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/logward/logward/internal/models"
)

// MemoryRepository is an in-memory Repository used by unit tests. It mirrors
// the query semantics of PostgresRepository closely enough to exercise the
// service layer without a database.
type MemoryRepository struct {
	mu sync.Mutex

	tenants map[string]*models.Tenant
	sources map[string]*models.Source
	logs    []*models.LogEvent
	alerts  []*models.Alert
	users   map[string]*models.User

	nextTenantID int64
	nextSourceID int64
	nextLogID    int64
	nextAlertID  int64
	nextUserID   int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tenants: make(map[string]*models.Tenant),
		sources: make(map[string]*models.Source),
		users:   make(map[string]*models.User),
	}
}

func (r *MemoryRepository) Close() {}

func (r *MemoryRepository) GetOrCreateTenant(_ context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tenants[name]; ok {
		return t.ID, nil
	}
	r.nextTenantID++
	r.tenants[name] = &models.Tenant{
		ID:        r.nextTenantID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	return r.nextTenantID, nil
}

func (r *MemoryRepository) GetOrCreateSource(_ context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sources[name]; ok {
		return s.ID, nil
	}
	r.nextSourceID++
	r.sources[name] = &models.Source{
		ID:        r.nextSourceID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	return r.nextSourceID, nil
}

func (r *MemoryRepository) GetTenantByName(_ context.Context, name string) (*models.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tenants[name]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, ErrTenantNotFound
}

func (r *MemoryRepository) GetTenantByID(_ context.Context, id int64) (*models.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tenants {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, ErrTenantNotFound
}

func (r *MemoryRepository) ListTenants(_ context.Context) ([]*models.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tenants := make([]*models.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		copied := *t
		tenants = append(tenants, &copied)
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].Name < tenants[j].Name })
	return tenants, nil
}

func (r *MemoryRepository) ListSources(_ context.Context) ([]*models.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sources := make([]*models.Source, 0, len(r.sources))
	for _, s := range r.sources {
		copied := *s
		copied.LogCount = 0
		for _, l := range r.logs {
			if l.SourceID != nil && *l.SourceID == s.ID {
				copied.LogCount++
			}
		}
		sources = append(sources, &copied)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, nil
}

func (r *MemoryRepository) InsertLog(_ context.Context, event *models.LogEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextLogID++
	event.ID = r.nextLogID
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	copied := *event
	r.annotate(&copied)
	r.logs = append(r.logs, &copied)
	return nil
}

// annotate fills the joined tenant and source names the way the SQL
// projection does.
func (r *MemoryRepository) annotate(l *models.LogEvent) {
	if l.TenantID != nil {
		for _, t := range r.tenants {
			if t.ID == *l.TenantID {
				name := t.Name
				l.TenantName = &name
			}
		}
	}
	if l.SourceID != nil {
		for _, s := range r.sources {
			if s.ID == *l.SourceID {
				name := s.Name
				l.SourceName = &name
			}
		}
	}
}

func (r *MemoryRepository) sortedLogs() []*models.LogEvent {
	sorted := make([]*models.LogEvent, len(r.logs))
	copy(sorted, r.logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return sorted
}

func (r *MemoryRepository) ListLogs(_ context.Context, limit int) ([]*models.LogEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := r.sortedLogs()
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (r *MemoryRepository) ListLogsPage(_ context.Context, logType string, limit, offset int) ([]*models.LogEvent, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var filtered []*models.LogEvent
	for _, l := range r.sortedLogs() {
		if logType == "" || l.LogType == logType {
			filtered = append(filtered, l)
		}
	}

	total := len(filtered)
	if offset >= len(filtered) {
		return nil, total, nil
	}
	filtered = filtered[offset:]
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, total, nil
}

func (r *MemoryRepository) ListLogsByTenant(_ context.Context, tenantID int64, limit int) ([]*models.LogEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var filtered []*models.LogEvent
	for _, l := range r.sortedLogs() {
		if l.TenantID != nil && *l.TenantID == tenantID {
			filtered = append(filtered, l)
		}
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

func (r *MemoryRepository) InsertAlert(_ context.Context, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextAlertID++
	alert.ID = r.nextAlertID
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	copied := *alert
	r.alerts = append(r.alerts, &copied)
	return nil
}

func (r *MemoryRepository) ListAlerts(_ context.Context, limit int) ([]*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := make([]*models.Alert, len(r.alerts))
	copy(sorted, r.alerts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (r *MemoryRepository) CountRecentAlerts(_ context.Context, alertType, ip string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, a := range r.alerts {
		if a.AlertType == alertType && a.IPAddress != nil && *a.IPAddress == ip && !a.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func isFailedLoginMarker(s string) bool {
	s = strings.ToLower(s)
	if strings.Contains(s, "logonfailed") || strings.Contains(s, "app_login_failed") {
		return true
	}
	if i := strings.Index(s, "login"); i >= 0 && strings.Contains(s[i:], "fail") {
		return true
	}
	return false
}

func (r *MemoryRepository) FailedLoginGroups(_ context.Context, since time.Time, threshold int) ([]models.FailedLoginGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type key struct {
		ip     string
		tenant string
	}
	counts := make(map[key]*models.FailedLoginGroup)
	seenUsers := make(map[key]map[string]bool)

	for _, l := range r.logs {
		if l.CreatedAt.Before(since) || l.SrcIP == nil {
			continue
		}
		matched := false
		if l.EventType != nil && isFailedLoginMarker(*l.EventType) {
			matched = true
		}
		if !matched && l.Message != nil && isFailedLoginMarker(*l.Message) {
			matched = true
		}
		if !matched {
			continue
		}

		tenant := ""
		if l.TenantName != nil {
			tenant = *l.TenantName
		}
		k := key{ip: *l.SrcIP, tenant: tenant}
		g, ok := counts[k]
		if !ok {
			g = &models.FailedLoginGroup{IP: *l.SrcIP, Users: []string{}}
			if l.TenantName != nil {
				name := *l.TenantName
				g.TenantName = &name
			}
			counts[k] = g
			seenUsers[k] = make(map[string]bool)
		}
		g.AttemptCount++
		if l.Username != nil && !seenUsers[k][*l.Username] {
			seenUsers[k][*l.Username] = true
			g.Users = append(g.Users, *l.Username)
		}
	}

	var groups []models.FailedLoginGroup
	for _, g := range counts {
		if g.AttemptCount >= threshold {
			sort.Strings(g.Users)
			groups = append(groups, *g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].IP < groups[j].IP })
	return groups, nil
}

func (r *MemoryRepository) CreateUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return ErrUserExists
	}
	r.nextUserID++
	user.ID = r.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	copied := *user
	r.users[user.Username] = &copied
	return nil
}

func (r *MemoryRepository) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[username]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, ErrUserNotFound
}

func (r *MemoryRepository) DeleteLogsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []*models.LogEvent
	var deleted int64
	for _, l := range r.logs {
		if l.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	r.logs = kept
	return deleted, nil
}

func (r *MemoryRepository) DeleteAlertsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kept []*models.Alert
	var deleted int64
	for _, a := range r.alerts {
		if a.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, a)
	}
	r.alerts = kept
	return deleted, nil
}

func (r *MemoryRepository) DeleteOrphanAlerts(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	liveIPs := make(map[string]bool)
	for _, l := range r.logs {
		if l.SrcIP != nil {
			liveIPs[*l.SrcIP] = true
		}
	}

	var kept []*models.Alert
	var deleted int64
	for _, a := range r.alerts {
		if a.IPAddress != nil && !liveIPs[*a.IPAddress] {
			deleted++
			continue
		}
		kept = append(kept, a)
	}
	r.alerts = kept
	return deleted, nil
}

func (r *MemoryRepository) RetentionStats(_ context.Context, recentSince time.Time) (*models.RetentionStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &models.RetentionStats{
		TotalLogs:   int64(len(r.logs)),
		TotalAlerts: int64(len(r.alerts)),
	}
	for _, l := range r.logs {
		if !l.CreatedAt.Before(recentSince) {
			stats.RecentLogs++
		}
	}
	stats.OldLogs = stats.TotalLogs - stats.RecentLogs
	stats.Tables = []models.TableSize{
		{Name: "logs", SizeMB: 0},
		{Name: "alerts", SizeMB: 0},
	}
	return stats, nil
}
