package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/logward/logward/internal/logging"
	"github.com/logward/logward/internal/middleware"
	"github.com/logward/logward/internal/models"
	"github.com/logward/logward/internal/repository"
	"github.com/logward/logward/internal/service"
	"github.com/logward/logward/pkg/tokens"
)

// testEnv wires the handlers against the in-memory repository.
type testEnv struct {
	repo      *repository.MemoryRepository
	tokens    *tokens.Manager
	auth      *middleware.AuthMiddleware
	ingest    *IngestHandler
	authH     *AuthHandler
	logs      *LogsHandler
	alerts    *AlertsHandler
	retention *RetentionHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := repository.NewMemoryRepository()
	logger := logging.New(slog.LevelError, "text")
	tm := tokens.NewManager("test-secret", time.Hour)

	return &testEnv{
		repo:      repo,
		tokens:    tm,
		auth:      middleware.NewAuthMiddleware(tm),
		ingest:    NewIngestHandler(service.NewIngestService(repo, logger), logger),
		authH:     NewAuthHandler(service.NewAuthService(repo, tm, logger), logger),
		logs:      NewLogsHandler(service.NewLogService(repo), logger),
		alerts:    NewAlertsHandler(service.NewAlertService(repo), logger),
		retention: NewRetentionHandler(service.NewRetentionService(repo, logger, 7*24*time.Hour, 30*24*time.Hour), logger),
	}
}

// do runs a handler, optionally behind the auth middleware with a token for
// the given role/username.
func (e *testEnv) do(t *testing.T, handler http.HandlerFunc, method, target, body, username, role string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)

	if role != "" {
		token, err := e.tokens.Generate(1, username, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		handler = e.auth.RequireAuth(handler)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func seedTenantLog(t *testing.T, env *testEnv, tenant, event, ip string) {
	t.Helper()
	tenantID, err := env.repo.GetOrCreateTenant(context.Background(), tenant)
	require.NoError(t, err)
	sourceID, err := env.repo.GetOrCreateSource(context.Background(), "webapp")
	require.NoError(t, err)

	eventCopy, ipCopy := event, ip
	err = env.repo.InsertLog(context.Background(), &models.LogEvent{
		Timestamp: time.Now().UTC(),
		LogType:   models.LogTypeTenant,
		TenantID:  &tenantID,
		SourceID:  &sourceID,
		EventType: &eventCopy,
		SrcIP:     &ipCopy,
	})
	require.NoError(t, err)
}
