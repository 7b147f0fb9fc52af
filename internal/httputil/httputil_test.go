package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusForbidden, "Access denied")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Access denied", body["message"])
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:    "x-forwarded-for single",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.5"},
			remote:  "10.0.0.1:1234",
			want:    "203.0.113.5",
		},
		{
			name:    "x-forwarded-for chain takes client",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.5, 70.41.3.18"},
			remote:  "10.0.0.1:1234",
			want:    "203.0.113.5",
		},
		{
			name:    "x-real-ip",
			headers: map[string]string{"X-Real-IP": "198.51.100.7"},
			remote:  "10.0.0.1:1234",
			want:    "198.51.100.7",
		},
		{
			name:   "remote addr fallback",
			remote: "10.0.0.1:1234",
			want:   "10.0.0.1:1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(r))
		})
	}
}

func TestLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 100, 0},
		{"explicit", "limit=25&offset=50", 25, 50},
		{"clamped to max", "limit=99999", 1000, 0},
		{"invalid falls back", "limit=abc&offset=xyz", 100, 0},
		{"negative offset clamped", "limit=10&offset=-5", 10, 0},
		{"zero limit falls back", "limit=0", 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			limit, offset := LimitOffset(r, 100, 1000)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}
