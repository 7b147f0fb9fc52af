package httputil

import (
	"net/http"
	"strconv"
	"strings"
)

// GetClientIP extracts the client IP address, preferring proxy headers:
// X-Forwarded-For (first entry), then X-Real-IP, then RemoteAddr.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// ParseIntParam parses an integer query parameter with a default value.
// Returns defaultVal if the parameter is empty or invalid.
func ParseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return defaultVal
}

// LimitOffset extracts limit/offset query parameters. Limit is clamped to
// [1, maxLimit]; negative offsets become 0.
func LimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := ParseIntParam(r.URL.Query().Get("limit"), defaultLimit)
	offset := ParseIntParam(r.URL.Query().Get("offset"), 0)

	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
