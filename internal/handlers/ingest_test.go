package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleIngest_Object(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.ingest.HandleIngest, http.MethodPost, "/ingest",
		`{"tenant":"acme","event":"user_login","ip":"10.0.0.1"}`, "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "tenant", data["log_type"])
	assert.Equal(t, "user_login", data["event_type"])
}

func TestHandleIngest_ArrayTakesFirst(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.ingest.HandleIngest, http.MethodPost, "/ingest",
		`[{"event":"first"},{"event":"second"}]`, "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "first", data["event_type"])
}

func TestHandleIngest_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.ingest.HandleIngest, http.MethodPost, "/ingest", `{not json`, "", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", decodeBody(t, rec)["status"])
}

func TestHandleIngest_EmptyArray(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.ingest.HandleIngest, http.MethodPost, "/ingest", `[]`, "", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
