package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.authH.HandleSignup, http.MethodPost, "/api/signup",
		`{"username":"alice","password":"s3cret"}`, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User created", body["message"])
	assert.NotNil(t, body["userId"])

	rec = env.do(t, env.authH.HandleLogin, http.MethodPost, "/api/login",
		`{"username":"alice","password":"s3cret"}`, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "tenant", body["role"])

	token, ok := body["token"].(string)
	require.True(t, ok)
	claims, err := env.tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestHandleSignup_Duplicate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.authH.HandleSignup, http.MethodPost, "/api/signup",
		`{"username":"alice","password":"a"}`, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, env.authH.HandleSignup, http.MethodPost, "/api/signup",
		`{"username":"alice","password":"b"}`, "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already exists", decodeBody(t, rec)["message"])
}

func TestHandleSignup_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.authH.HandleSignup, http.MethodPost, "/api/signup",
		`{"username":"alice"}`, "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, env.authH.HandleSignup, http.MethodPost, "/api/signup",
		`{"username":"alice","password":"right"}`, "", "")

	rec := env.do(t, env.authH.HandleLogin, http.MethodPost, "/api/login",
		`{"username":"alice","password":"wrong"}`, "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["message"])
}

func TestHandleSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, env.authH.HandleSession, http.MethodGet, "/", "", "alice", "tenant")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "tenant", user["role"])
}
