package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/logward/logward/internal/httputil"
	"github.com/logward/logward/internal/logging"
	"github.com/logward/logward/internal/middleware"
	"github.com/logward/logward/internal/models"
	"github.com/logward/logward/internal/repository"
	"github.com/logward/logward/internal/service"
)

type AuthHandler struct {
	auth   *service.AuthService
	logger *logging.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *logging.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.auth.Signup(r.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			httputil.WriteError(w, http.StatusBadRequest, "Username already exists")
			return
		}
		h.logger.WithContext(r.Context()).Error("signup failed", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User created",
		"userId":  user.ID,
	})
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	token, user, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httputil.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.WithContext(r.Context()).Error("login failed", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"role":    user.Role,
	})
}

// HandleSession echoes the authenticated token payload, used by the UI to
// restore a session.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		httputil.WriteError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user": map[string]any{
			"id":       claims.ID,
			"username": claims.Username,
			"role":     claims.Role,
		},
	})
}
