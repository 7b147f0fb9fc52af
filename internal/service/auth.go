package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/logward/logward/internal/logging"
	"github.com/logward/logward/internal/models"
	"github.com/logward/logward/internal/repository"
	"github.com/logward/logward/pkg/tokens"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	repo   repository.Repository
	tokens *tokens.Manager
	logger *logging.Logger
}

func NewAuthService(repo repository.Repository, tokens *tokens.Manager, logger *logging.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, logger: logger}
}

// Signup creates an account with a bcrypt-hashed password. Role defaults to
// tenant; returns repository.ErrUserExists on a duplicate username.
func (s *AuthService) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = models.RoleTenant
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", logging.Username(user.Username), "role", user.Role)
	return user, nil
}

// Login verifies the password and mints a signed token carrying
// {id, username, role}.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (string, *models.User, error) {
	user, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Username, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}
