package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/auth"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/logging"
)

type registerRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	UserName string `json:"userName" validate:"required,min=2,max=50"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid registration details"})
	}

	user := domain.User{
		ID:           uuid.NewString(),
		UserName:     req.UserName,
		FullName:     req.FullName,
		Email:        strings.ToLower(req.Email),
		ProfileImage: s.config.DefaultAvatarURL,
		CreatedAt:    s.clock.Now().UTC(),
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		return c.JSON(500, map[string]string{"error": "registration failed"})
	}
	user.PasswordHash = hash

	if err := s.accounts.Create(c.Request().Context(), user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return c.JSON(400, map[string]string{"error": "user already exists"})
		}
		slog.Error("Failed to create user", "error", err)
		return c.JSON(500, map[string]string{"error": "registration failed"})
	}

	return c.JSON(200, user)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "invalid login details"})
	}

	user, err := s.authenticate(c.Request().Context(), strings.ToLower(req.Email), req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return c.JSON(400, map[string]string{"error": "invalid credentials"})
	}
	if err != nil {
		slog.Error("Failed to look up user", "error", err)
		return c.JSON(500, map[string]string{"error": "login failed"})
	}

	token, err := s.tokens.Generate(user.ID, user.UserName)
	if err != nil {
		slog.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return c.JSON(500, map[string]string{"error": "login failed"})
	}

	return c.JSON(200, map[string]string{"token": token})
}

// authenticate folds a missing account and a wrong password into the same
// error so login responses never reveal which one failed.
func (s *Server) authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *Server) handleMe(c echo.Context) error {
	identity, err := s.bearerIdentity(c)
	if err != nil {
		return c.JSON(401, map[string]string{"error": "unauthorized"})
	}

	user, err := s.accounts.FindByID(c.Request().Context(), identity.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return c.JSON(404, map[string]string{"error": "user not found"})
	}
	if err != nil {
		logging.WithUser(identity.UserID).Error("Failed to load current user", "error", err)
		return c.JSON(500, map[string]string{"error": "lookup failed"})
	}

	return c.JSON(200, user)
}

func (s *Server) bearerIdentity(c echo.Context) (domain.Identity, error) {
	header := c.Request().Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return domain.Identity{}, domain.ErrInvalidToken
	}
	return s.tokens.Validate(token)
}
