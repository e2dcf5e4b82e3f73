package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"rentoo/internal/domain"
	"rentoo/internal/logger"
	"rentoo/internal/repository"
	"rentoo/internal/security"
)

const badCredentials = "Incorrect email or password"

type authService struct {
	userRepo repository.UserRepository
	tokens   security.TokenManager
}

func NewAuthService(userRepo repository.UserRepository, tokens security.TokenManager) AuthService {
	return &authService{userRepo: userRepo, tokens: tokens}
}

func (s *authService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	logger.EnterMethod("authService.Register", "email", email)

	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	var verr ValidationError
	if _, err := mail.ParseAddress(email); err != nil || strings.ContainsAny(email, "<> ") {
		verr.Add("email", "value is not a valid email address")
	}
	if name == "" || len([]rune(name)) > 100 {
		verr.Add("name", "Name must be between 1 and 100 characters")
	}
	if len(password) < 6 {
		verr.Add("password", "Password must be at least 6 characters")
	}
	if err := verr.Err(); err != nil {
		logger.ExitMethodWithError("authService.Register", err)
		return nil, err
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		err = conflict("Email already registered")
		logger.ExitMethodWithError("authService.Register", err)
		return nil, err
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Email: email, Name: name, PasswordHash: hash}
	if err := s.userRepo.Create(ctx, user); err != nil {
		logger.ExitMethodWithError("authService.Register", err)
		return nil, err
	}

	logger.ExitMethod("authService.Register", "userID", user.ID)
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	logger.EnterMethod("authService.Login", "email", email)

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		logger.Warn("Login failed: unknown email", "email", email)
		return nil, unauthorized(badCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !security.CheckPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: wrong password", "userID", user.ID)
		return nil, unauthorized(badCredentials)
	}

	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	logger.ExitMethod("authService.Login", "userID", user.ID)
	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.tokens.ValidateToken(accessToken, security.TokenTypeAccess)
	if err != nil {
		return nil, unauthorized("Could not validate credentials")
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorized("Could not validate credentials")
	}
	return user, err
}
