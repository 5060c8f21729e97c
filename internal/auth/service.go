// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/kisaanconnect/internal/database"
	"github.com/tomtom215/kisaanconnect/internal/logging"
	"github.com/tomtom215/kisaanconnect/internal/metrics"
	"github.com/tomtom215/kisaanconnect/internal/models"
)

// TokenType is the token_type of every issued token.
const TokenType = "bearer"

// DefaultSessionTTL is used when ServiceConfig.SessionTTL is zero.
const DefaultSessionTTL = 24 * time.Hour

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong
	// password. The two cases are indistinguishable to callers.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	// ErrUnauthenticated is returned for a missing, unknown or expired token.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrUsernameTaken is returned by Register for an existing username.
	ErrUsernameTaken = database.ErrUsernameTaken
)

// UserStore is the account persistence the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	SessionTTL time.Duration
	BcryptCost int
}

// Service registers and authenticates users.
type Service struct {
	users    UserStore
	sessions SessionStore
	cfg      ServiceConfig
	logger   zerolog.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a Service.
func NewService(users UserStore, sessions SessionStore, cfg ServiceConfig) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		logger:   logging.WithComponent("auth"),
	}
}

// Register creates an account and signs it in.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenResponse, error) {
	hash, err := HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
		Role:         req.Role,
		Name:         req.Name,
		Email:        req.Email,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		metrics.RecordAuthAttempt("register", false)
		if errors.Is(err, database.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	metrics.RecordAuthAttempt("register", true)
	s.logger.Info().Int64("user_id", u.ID).Str("username", u.Username).Str("role", u.Role).Msg("User registered")
	return s.issue(ctx, u)
}

// Login checks the password and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*models.TokenResponse, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, database.ErrNotFound) {
		// Spend the same bcrypt work as a real check.
		CheckPassword(s.fakeHash(), password)
		metrics.RecordAuthAttempt("login", false)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		metrics.RecordAuthAttempt("login", false)
		s.logger.Warn().Str("username", username).Msg("Login failed")
		return nil, ErrInvalidCredentials
	}
	metrics.RecordAuthAttempt("login", true)
	return s.issue(ctx, u)
}

func (s *Service) issue(ctx context.Context, u *models.User) (*models.TokenResponse, error) {
	session, err := newSession(u.ID, u.Username, u.Role, s.cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &models.TokenResponse{
		AccessToken: session.ID,
		TokenType:   TokenType,
		Role:        u.Role,
		Username:    u.Username,
	}, nil
}

// Authenticate resolves a token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	session, err := s.sessions.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	u, err := s.users.GetUserByID(ctx, session.UserID)
	if errors.Is(err, database.ErrNotFound) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	return u, nil
}

// Logout deletes the session behind token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	metrics.RecordAuthAttempt("logout", true)
	return nil
}

// CleanupSessions drops expired sessions.
func (s *Service) CleanupSessions(ctx context.Context) (int, error) {
	n, err := s.sessions.CleanupExpired(ctx)
	if err != nil {
		return n, err
	}
	if n > 0 {
		s.logger.Debug().Int("removed", n).Msg("Expired sessions removed")
	}
	return n, nil
}

func (s *Service) fakeHash() string {
	s.dummyOnce.Do(func() {
		h, err := HashPassword("kisaanconnect-timing", s.cfg.BcryptCost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
