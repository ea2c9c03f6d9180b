package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rmail/rmail/internal/api"
	"github.com/rmail/rmail/internal/models"
	"github.com/rmail/rmail/pkg/auth"
)

// SessionServiceImpl implements SessionService.
type SessionServiceImpl struct {
	client   BackendClient
	creds    auth.CredentialStore
	notifier Notifier
	logger   *zap.Logger

	mu      sync.Mutex
	current models.Session
}

// NewSessionService creates a new session service.
func NewSessionService(client BackendClient, creds auth.CredentialStore, notifier Notifier, logger *zap.Logger) *SessionServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionServiceImpl{
		client:   client,
		creds:    creds,
		notifier: notifier,
		logger:   logger,
		current:  models.DisconnectedSession(),
	}
}

func (s *SessionServiceImpl) RefreshStatus(ctx context.Context) (models.Session, error) {
	token, err := s.creds.Token()
	if err != nil {
		s.logger.Warn("credential store unreadable", zap.Error(err))
		token = ""
	}
	if token == "" {
		// Fast path: nothing stored means nobody is logged in.
		return s.setCurrent(models.DisconnectedSession()), nil
	}

	status, err := s.client.AuthStatus(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			if clearErr := s.creds.Clear(); clearErr != nil {
				s.logger.Warn("clearing expired credential", zap.Error(clearErr))
			}
			return s.setCurrent(models.DisconnectedSession()), nil
		}
		// Fail soft: a flaky backend must not log the user out.
		s.logger.Warn("status refresh failed", zap.Error(err))
		return s.Current(), nil
	}

	return s.setCurrent(status), nil
}

func (s *SessionServiceImpl) Login(ctx context.Context) (string, error) {
	authURL, err := s.client.LoginURL(ctx)
	if err != nil {
		s.notifier.Error("Failed to start login")
		return "", fmt.Errorf("%w: %v", ErrAuthStartFailed, err)
	}
	if authURL == "" {
		s.notifier.Error("Failed to start login")
		return "", fmt.Errorf("%w: backend returned no authorization URL", ErrAuthStartFailed)
	}
	return authURL, nil
}

func (s *SessionServiceImpl) ExchangeCallback(ctx context.Context, code string) (models.Session, error) {
	if code == "" {
		return s.Current(), fmt.Errorf("%w: code cannot be empty", ErrInvalidInput)
	}

	token, err := s.client.ExchangeCode(ctx, code)
	if err != nil || token == "" {
		s.notifier.Error("Login failed — please try again")
		if err == nil {
			err = fmt.Errorf("callback returned no credential")
		}
		return s.setCurrent(models.DisconnectedSession()), fmt.Errorf("exchange callback: %w", err)
	}

	if err := s.creds.Save(token); err != nil {
		s.notifier.Error("Login failed — please try again")
		return s.setCurrent(models.DisconnectedSession()), fmt.Errorf("persist credential: %w", err)
	}

	return s.RefreshStatus(ctx)
}

func (s *SessionServiceImpl) Logout(ctx context.Context) error {
	// Backend invalidation is best-effort; local state clears regardless.
	if err := s.client.Logout(ctx); err != nil {
		s.logger.Debug("backend logout failed", zap.Error(err))
	}
	if err := s.creds.Clear(); err != nil {
		s.logger.Warn("clearing credential", zap.Error(err))
	}
	s.setCurrent(models.DisconnectedSession())
	s.notifier.Success("Logged out successfully")
	return nil
}

func (s *SessionServiceImpl) Current() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *SessionServiceImpl) setCurrent(status models.Session) models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = status
	return status
}
