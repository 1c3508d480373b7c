package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-console/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-console/internal/session"
)

const (
	loginPath   = "/auth/login"
	logoutPath  = "/auth/logout"
	refreshPath = "/auth/refresh-token"
)

// Transport is the subset of httpx.Client used by the service.
type Transport interface {
	Do(ctx context.Context, method, path string, body, out any) error
	DoAs(ctx context.Context, method, path, token string, body, out any) error
}

// Service drives the credential lifecycle against the auth endpoints.
type Service struct {
	client    Transport
	session   *session.Session
	validator *validator.Validate
	logger    *slog.Logger
}

// NewService constructs a new Service.
func NewService(client Transport, sess *session.Session, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, session: sess, validator: validator.New(), logger: logger}
}

// Login exchanges email/password for a credential and stores it.
func (s *Service) Login(ctx context.Context, email, password string) error {
	creds := Credentials{Email: email, Password: password}
	if err := s.validator.Struct(creds); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	var resp TokenResponse
	if err := s.client.DoAs(ctx, http.MethodPost, loginPath, "", creds, &resp); err != nil {
		if errors.Is(err, httpx.ErrUnauthorized) || errors.Is(err, httpx.ErrBadRequest) {
			return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return err
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("auth: login returned no access token")
	}
	if err := s.session.Set(ctx, resp.AccessToken); err != nil {
		return err
	}
	s.logger.Info("signed in", slog.String("email", email))
	return nil
}

// Logout ends the server session and always clears the local credential.
func (s *Service) Logout(ctx context.Context) error {
	var remote error
	if s.session.Authenticated() {
		remote = s.client.Do(ctx, http.MethodPost, logoutPath, nil, nil)
		if remote != nil {
			s.logger.Warn("remote logout failed", slog.Any("error", remote))
		}
	}
	if err := s.session.Clear(ctx); err != nil {
		return err
	}
	if remote != nil && !errors.Is(remote, httpx.ErrUnauthorized) {
		return remote
	}
	return nil
}

// Renew exchanges token for a fresh credential without touching the session.
func (s *Service) Renew(ctx context.Context, token string) (string, error) {
	var resp TokenResponse
	if err := s.client.DoAs(ctx, http.MethodPost, refreshPath, token, nil, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("auth: refresh returned no access token")
	}
	return resp.AccessToken, nil
}

// Refresh renews the current credential and stores the result.
func (s *Service) Refresh(ctx context.Context) error {
	current := s.session.Token()
	if current == "" {
		return httpx.ErrUnauthorized
	}
	next, err := s.Renew(ctx, current)
	if err != nil {
		return err
	}
	_, err = s.session.Replace(ctx, current, next)
	return err
}
