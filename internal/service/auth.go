package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/config"
)

// AuthService is the admin session gate: it checks the shared secret and
// issues and validates session markers.
//
// ADMIN_PASSWORD, SESSION_SECRET and SESSION_TTL are resolved through the
// config.Source on every call, like the store settings, so changing the
// environment takes effect without a restart.
type AuthService struct {
	settings  config.Source
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(settings config.Source, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		settings:  settings,
		passwords: passwords,
		logger:    logger,
	}
}

// Session is a freshly issued marker and how long it lives.
type Session struct {
	Token string
	TTL   time.Duration
}

// Login checks password against ADMIN_PASSWORD and returns a new session.
//
// An unset ADMIN_PASSWORD is a ConfigError: with no secret configured
// nobody can log in. A wrong password gets the same generic Unauthorized
// every time; there is no lockout or delay.
func (s *AuthService) Login(ctx context.Context, password string) (*Session, error) {
	cfg, err := s.settings()
	if err != nil {
		return nil, err
	}
	if cfg.AdminPassword == "" {
		return nil, apperror.MissingConfig("ADMIN_PASSWORD")
	}

	if !s.passwords.Matches(cfg.AdminPassword, password) {
		s.logger.WarnContext(ctx, "admin login rejected")
		return nil, apperror.Unauthorized("invalid password")
	}

	tokens, err := tokenService(cfg)
	if err != nil {
		return nil, err
	}
	ttl := cfg.SessionLifetime()
	token, err := tokens.Generate(auth.AdminSubject, ttl)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing session: %w", err)
	}

	s.logger.InfoContext(ctx, "admin logged in", slog.Duration("ttl", ttl))
	return &Session{Token: token, TTL: ttl}, nil
}

// ValidateSession checks a marker and returns its subject. It satisfies
// auth.SessionValidator.
func (s *AuthService) ValidateSession(token string) (string, error) {
	if token == "" {
		return "", apperror.Unauthorized("no session")
	}
	cfg, err := s.settings()
	if err != nil {
		return "", err
	}
	tokens, err := tokenService(cfg)
	if err != nil {
		return "", err
	}
	subject, err := tokens.Validate(token)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	if subject != auth.AdminSubject {
		return "", apperror.Unauthorized("unknown session subject")
	}
	return subject, nil
}

// SecureCookies reports whether the session cookie must be Secure.
func (s *AuthService) SecureCookies() bool {
	cfg, err := s.settings()
	return err == nil && cfg.IsProduction()
}

// tokenService builds the signer for cfg. Without SESSION_SECRET the key is
// derived from ADMIN_PASSWORD, so changing the password also ends every
// existing session.
func tokenService(cfg *config.Config) (*auth.TokenService, error) {
	secret := cfg.SessionSecret
	if secret == "" {
		if cfg.AdminPassword == "" {
			return nil, apperror.MissingConfig("ADMIN_PASSWORD")
		}
		sum := sha256.Sum256([]byte("portfolio-session:" + cfg.AdminPassword))
		secret = hex.EncodeToString(sum[:])
	}

	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		return nil, &apperror.AppError{
			Err:     apperror.ErrConfig,
			Message: "SESSION_SECRET must be at least 16 characters",
			Field:   "SESSION_SECRET",
		}
	}
	return tokens, nil
}
