package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Roger-dornelles/pizzeria-project/internal/apperror"
	"github.com/Roger-dornelles/pizzeria-project/internal/config"
)

// CredentialStore is the persistence the auth service depends on.
type CredentialStore interface {
	FindCredentials(ctx context.Context, email string) (*Credentials, error)
}

// Principal is an authenticated identity.
type Principal struct {
	ID    int64  `json:"id" example:"1"`
	Email string `json:"email" example:"ana@mail.com"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User        Principal `json:"user"`
	AccessToken string    `json:"accessToken" example:"eyJhbGci..."`
}

// Service contains the business logic for password authentication.
type Service struct {
	store CredentialStore
	cfg   *config.Config
}

// NewService creates a new auth Service.
func NewService(store CredentialStore, cfg *config.Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// ValidateCredentials checks email and password against the stored bcrypt hash.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (Principal, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Principal{}, apperror.NewInvalidInput("Dados incorretos")
	}

	c, err := s.store.FindCredentials(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Principal{}, apperror.NewUnauthorized("Usuário não autorizado")
	}
	if err != nil {
		return Principal{}, fmt.Errorf("validate credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return Principal{}, apperror.NewUnauthorized("Senha Invalida.")
	}

	return Principal{ID: c.ID, Email: c.Email}, nil
}

// Login validates the credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	p, err := s.ValidateCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := IssueToken(s.cfg.JWTSecret, s.cfg.JWTExpiry, p)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{User: p, AccessToken: token}, nil
}
