// Package auth handles password login and access token issuance.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no account matches the given email.
var ErrNotFound = errors.New("credentials not found")

// Credentials is the stored login material for one account.
type Credentials struct {
	ID           int64
	Email        string
	PasswordHash string
}

// Repository reads login credentials from the users table.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new auth Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// FindCredentials returns the id, email and password hash for email.
func (r *Repository) FindCredentials(ctx context.Context, email string) (*Credentials, error) {
	c := &Credentials{}
	err := r.db.QueryRow(ctx,
		`SELECT id, email, password_hash FROM users WHERE email = $1`,
		email,
	).Scan(&c.ID, &c.Email, &c.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find credentials: %w", err)
	}
	return c, nil
}
