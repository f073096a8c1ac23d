// Package user manages user accounts and their persistence.
package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Roger-dornelles/pizzeria-project/internal/upload"
)

// User represents a registered account. PasswordHash never leaves the process as JSON.
type User struct {
	ID           int64     `json:"id"        example:"1"`
	Name         string    `json:"name"      example:"Ana Souza"`
	Email        string    `json:"email"     example:"ana@mail.com"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt" example:"2026-02-27T14:48:34Z"`
}

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// ErrAlreadyExists is returned when an email is already registered.
var ErrAlreadyExists = errors.New("user already exists")

// Repository handles all user database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, name, email, password_hash, created_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// Create inserts a new user and returns the created record.
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		name, email, passwordHash,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// EmailExists reports whether an account with email is registered.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// Update overwrites the mutable columns of u and returns the stored record.
func (r *Repository) Update(ctx context.Context, u *User) (*User, error) {
	updated, err := scanUser(r.db.QueryRow(ctx,
		`UPDATE users SET name = $2, email = $3, password_hash = $4
		 WHERE id = $1
		 RETURNING `+userColumns,
		u.ID, u.Name, u.Email, u.PasswordHash,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

// Delete removes the user with id. Products owned by the user go with the FK
// cascade; the images they referenced are returned so they can be removed from storage.
func (r *Repository) Delete(ctx context.Context, id int64) ([]upload.UploadedFile, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx,
		`SELECT files FROM products WHERE user_id = $1 AND files IS NOT NULL FOR UPDATE`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list user product files: %w", err)
	}
	raw, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("list user product files: %w", err)
	}
	files, err := decodeFiles(raw)
	if err != nil {
		return nil, fmt.Errorf("list user product files: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return files, nil
}

// decodeFiles flattens the JSONB files column of several products.
func decodeFiles(raw [][]byte) ([]upload.UploadedFile, error) {
	var files []upload.UploadedFile
	for _, b := range raw {
		var batch []upload.UploadedFile
		if err := json.Unmarshal(b, &batch); err != nil {
			return nil, err
		}
		files = append(files, batch...)
	}
	return files, nil
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
