// Package product manages the products users sell and their image files.
package product

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

// Product is an item offered by a user.
type Product struct {
	ID          int64                 `json:"id"                 example:"1"`
	UserID      int64                 `json:"userId"             example:"1"`
	Name        string                `json:"nameProduct"        example:"Pizza Margherita"`
	Description string                `json:"descriptionProduct" example:"Molho de tomate, mussarela e manjericão"`
	Value       string                `json:"valueProduct"       example:"R$ 45,00"`
	Files       []upload.UploadedFile `json:"files"`
	CreatedAt   time.Time             `json:"createdAt"          example:"2026-02-27T14:48:34Z"`
}

// ErrNotFound is returned when a product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrAlreadyExists is returned when a product name is already taken.
var ErrAlreadyExists = errors.New("product already exists")

// Repository handles all product database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const productColumns = `id, user_id, name, description, value, files, created_at`

func scanProduct(row pgx.Row) (*Product, error) {
	p := &Product{}
	var files []byte
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.Value, &files, &p.CreatedAt); err != nil {
		return nil, err
	}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &p.Files); err != nil {
			return nil, fmt.Errorf("decode files of product %d: %w", p.ID, err)
		}
	}
	return p, nil
}

func encodeFiles(files []upload.UploadedFile) ([]byte, error) {
	if files == nil {
		return nil, nil
	}
	return json.Marshal(files)
}

// ExistsByName reports whether a product called name exists.
func (r *Repository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE name = $1)`,
		name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check product name: %w", err)
	}
	return exists, nil
}

// Create inserts p and returns the stored record.
func (r *Repository) Create(ctx context.Context, p *Product) (*Product, error) {
	files, err := encodeFiles(p.Files)
	if err != nil {
		return nil, fmt.Errorf("encode files: %w", err)
	}

	created, err := scanProduct(r.db.QueryRow(ctx,
		`INSERT INTO products (user_id, name, description, value, files)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+productColumns,
		p.UserID, p.Name, p.Description, p.Value, files,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// GetByID fetches a product by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

// Update overwrites the editable columns of p.
func (r *Repository) Update(ctx context.Context, p *Product) (*Product, error) {
	updated, err := scanProduct(r.db.QueryRow(ctx,
		`UPDATE products SET name = $2, description = $3, value = $4
		 WHERE id = $1
		 RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Value,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

// ListByUser returns the products owned by userID ordered by id.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE user_id = $1 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Delete removes the product id owned by userID and returns the removed record.
// It returns ErrNotFound when no such row exists.
func (r *Repository) Delete(ctx context.Context, id, userID int64) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx,
		`DELETE FROM products WHERE id = $1 AND user_id = $2
		 RETURNING `+productColumns,
		id, userID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}
	return p, nil
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
