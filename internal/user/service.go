package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Roger-dornelles/pizzeria-project/internal/apperror"
	"github.com/Roger-dornelles/pizzeria-project/internal/upload"
	"github.com/Roger-dornelles/pizzeria-project/internal/validation"
)

const (
	msgEmailTaken = "Email já cadastrado."
	msgNotFound   = "Usuario não cadastrado."
	msgDeleted    = "Usuario excluido com sucesso."
)

// Store is the persistence the user service depends on.
type Store interface {
	Create(ctx context.Context, name, email, passwordHash string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, u *User) (*User, error)
	// Delete removes the user and their products, returning the images those products referenced.
	Delete(ctx context.Context, id int64) ([]upload.UploadedFile, error)
}

// ImageDiscarder removes stored images no product refers to anymore.
type ImageDiscarder interface {
	Discard(ctx context.Context, files []upload.UploadedFile)
}

// CreateUserInput is the registration payload.
type CreateUserInput struct {
	Name     string `json:"name"     validate:"required,max=120"       example:"Ana Souza"`
	Email    string `json:"email"    validate:"required,email,max=255" example:"ana@mail.com"`
	Password string `json:"password" validate:"required,min=6,max=72"  example:"secret123"`
}

// UpdateUserInput carries the fields to change; nil fields are left untouched.
type UpdateUserInput struct {
	Name     *string `json:"name,omitempty"     validate:"omitnil,min=1,max=120"`
	Email    *string `json:"email,omitempty"    validate:"omitnil,email,max=255"`
	Password *string `json:"password,omitempty" validate:"omitnil,min=6,max=72"`
}

// Service contains business logic for user management.
type Service struct {
	store  Store
	images ImageDiscarder
	cost   int
}

// NewService creates a new user Service.
func NewService(store Store, images ImageDiscarder) *Service {
	return &Service{store: store, images: images, cost: bcrypt.DefaultCost}
}

// Create registers a new account with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, in CreateUserInput) (*User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	exists, err := s.store.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict(msgEmailTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.store.Create(ctx, in.Name, in.Email, string(hash))
	if errors.Is(err, ErrAlreadyExists) {
		return nil, apperror.NewConflict(msgEmailTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByID returns a user by id.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperror.NewNotFound(msgNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Update applies the non-nil fields of in to the user with id.
func (s *Service) Update(ctx context.Context, id int64, in UpdateUserInput) (*User, error) {
	in.Name = trimmed(in.Name)
	in.Email = trimmed(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil && *in.Email != u.Email {
		exists, err := s.store.EmailExists(ctx, *in.Email)
		if err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		if exists {
			return nil, apperror.NewConflict(msgEmailTaken)
		}
		u.Email = *in.Email
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.cost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	updated, err := s.store.Update(ctx, u)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, apperror.NewNotFound(msgNotFound)
	case errors.Is(err, ErrAlreadyExists):
		return nil, apperror.NewConflict(msgEmailTaken)
	case err != nil:
		return nil, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

// trimmed returns a trimmed copy of *s so the caller's value is left as is.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// Delete removes the user with id, their products and the products' images,
// and returns a confirmation message.
func (s *Service) Delete(ctx context.Context, id int64) (string, error) {
	files, err := s.store.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", apperror.NewNotFound(msgNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("delete user: %w", err)
	}

	s.images.Discard(ctx, files)
	return msgDeleted, nil
}
