package product

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Roger-dornelles/pizzeria-project/internal/apperror"
	"github.com/Roger-dornelles/pizzeria-project/internal/upload"
	"github.com/Roger-dornelles/pizzeria-project/internal/validation"
)

// Folder is where product images are stored.
const Folder = "products"

const (
	msgCreateForbidden = "Usuario sem permissão para adicionar um produto"
	msgForbidden       = "Usuario sem permissão."
	msgNotOwner        = "Usuario sem permissão para alterar este produto"
	msgNameTaken       = "Produto já cadastrado com este nome"
	msgBadValue        = "Ocorreu um erro no valor do produto"
	msgNoID            = "Produto não encontrado"
	msgNotFound        = "Produto não encontrado."
	msgNotRegistered   = "Produto não cadastrado"
	msgDeleted         = "Produto excluido com sucesso."
)

// Store is the persistence the product service depends on.
type Store interface {
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, p *Product) (*Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	ListByUser(ctx context.Context, userID int64) ([]Product, error)
	Delete(ctx context.Context, id, userID int64) (*Product, error)
}

// Uploader stores and discards product images.
type Uploader interface {
	UploadFiles(ctx context.Context, files []upload.File, folder string) ([]upload.UploadedFile, error)
	Discard(ctx context.Context, files []upload.UploadedFile)
}

// CreateProductInput is the payload for a new product. UserID is the owner's id in decimal form.
type CreateProductInput struct {
	UserID      string `json:"userId"             validate:"-"`
	Name        string `json:"nameProduct"        validate:"max=100"`
	Description string `json:"descriptionProduct" validate:"max=200"`
	Value       string `json:"valueProduct"       validate:"max=30"`
}

// UpdateProductInput carries the fields to change; nil fields are left untouched.
type UpdateProductInput struct {
	Name        *string `json:"nameProduct,omitempty"        validate:"omitnil,min=1,max=100"`
	Description *string `json:"descriptionProduct,omitempty" validate:"omitnil,min=1,max=200"`
	Value       *string `json:"valueProduct,omitempty"       validate:"omitnil,min=1,max=30"`
}

// Service contains business logic for products.
type Service struct {
	store    Store
	uploader Uploader
}

// NewService creates a new product Service.
func NewService(store Store, uploader Uploader) *Service {
	return &Service{store: store, uploader: uploader}
}

// Create stores the product images and then the product itself. Images are
// removed again when the product cannot be saved.
func (s *Service) Create(ctx context.Context, in CreateProductInput, files []upload.File) (*Product, error) {
	userID, err := strconv.ParseInt(strings.TrimSpace(in.UserID), 10, 64)
	if err != nil || userID <= 0 {
		return nil, apperror.NewUnauthorized(msgCreateForbidden)
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := checkCreateInput(in); err != nil {
		return nil, err
	}

	exists, err := s.store.ExistsByName(ctx, in.Name)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict(msgNameTaken)
	}

	value, err := FormatBRL(in.Value)
	if err != nil {
		return nil, apperror.NewDataError(msgBadValue)
	}

	if files == nil {
		files = []upload.File{}
	}
	uploaded, err := s.uploader.UploadFiles(ctx, files, Folder)
	if err != nil {
		return nil, err
	}

	p, err := s.store.Create(ctx, &Product{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Value:       value,
		Files:       uploaded,
	})
	if err != nil {
		s.uploader.Discard(ctx, uploaded)
		if errors.Is(err, ErrAlreadyExists) {
			return nil, apperror.NewConflict(msgNameTaken)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func checkCreateInput(in CreateProductInput) error {
	switch {
	case in.Name == "":
		return apperror.NewInvalidInput("Nome do produto é Obrigatorio.")
	case in.Description == "":
		return apperror.NewInvalidInput("Produto deve conter uma Descrição.")
	case strings.TrimSpace(in.Value) == "":
		return apperror.NewInvalidInput("Valor obrigatorio")
	}
	return validation.Struct(in)
}

// Update applies the non-nil fields of in to product id, which callerID must own.
// The stored value is re-normalized whether or not it changed.
func (s *Service) Update(ctx context.Context, id int64, in UpdateProductInput, callerID int64) (*Product, error) {
	if callerID <= 0 {
		return nil, apperror.NewUnauthorized(msgForbidden)
	}
	if id <= 0 {
		return nil, apperror.NewNotFound(msgNoID)
	}
	in.Name = trimmed(in.Name)
	in.Description = trimmed(in.Description)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	p, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperror.NewNotFound(msgNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	if p.UserID != callerID {
		return nil, apperror.NewUnauthorized(msgNotOwner)
	}

	if in.Name != nil {
		name := *in.Name
		if name != p.Name {
			exists, err := s.store.ExistsByName(ctx, name)
			if err != nil {
				return nil, fmt.Errorf("update product: %w", err)
			}
			if exists {
				return nil, apperror.NewConflict(msgNameTaken)
			}
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Value != nil {
		p.Value = *in.Value
	}

	p.Value, err = FormatBRL(p.Value)
	if err != nil {
		return nil, apperror.NewDataError(msgBadValue)
	}

	updated, err := s.store.Update(ctx, p)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, apperror.NewNotFound(msgNotFound)
	case errors.Is(err, ErrAlreadyExists):
		return nil, apperror.NewConflict(msgNameTaken)
	case err != nil:
		return nil, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// ListForUser returns the products owned by userID.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Product, error) {
	products, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Delete removes product id if callerID owns it, then its stored images.
func (s *Service) Delete(ctx context.Context, id, callerID int64) (string, error) {
	if id <= 0 {
		return "", apperror.NewNotFound(msgNoID)
	}
	if callerID <= 0 {
		return "", apperror.NewUnauthorized(msgForbidden)
	}

	p, err := s.store.Delete(ctx, id, callerID)
	if errors.Is(err, ErrNotFound) {
		return "", apperror.NewNotFound(msgNotRegistered)
	}
	if err != nil {
		return "", fmt.Errorf("delete product: %w", err)
	}

	s.uploader.Discard(ctx, p.Files)
	return msgDeleted, nil
}
