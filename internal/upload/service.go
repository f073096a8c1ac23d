// Package upload stores image files in object storage and reports their public URLs.
package upload

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Roger-dornelles/pizzeria-project/internal/apperror"
	"github.com/Roger-dornelles/pizzeria-project/internal/storage"
)

// File is an in-memory file received from a client.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadedFile describes a stored object.
type UploadedFile struct {
	Name string `json:"name" example:"3f1c2b9e-8a4d-4c1e-9b7a-2d5f6e7a8b9c.png"`
	Path string `json:"path" example:"products/3f1c2b9e-8a4d-4c1e-9b7a-2d5f6e7a8b9c.png"`
	URL  string `json:"url"  example:"http://localhost:9000/uploads/products/3f1c2b9e-8a4d-4c1e-9b7a-2d5f6e7a8b9c.png"`
}

// Service uploads and deletes files in a single bucket.
type Service struct {
	store  storage.Storage
	bucket string
}

// NewService creates a new upload Service writing to bucket.
func NewService(store storage.Storage, bucket string) *Service {
	return &Service{store: store, bucket: bucket}
}

// UploadFiles stores every file under folder in parallel and returns them in input order.
// A nil slice means no files were sent at all. If any upload fails the files already
// stored by this call are removed before the error is returned.
func (s *Service) UploadFiles(ctx context.Context, files []File, folder string) ([]UploadedFile, error) {
	if files == nil {
		return nil, apperror.NewNotFound("Selecione uma ou mais imagem")
	}

	uploaded := make([]UploadedFile, len(files))
	stored := make([]bool, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			name := objectName(f.Name, f.ContentType)
			path := name
			if folder != "" {
				path = folder + "/" + name
			}

			if err := s.store.Upload(gctx, s.bucket, path, f.Data, f.ContentType); err != nil {
				return err
			}

			uploaded[i] = UploadedFile{Name: name, Path: path, URL: s.store.PublicURL(s.bucket, path)}
			stored[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var orphans []string
		for i, ok := range stored {
			if ok {
				orphans = append(orphans, uploaded[i].Path)
			}
		}
		s.discard(ctx, orphans)
		return nil, apperror.Wrap(apperror.DataError, "Erro no upload", err)
	}

	return uploaded, nil
}

// DeleteFile removes the object at path.
func (s *Service) DeleteFile(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return apperror.NewInvalidInput("path é obrigatório")
	}
	return s.DeleteFiles(ctx, []string{path})
}

// DeleteFiles removes every object in paths.
func (s *Service) DeleteFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := s.store.Remove(ctx, s.bucket, paths); err != nil {
		return apperror.Wrap(apperror.DataError, "Erro ao deletar", err)
	}
	return nil
}

// Discard removes files that were stored but never referenced. Failures are
// logged and otherwise ignored; the caller is already reporting an error.
func (s *Service) Discard(ctx context.Context, files []UploadedFile) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	s.discard(ctx, paths)
}

func (s *Service) discard(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	if err := s.DeleteFiles(context.WithoutCancel(ctx), paths); err != nil {
		slog.Warn("upload: failed to remove orphaned files", "paths", paths, "error", err)
		return
	}
	slog.Info("upload: removed orphaned files", "count", len(paths))
}

// objectName returns "<uuid>.<ext>", taking the extension from the original
// file name or, failing that, from the content type.
func objectName(original, contentType string) string {
	ext := strings.TrimPrefix(filepath.Ext(original), ".")
	if ext == "" {
		if m := mimetype.Lookup(contentType); m != nil {
			ext = strings.TrimPrefix(m.Extension(), ".")
		}
	}

	id := uuid.NewString()
	if ext == "" {
		return id
	}
	return id + "." + ext
}
