package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Roger-dornelles/pizzeria-project/internal/apperror"
	"github.com/Roger-dornelles/pizzeria-project/internal/response"
)

// FormField is the multipart field that carries files.
const FormField = "files"

// publicFolder is where files sent to /upload/multiple are stored.
const publicFolder = "public"

// Limits bounds what a single multipart request may carry.
type Limits struct {
	MaxFiles    int
	MaxFileSize int64
}

// Handler holds HTTP handlers for upload endpoints.
type Handler struct {
	svc    *Service
	limits Limits
}

// NewHandler creates a new upload Handler.
func NewHandler(svc *Service, limits Limits) *Handler {
	return &Handler{svc: svc, limits: limits}
}

type uploadData struct {
	Message string         `json:"message" example:"Uploads de imagens realizados com sucesso!"`
	Files   []UploadedFile `json:"files"`
}

type deleteRequest struct {
	Path string `json:"path" example:"public/3f1c2b9e-8a4d-4c1e-9b7a-2d5f6e7a8b9c.png"`
}

// UploadMultiple godoc
//
//	@Summary		Upload images
//	@Description	Store up to UPLOAD_MAX_FILES images in the public folder and return their URLs.
//	@Tags			upload
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			files	formData	file	true	"Image files"
//	@Success		201		{object}	response.Envelope{data=uploadData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		422		{object}	response.Envelope
//	@Router			/upload/multiple [post]
func (h *Handler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	files, err := ReadFiles(w, r, h.limits)
	if err != nil {
		response.Err(w, err)
		return
	}
	if len(files) == 0 {
		response.BadRequest(w, "Nenhuma imagem selecionada")
		return
	}

	uploaded, err := h.svc.UploadFiles(r.Context(), files, publicFolder)
	if err != nil {
		response.Err(w, err)
		return
	}

	response.Created(w, uploadData{Message: "Uploads de imagens realizados com sucesso!", Files: uploaded})
}

// Delete godoc
//
//	@Summary		Delete an image
//	@Description	Remove a stored object by its path.
//	@Tags			upload
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		deleteRequest	true	"Object path"
//	@Success		200		{object}	response.Envelope{data=response.Message}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		422		{object}	response.Envelope
//	@Router			/upload [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.svc.DeleteFile(r.Context(), req.Path); err != nil {
		response.Err(w, err)
		return
	}

	response.OK(w, response.Message{Message: "Imagem deletada com sucesso!"})
}

// ReadFiles parses a multipart request and loads the image files in FormField.
// It returns nil when the request carries no files and an InvalidInput error when
// a file breaks the limits or is not an image.
func ReadFiles(w http.ResponseWriter, r *http.Request, limits Limits) ([]File, error) {
	maxBody := int64(limits.MaxFiles)*limits.MaxFileSize + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.NewInvalidInput("Arquivos excedem o tamanho permitido")
		}
		return nil, apperror.NewInvalidInput("Formulário multipart inválido")
	}

	headers := r.MultipartForm.File[FormField]
	if headers == nil {
		return nil, nil
	}
	if len(headers) > limits.MaxFiles {
		return nil, apperror.NewInvalidInput(fmt.Sprintf("Envie no máximo %d imagens", limits.MaxFiles))
	}

	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > limits.MaxFileSize {
			return nil, apperror.NewInvalidInput(fmt.Sprintf("Imagem %s excede o tamanho máximo", fh.Filename))
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}

		mtype := mimetype.Detect(data)
		if !strings.HasPrefix(mtype.String(), "image/") {
			return nil, apperror.NewInvalidInput(fmt.Sprintf("Arquivo %s não é uma imagem", fh.Filename))
		}

		files = append(files, File{Name: fh.Filename, ContentType: mtype.String(), Data: data})
	}
	return files, nil
}
