package product

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Roger-dornelles/pizzeria-project/internal/middleware"
	"github.com/Roger-dornelles/pizzeria-project/internal/response"
	"github.com/Roger-dornelles/pizzeria-project/internal/upload"
)

// Handler holds HTTP handlers for product endpoints.
type Handler struct {
	svc    *Service
	limits upload.Limits
}

// NewHandler creates a new product Handler.
func NewHandler(svc *Service, limits upload.Limits) *Handler {
	return &Handler{svc: svc, limits: limits}
}

// Create godoc
//
//	@Summary		Create product
//	@Description	Create a product owned by the caller and store its images.
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			nameProduct			formData	string	true	"Product name"
//	@Param			descriptionProduct	formData	string	true	"Product description"
//	@Param			valueProduct		formData	string	true	"Price, e.g. 45.90"
//	@Param			files				formData	file	false	"Product images"
//	@Success		201					{object}	response.Envelope{data=Product}
//	@Failure		400					{object}	response.Envelope
//	@Failure		401					{object}	response.Envelope
//	@Failure		409					{object}	response.Envelope
//	@Failure		422					{object}	response.Envelope
//	@Router			/products/create [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, msgCreateForbidden)
		return
	}

	files, err := upload.ReadFiles(w, r, h.limits)
	if err != nil {
		response.Err(w, err)
		return
	}

	in := CreateProductInput{
		UserID:      strconv.FormatInt(callerID, 10),
		Name:        r.FormValue("nameProduct"),
		Description: r.FormValue("descriptionProduct"),
		Value:       r.FormValue("valueProduct"),
	}

	p, err := h.svc.Create(r.Context(), in, files)
	if err != nil {
		response.Err(w, err)
		return
	}

	response.Created(w, p)
}

// Update godoc
//
//	@Summary		Update product
//	@Description	Change fields of a product the caller owns. Omitted fields are kept.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int					true	"Product ID"
//	@Param			request	body		UpdateProductInput	true	"Fields to change"
//	@Success		200		{object}	response.Envelope{data=Product}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		422		{object}	response.Envelope
//	@Router			/products/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in UpdateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	callerID, _ := middleware.UserIDFromContext(r.Context())
	p, err := h.svc.Update(r.Context(), id, in, callerID)
	if err != nil {
		response.Err(w, err)
		return
	}

	response.OK(w, p)
}

// List godoc
//
//	@Summary		List my products
//	@Tags			products
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]Product}
//	@Failure		401	{object}	response.Envelope
//	@Router			/products [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, msgForbidden)
		return
	}

	products, err := h.svc.ListForUser(r.Context(), callerID)
	if err != nil {
		response.Err(w, err)
		return
	}

	response.OK(w, products)
}

// Delete godoc
//
//	@Summary		Delete product
//	@Description	Delete a product the caller owns together with its images.
//	@Tags			products
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Product ID"
//	@Success		200	{object}	response.Envelope{data=response.Message}
//	@Failure		400	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/products/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	callerID, _ := middleware.UserIDFromContext(r.Context())
	msg, err := h.svc.Delete(r.Context(), id, callerID)
	if err != nil {
		response.Err(w, err)
		return
	}

	response.OK(w, response.Message{Message: msg})
}

// pathID parses the {id} path parameter. Zero and negative ids are left to the service.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "id inválido")
		return 0, false
	}
	return id, true
}
