// internal/web/products.go
//
// Guard-protected product CRUD.
//
// Context
// -------
// Reads are open to any member of the tenant; writes require OWNER or
// ADMIN.  Each handler resolves the tenant-scoped pool through the
// registry and hands it to a catalog.Repo, so no query here can escape
// the tenant's schema.
package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yanizio/stolyo/internal/access"
	"github.com/yanizio/stolyo/internal/catalog"
	"github.com/yanizio/stolyo/internal/directory"
)

var writeRoles = []directory.Role{directory.RoleOwner, directory.RoleAdmin}

type createProductPayload struct {
	Name           string     `json:"name" validate:"required"`
	Description    *string    `json:"description"`
	Slug           *string    `json:"slug"`
	Status         string     `json:"status" validate:"omitempty,oneof=draft active archived"`
	Price          *float64   `json:"price" validate:"required,gte=0"`
	CompareAtPrice *float64   `json:"compareAtPrice" validate:"omitempty,gte=0"`
	SKU            *string    `json:"sku"`
	Currency       string     `json:"currency" validate:"omitempty,len=3"`
	StockQuantity  *int       `json:"stockQuantity" validate:"omitempty,gte=0"`
	CategoryID     *uuid.UUID `json:"categoryId"`
	ImageURL       *string    `json:"imageUrl" validate:"omitempty,url"`
}

type updateProductPayload struct {
	Name           *string    `json:"name" validate:"omitempty,min=1"`
	Description    *string    `json:"description"`
	Slug           *string    `json:"slug"`
	Status         *string    `json:"status" validate:"omitempty,oneof=draft active archived"`
	Price          *float64   `json:"price" validate:"omitempty,gte=0"`
	CompareAtPrice *float64   `json:"compareAtPrice" validate:"omitempty,gte=0"`
	SKU            *string    `json:"sku"`
	Currency       *string    `json:"currency" validate:"omitempty,len=3"`
	StockQuantity  *int       `json:"stockQuantity" validate:"omitempty,gte=0"`
	CategoryID     *uuid.UUID `json:"categoryId"`
	ImageURL       *string    `json:"imageUrl" validate:"omitempty,url"`
}

// repoFor guards the request and binds a catalog repo to the tenant's
// pool.  A nil repo means the response has already been written.
func (h *handlers) repoFor(w http.ResponseWriter, req *http.Request, roles ...directory.Role) (*catalog.Repo, access.Result) {
	res, err := h.d.Guard.Require(req, roles...)
	if err != nil {
		writeInternal(w, req, err)
		return nil, res
	}
	if !res.OK {
		writeGuardDenial(w, res)
		return nil, res
	}
	db, err := h.tenantDB(req, res)
	if err != nil {
		writeInternal(w, req, err)
		return nil, res
	}
	return catalog.NewRepo(db), res
}

func (h *handlers) listProducts(w http.ResponseWriter, req *http.Request) {
	repo, _ := h.repoFor(w, req)
	if repo == nil {
		return
	}

	var status *catalog.Status
	if s := req.URL.Query().Get("status"); s != "" {
		st := catalog.Status(s)
		if !st.Valid() {
			writeError(w, http.StatusBadRequest, catalog.ErrInvalidStatus.Error())
			return
		}
		status = &st
	}

	products, err := repo.List(req.Context(), status)
	if err != nil {
		writeInternal(w, req, err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *handlers) getProduct(w http.ResponseWriter, req *http.Request) {
	repo, _ := h.repoFor(w, req)
	if repo == nil {
		return
	}
	id, ok := productID(w, req)
	if !ok {
		return
	}

	product, err := repo.ByID(req.Context(), id)
	if err != nil {
		writeCatalogError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *handlers) createProduct(w http.ResponseWriter, req *http.Request) {
	repo, _ := h.repoFor(w, req, writeRoles...)
	if repo == nil {
		return
	}

	var payload createProductPayload
	if !decodeBody(w, req, &payload) {
		return
	}
	if !validatePayload(w, payload) {
		return
	}

	params := catalog.CreateProductParams{
		Name:        payload.Name,
		Description: payload.Description,
		Slug:        payload.Slug,
		Status:      catalog.Status(payload.Status),
		Price:       formatPrice(*payload.Price),
		SKU:         payload.SKU,
		Currency:    payload.Currency,
		CategoryID:  payload.CategoryID,
		ImageURL:    payload.ImageURL,
	}
	if payload.CompareAtPrice != nil {
		compare := formatPrice(*payload.CompareAtPrice)
		params.CompareAtPrice = &compare
	}
	if payload.StockQuantity != nil {
		params.StockQuantity = *payload.StockQuantity
	}

	product, err := repo.Create(req.Context(), params)
	if err != nil {
		writeCatalogError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *handlers) updateProduct(w http.ResponseWriter, req *http.Request) {
	repo, _ := h.repoFor(w, req, writeRoles...)
	if repo == nil {
		return
	}
	id, ok := productID(w, req)
	if !ok {
		return
	}

	var payload updateProductPayload
	if !decodeBody(w, req, &payload) {
		return
	}
	if !validatePayload(w, payload) {
		return
	}

	params := catalog.UpdateProductParams{
		Name:          payload.Name,
		Description:   payload.Description,
		Slug:          payload.Slug,
		SKU:           payload.SKU,
		Currency:      payload.Currency,
		StockQuantity: payload.StockQuantity,
		CategoryID:    payload.CategoryID,
		ImageURL:      payload.ImageURL,
	}
	if payload.Status != nil {
		st := catalog.Status(*payload.Status)
		params.Status = &st
	}
	if payload.Price != nil {
		price := formatPrice(*payload.Price)
		params.Price = &price
	}
	if payload.CompareAtPrice != nil {
		compare := formatPrice(*payload.CompareAtPrice)
		params.CompareAtPrice = &compare
	}

	product, err := repo.Update(req.Context(), id, params)
	if err != nil {
		writeCatalogError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *handlers) deleteProduct(w http.ResponseWriter, req *http.Request) {
	repo, _ := h.repoFor(w, req, writeRoles...)
	if repo == nil {
		return
	}
	id, ok := productID(w, req)
	if !ok {
		return
	}

	if err := repo.Delete(req.Context(), id); err != nil {
		writeCatalogError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func productID(w http.ResponseWriter, req *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(req, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed product id")
		return uuid.Nil, false
	}
	return id, true
}

func writeCatalogError(w http.ResponseWriter, req *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, catalog.ErrMissingName), errors.Is(err, catalog.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeInternal(w, req, err)
	}
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
