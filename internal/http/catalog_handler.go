package http

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	timeout time.Duration
}

func NewCatalogHandler(timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{timeout: timeout}
}

type DescribeRequestDTO struct {
	Name     string          `json:"name"`
	Category domain.Category `json:"category"`
}

type DescribeResponseDTO struct {
	Description string `json:"description"`
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	app := appFromContext(r.Context())
	respondJSON(w, http.StatusOK, app.Catalog.Store().List())
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	app := appFromContext(r.Context())
	p, err := app.Catalog.Product(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, domain.Categories)
}

func (h *CatalogHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "category")
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}
	category := domain.Category(name)
	if !category.Valid() {
		respondError(w, http.StatusNotFound, "not_found", "unknown category")
		return
	}
	app := appFromContext(r.Context())
	respondJSON(w, http.StatusOK, app.Catalog.Store().ByCategory(category))
}

func (h *CatalogHandler) Describe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	app := appFromContext(ctx)

	var req DescribeRequestDTO
	if err := decodeValidated(r, describeSchema, &req); err != nil {
		handleError(w, r, err)
		return
	}

	text, err := app.Describer.Describe(ctx, req.Name, req.Category)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, DescribeResponseDTO{Description: text})
}
