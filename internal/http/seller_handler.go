package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type SellerHandler struct {
	timeout     time.Duration
	sessionWait time.Duration
}

func NewSellerHandler(timeout, sessionWait time.Duration) *SellerHandler {
	return &SellerHandler{timeout: timeout, sessionWait: sessionWait}
}

func (h *SellerHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	app := appFromContext(ctx)

	if requireLogin(w, r, app.Session, h.sessionWait) == nil {
		return
	}
	if err := app.Orders.Refresh(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, app.Orders.ListOrders())
}

func (h *SellerHandler) ToggleShipped(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	app := appFromContext(ctx)

	if requireLogin(w, r, app.Session, h.sessionWait) == nil {
		return
	}
	if err := app.Orders.ToggleOrderShipped(ctx, chi.URLParam(r, "order_id")); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, app.Orders.ListOrders())
}

func (h *SellerHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	app := appFromContext(ctx)

	if requireLogin(w, r, app.Session, h.sessionWait) == nil {
		return
	}

	sub, err := parseSubmission(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	product, err := app.Catalog.AddProduct(ctx, app.Session, sub)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// parseSubmission reads the seller form. Field rules live in
// catalog.Submission.Validate; this only reports what cannot be parsed.
func parseSubmission(r *http.Request) (catalog.Submission, error) {
	if err := r.ParseMultipartForm(catalog.MaxImageSize + 1<<20); err != nil {
		return catalog.Submission{}, fmt.Errorf("%w: %v", errInvalidForm, err)
	}

	sub := catalog.Submission{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Category:    domain.Category(r.FormValue("category")),
	}

	verr := &domain.ValidationError{}
	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil {
		verr.Add("price", "Price must be a positive number.")
	}
	sub.Price = price

	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		verr.Add("image", "Image is required.")
	case err != nil:
		return catalog.Submission{}, fmt.Errorf("%w: %v", errInvalidForm, err)
	default:
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, catalog.MaxImageSize+1))
		if err != nil {
			return catalog.Submission{}, fmt.Errorf("read image: %w", err)
		}
		sub.Image = catalog.Image{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	if err := verr.Err(); err != nil {
		return catalog.Submission{}, err
	}
	return sub, nil
}
