package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CartHandler struct {
	timeout time.Duration
}

func NewCartHandler(timeout time.Duration) *CartHandler {
	return &CartHandler{timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CartResponseDTO struct {
	Items []domain.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

func cartResponse(c *cart.Engine) CartResponseDTO {
	items := c.Items()
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return CartResponseDTO{Items: items, Total: domain.CartTotal(items), Count: count}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	app := appFromContext(r.Context())
	respondJSON(w, http.StatusOK, cartResponse(app.Cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	app := appFromContext(ctx)

	var req AddItemRequestDTO
	if err := decodeValidated(r, addItemSchema, &req); err != nil {
		handleError(w, r, err)
		return
	}

	product, err := app.Catalog.Product(req.ProductID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := app.Cart.AddToCart(ctx, product, req.Quantity); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, cartResponse(app.Cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	app := appFromContext(ctx)

	if err := app.Cart.RemoveFromCart(ctx, chi.URLParam(r, "product_id")); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(app.Cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	app := appFromContext(ctx)

	if err := app.Cart.ClearCart(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(app.Cart))
}
