package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

type ProfileHandler struct {
	timeout     time.Duration
	sessionWait time.Duration
}

func NewProfileHandler(timeout, sessionWait time.Duration) *ProfileHandler {
	return &ProfileHandler{timeout: timeout, sessionWait: sessionWait}
}

type ProfileResponseDTO struct {
	Principal *domain.Principal `json:"principal"`
	Orders    []domain.Order    `json:"orders"`
	CartCount int               `json:"cart_count"`
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	app := appFromContext(ctx)

	principal := requireLogin(w, r, app.Session, h.sessionWait)
	if principal == nil {
		return
	}
	if err := app.Orders.Refresh(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ProfileResponseDTO{
		Principal: principal,
		Orders:    app.Orders.ListOrdersForPrincipal(principal.ID),
		CartCount: app.Cart.Count(),
	})
}
