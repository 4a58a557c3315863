package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/checkout"
)

type CheckoutHandler struct {
	timeout     time.Duration
	sessionWait time.Duration
}

func NewCheckoutHandler(timeout, sessionWait time.Duration) *CheckoutHandler {
	return &CheckoutHandler{timeout: timeout, sessionWait: sessionWait}
}

func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	app := appFromContext(ctx)

	if requireLogin(w, r, app.Session, h.sessionWait) == nil {
		return
	}

	var form checkout.ContactForm
	if err := decodeValidated(r, contactFormSchema, &form); err != nil {
		handleError(w, r, err)
		return
	}

	order, err := app.Checkout.PlaceOrder(ctx, form)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}
