package http

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/session"
)

type SessionHandler struct {
	timeout     time.Duration
	sessionWait time.Duration
}

func NewSessionHandler(timeout, sessionWait time.Duration) *SessionHandler {
	return &SessionHandler{timeout: timeout, sessionWait: sessionWait}
}

type CredentialsDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Status    domain.SessionStatus `json:"status"`
	Principal *domain.Principal    `json:"principal,omitempty"`
	Redirect  string               `json:"redirect,omitempty"`
}

func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	app := appFromContext(r.Context())
	snap := awaitSession(r.Context(), app.Session, h.sessionWait)
	respondJSON(w, http.StatusOK, SessionResponse{Status: snap.Status, Principal: snap.Principal})
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, (*session.Manager).Login, http.StatusOK)
}

func (h *SessionHandler) Signup(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, (*session.Manager).Signup, http.StatusCreated)
}

func (h *SessionHandler) authenticate(
	w http.ResponseWriter,
	r *http.Request,
	action func(*session.Manager, context.Context, domain.Credentials) error,
	okStatus int) {

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	app := appFromContext(ctx)

	var req CredentialsDTO
	if err := decodeValidated(r, credentialsSchema, &req); err != nil {
		handleError(w, r, err)
		return
	}

	if err := action(app.Session, ctx, domain.Credentials{Email: req.Email, Password: req.Password}); err != nil {
		handleError(w, r, err)
		return
	}

	snap := app.Session.Snapshot()
	respondJSON(w, okStatus, SessionResponse{
		Status:    snap.Status,
		Principal: snap.Principal,
		Redirect:  safeRedirect(r.URL.Query().Get("redirect")),
	})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	app := appFromContext(ctx)

	view, err := app.Session.Logout(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, SessionResponse{Status: app.Session.Snapshot().Status, Redirect: view})
}

// awaitSession gives an unresolved session up to wait to settle.
func awaitSession(ctx context.Context, m *session.Manager, wait time.Duration) session.Snapshot {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-m.Ready():
	case <-timer.C:
	case <-ctx.Done():
	}
	return m.Snapshot()
}

// requireLogin applies the login gate. It writes the response and returns
// nil unless the visitor is signed in.
func requireLogin(w http.ResponseWriter, r *http.Request, m *session.Manager, wait time.Duration) *domain.Principal {
	snap := awaitSession(r.Context(), m, wait)
	switch session.Gate(snap.Status) {
	case session.Allow:
		return snap.Principal
	case session.Wait:
		w.Header().Set("Retry-After", "1")
		respondJSON(w, http.StatusAccepted, SessionResponse{Status: snap.Status})
	default:
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "login required",
			Code:    "login_required",
			Details: "/login?redirect=" + url.QueryEscape(r.URL.Path),
		})
	}
	return nil
}
