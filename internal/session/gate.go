package session

import "github.com/fjod/storefront/internal/domain"

type Decision int

const (
	// Wait means the session is still resolving: show neither protected
	// content nor a login redirect.
	Wait Decision = iota
	RedirectToLogin
	Allow
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "WAIT"
	case RedirectToLogin:
		return "REDIRECT_TO_LOGIN"
	case Allow:
		return "ALLOW"
	default:
		return "UNKNOWN"
	}
}

// Gate decides what a login-only view does for status.
func Gate(status domain.SessionStatus) Decision {
	switch status {
	case domain.SessionAuthenticated:
		return Allow
	case domain.SessionAnonymous:
		return RedirectToLogin
	default:
		return Wait
	}
}
