package domain

// Principal references an identity owned by the identity provider.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Credentials struct {
	Email    string
	Password string
}

type SessionStatus string

const (
	SessionAnonymous      SessionStatus = "ANONYMOUS"
	SessionAuthenticating SessionStatus = "AUTHENTICATING"
	SessionAuthenticated  SessionStatus = "AUTHENTICATED"
)

// String representation (for logging)
func (s SessionStatus) String() string {
	return string(s)
}
