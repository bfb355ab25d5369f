package auth

import "errors"

// Scheme names under which validators are registered.
const (
	SchemeAPIKey = "api_key"
	SchemeJWT    = "jwt"
)

// ErrInvalidCredentials is returned for any rejected key or token. Callers
// must not learn which part of the credential was wrong.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Principal identifies an authenticated caller.
type Principal struct {
	// Subject is the JWT subject; empty for API-key callers.
	Subject string `json:"subject,omitempty"`
	Scheme  string `json:"scheme"`
}

// TokenValidator validates a presented credential and returns the caller.
type TokenValidator interface {
	ValidateToken(token string) (*Principal, error)
}

// TokenValidatorFunc adapts an ordinary function to TokenValidator.
type TokenValidatorFunc func(token string) (*Principal, error)

// ValidateToken implements TokenValidator.
func (f TokenValidatorFunc) ValidateToken(token string) (*Principal, error) {
	return f(token)
}
