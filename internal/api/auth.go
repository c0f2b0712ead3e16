package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized is returned by authenticators that refuse a request
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator decides whether a request may reach protected routes
type Authenticator interface {
	Authenticate(r *http.Request) error
}

// TokenAuthenticator accepts requests carrying a shared token either as
// "Authorization: Bearer <token>" or in the X-API-Key header
type TokenAuthenticator struct {
	token []byte
}

// NewTokenAuthenticator returns nil when token is empty, which disables authentication
func NewTokenAuthenticator(token string) Authenticator {
	if token == "" {
		return nil
	}
	return &TokenAuthenticator{token: []byte(token)}
}

// Authenticate implements Authenticator
func (a *TokenAuthenticator) Authenticate(r *http.Request) error {
	presented := r.Header.Get("X-API-Key")
	if presented == "" {
		if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
			presented = strings.TrimSpace(h[7:])
		}
	}
	if presented == "" || subtle.ConstantTimeCompare([]byte(presented), a.token) != 1 {
		return ErrUnauthorized
	}
	return nil
}
