package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// TokenAuth guards operator routes with a shared bearer token.
// A zero-value or empty-token TokenAuth lets every request through.
type TokenAuth struct {
	digest  [sha256.Size]byte
	enabled bool
}

// NewTokenAuth creates the guard. An empty token disables it.
func NewTokenAuth(token string) *TokenAuth {
	if token == "" {
		return &TokenAuth{}
	}
	return &TokenAuth{digest: sha256.Sum256([]byte(token)), enabled: true}
}

// Enabled reports whether a token is required
func (a *TokenAuth) Enabled() bool {
	return a.enabled
}

// Valid checks the request's bearer token in constant time
func (a *TokenAuth) Valid(r *http.Request) bool {
	if !a.enabled {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	got := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return subtle.ConstantTimeCompare(got[:], a.digest[:]) == 1
}

// Middleware rejects requests without a valid token
func (a *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Valid(r) {
			RecordConnectionRejected("auth")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer realm="board"`)
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   "unauthorized",
				"message": "Operator token required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
