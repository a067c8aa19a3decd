// Package auth implements the admin password gate. There is one shared
// password per deployment, injected from configuration and never sent to
// the browser.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
)

// Gate checks candidate passwords against the configured admin password.
type Gate struct {
	digest [sha256.Size]byte
	set    bool
}

// NewGate creates a gate. An empty password produces a gate that rejects
// everything.
func NewGate(password string) *Gate {
	if password == "" {
		return &Gate{}
	}
	return &Gate{digest: sha256.Sum256([]byte(password)), set: true}
}

// Check compares in constant time. Hashing first keeps the comparison
// independent of the candidate's length.
func (g *Gate) Check(candidate string) bool {
	if g == nil || !g.set {
		return false
	}
	d := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(d[:], g.digest[:]) == 1
}

// Authorize accepts requests carrying "Authorization: Bearer <password>".
func (g *Gate) Authorize(r *http.Request) error {
	token, ok := BearerToken(r)
	if !ok || !g.Check(token) {
		return apperr.ErrUnauthorized
	}
	return nil
}

// BearerToken extracts the token of a Bearer Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
