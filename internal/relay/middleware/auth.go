// Package middleware holds HTTP middleware for the relay's admin
// surface.
package middleware

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// AdminAuth gates a handler behind a bcrypt-compared bearer token. An
// empty tokenHash disables the check entirely (used for local/dev
// relays with no admin surface exposed).
func AdminAuth(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokenHash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
