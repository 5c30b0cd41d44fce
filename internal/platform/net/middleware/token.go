package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perr "beesync/internal/platform/errors"
)

// BearerToken rejects requests whose Authorization header does not carry token
// An empty token disables the check, for local use
// write renders the rejection; callers pass their envelope writer
func BearerToken(token string, write func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte(token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
				write(w, r, perr.New(perr.ErrorCodeUnauthorized, "missing or invalid bearer token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
