package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKey enforces a shared-secret x-api-key header. A missing header is 401,
// a wrong key is 403, so callers can tell misconfiguration from a bad secret.
// An empty expected key disables authentication entirely.
func APIKey(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				next.ServeHTTP(w, r)
				return
			}
			provided := r.Header.Get("X-Api-Key")
			if provided == "" {
				writeAuthError(w, http.StatusUnauthorized, "API key required")
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
				writeAuthError(w, http.StatusForbidden, "Invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"status":"error","error":"` + message + `"}`))
}
