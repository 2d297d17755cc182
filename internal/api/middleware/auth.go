package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/upcheckhq/upcheck/internal/auth"
)

const bearerPrefix = "Bearer "

// RequireAuth rejects any request that does not carry a valid bearer token
// issued by the auth service. Applied to the /api/v1 group only; /health,
// /metrics and the token endpoint itself stay open.
func RequireAuth(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				unauthorized(w, "missing bearer token")
				return
			}

			token := strings.TrimPrefix(header, bearerPrefix)
			if _, err := svc.VerifyToken(token); err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
