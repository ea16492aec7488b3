package middleware

import (
	"context"
	"net/http"

	"github.com/sekolahku/siswa-api/internal/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

// RequireAuth verifies the bearer token on protected routes and stores the
// identity claims in the request context.
func RequireAuth(manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractTokenFromHeader(r.Header.Get("Authorization"))
			if token == "" {
				WriteError(w, http.StatusUnauthorized, "Unauthorized", "Token tidak ditemukan")
				return
			}

			claims, err := manager.VerifyToken(token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Unauthorized", "Token tidak valid")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the verified claims set by RequireAuth, or nil
// on unauthenticated routes.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}
