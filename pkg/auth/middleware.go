package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/lrstanley/chix"
)

type contextKey struct{}

// Middleware rejects requests without a valid "Authorization: Bearer" token
// and stores the claims in the request context.
func Middleware(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, token, found := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				chix.JSON(w, r, http.StatusUnauthorized, chix.M{"error": "missing bearer token"})
				return
			}

			claims, err := issuer.Parse(token)
			if err != nil {
				chix.JSON(w, r, http.StatusUnauthorized, chix.M{"error": "invalid or expired token"})
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, claims)))
		})
	}
}

// ClaimsFromContext returns the claims stored by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok
}
