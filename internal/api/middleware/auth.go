package middleware

import (
	"context"
	"net/http"
	"strings"

	"otaku_hub/internal/common"
	"otaku_hub/internal/domain/model"
)

type contextKey string

const IdentityCtxKey contextKey = "identity"

const (
	MsgTokenRequired = "Authorization token is required."
	bearerPrefix     = "Bearer "
)

// TokenVerifier is satisfied by security.TokenManager.
type TokenVerifier interface {
	ParseToken(ctx context.Context, tokenString string) (model.Identity, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's identity in the request context.
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				common.RespondWithError(w, http.StatusUnauthorized, MsgTokenRequired)
				return
			}

			identity, err := tokens.ParseToken(r.Context(), strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				common.RespondWithAppError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityCtxKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Helper to get the authenticated identity from context
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(IdentityCtxKey).(model.Identity)
	return identity, ok
}
