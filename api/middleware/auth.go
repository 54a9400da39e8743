package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/mallrent-backend/api/responses"
	pkgAuth "github.com/angelmondragon/mallrent-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
)

type tokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (*pkgAuth.AccessTokenClaims, error)
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	token := raw
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return token, nil
}

// Auth verifies the bearer token against the identity provider and seeds the
// request context with the principal.
func Auth(verifier tokenVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "identity provider unavailable"))
				return
			}
			token, err := BearerToken(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if claims.AccessID() == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			ctx := WithPrincipal(r.Context(), claims.PrincipalID, claims.AccessID())
			ctx = context.WithValue(ctx, ctxEmail, claims.Email)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.PrincipalID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
