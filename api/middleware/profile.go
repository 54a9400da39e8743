package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/mallrent-backend/api/responses"
	"github.com/angelmondragon/mallrent-backend/internal/profiles"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
)

type sessionRevoker interface {
	SignOut(ctx context.Context, accessID string) error
}

// Profile loads the profile of the authenticated principal. A principal
// without a profile has its session revoked and receives PROFILE_MISSING.
func Profile(loader *profiles.Loader, revoker sessionRevoker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if loader == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "profile loader unavailable"))
				return
			}

			accessID := AccessIDFromContext(ctx)
			scoped := loader
			if revoker != nil {
				scoped = loader.WithSignOuter(profiles.SignOutFunc(func(ctx context.Context) error {
					return revoker.SignOut(context.WithoutCancel(ctx), accessID)
				}))
			}

			profile, err := scoped.Load(ctx, PrincipalIDFromContext(ctx))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = WithProfile(ctx, profile)
			if logg != nil {
				ctx = logg.WithActorRole(ctx, profile.RoleName)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
