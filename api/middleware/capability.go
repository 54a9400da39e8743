package middleware

import (
	"net/http"

	"github.com/angelmondragon/mallrent-backend/api/responses"
	"github.com/angelmondragon/mallrent-backend/internal/authz"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
)

// RequireCapability admits requests whose resolved view grants capability.
// Must run after Profile.
func RequireCapability(capability authz.Capability, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			view := ViewFromContext(r.Context())
			if view == authz.ViewPermissionError {
				err := pkgerrors.New(pkgerrors.CodePermissionView, "your role has no assigned view").
					WithDetails(map[string]any{"view": string(view)})
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if !authz.Allows(view, capability) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role not allowed"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
