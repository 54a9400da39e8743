package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/mallrent-backend/api/middleware"
	"github.com/angelmondragon/mallrent-backend/api/responses"
	"github.com/angelmondragon/mallrent-backend/internal/authz"
	"github.com/angelmondragon/mallrent-backend/internal/profiles"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
)

type sessionResponse struct {
	PrincipalID  uuid.UUID          `json:"usuario_id"`
	Email        string             `json:"email"`
	Profile      *profiles.Profile  `json:"perfil"`
	View         authz.View         `json:"vista"`
	Capabilities []authz.Capability `json:"capacidades"`
}

// SessionCurrent describes the signed-in user: profile, resolved view and capabilities.
func SessionCurrent(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		profile := middleware.ProfileFromContext(ctx)
		if profile == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeProfileMissing, "profile not loaded"))
			return
		}
		view := middleware.ViewFromContext(ctx)
		responses.WriteSuccess(w, sessionResponse{
			PrincipalID:  middleware.PrincipalIDFromContext(ctx),
			Email:        middleware.EmailFromContext(ctx),
			Profile:      profile,
			View:         view,
			Capabilities: authz.Capabilities(view),
		})
	}
}
