package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/mallrent-backend/api/middleware"
	"github.com/angelmondragon/mallrent-backend/api/responses"
	"github.com/angelmondragon/mallrent-backend/internal/dashboards"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
)

type ownerDashboard interface {
	Dashboard(ctx context.Context, ownerID uuid.UUID) (*dashboards.OwnerDashboard, error)
}

// OwnerDashboard shows the signed-in owner's active contract and payment history.
func OwnerDashboard(agg ownerDashboard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := middleware.ProfileFromContext(r.Context())
		if profile == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeProfileMissing, "profile not loaded"))
			return
		}
		dashboard, err := agg.Dashboard(r.Context(), profile.ID)
		if clientGone(r) {
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}
