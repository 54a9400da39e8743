package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/mallrent-backend/api/middleware"
	"github.com/angelmondragon/mallrent-backend/api/responses"
	"github.com/angelmondragon/mallrent-backend/api/validators"
	"github.com/angelmondragon/mallrent-backend/internal/dashboards"
	"github.com/angelmondragon/mallrent-backend/internal/inquiries"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
)

const maxSearchLen = 100

type unitCatalog interface {
	Catalog(ctx context.Context) (*dashboards.Catalog, error)
}

type inquirySubmitter interface {
	Submit(ctx context.Context, input inquiries.SubmitInput) (*inquiries.Item, error)
}

type catalogResponse struct {
	Units    []dashboards.CatalogUnit `json:"locales"`
	Total    int                      `json:"total"`
	Degraded []string                 `json:"degraded,omitempty"`
}

// VisitorUnits lists available units filtered by ?q= (code or mall name) and ?type=.
func VisitorUnits(catalog unitCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := dashboards.Filter{
			Search: validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLen),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			unitType, err := enums.ParseUnitType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit type").WithDetails(map[string]any{"field": "type"}))
				return
			}
			filter.Type = unitType
		}

		result, err := catalog.Catalog(r.Context())
		if clientGone(r) {
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		units := filter.Apply(result.Units)
		responses.WriteSuccess(w, catalogResponse{
			Units:    units,
			Total:    len(units),
			Degraded: result.Degraded,
		})
	}
}

// VisitorInquirySubmit records an inquiry about an available unit.
func VisitorInquirySubmit(svc inquirySubmitter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body inquiries.SubmitInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if profile := middleware.ProfileFromContext(r.Context()); profile != nil {
			visitorID := profile.ID
			body.VisitorID = &visitorID
		}
		item, err := svc.Submit(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}
