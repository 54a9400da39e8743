package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/mallrent-backend/api/responses"
	"github.com/angelmondragon/mallrent-backend/api/validators"
	"github.com/angelmondragon/mallrent-backend/internal/contracts"
	"github.com/angelmondragon/mallrent-backend/internal/dashboards"
	"github.com/angelmondragon/mallrent-backend/internal/inquiries"
	"github.com/angelmondragon/mallrent-backend/internal/payments"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
	"github.com/angelmondragon/mallrent-backend/pkg/pagination"
	"github.com/angelmondragon/mallrent-backend/pkg/types"
)

type adminDashboard interface {
	Overview(ctx context.Context) (*dashboards.AdminOverview, error)
	Inquiries(ctx context.Context, status *enums.InquiryStatus, page pagination.Params) (*types.Page[inquiries.Item], error)
}

type inquiryWorkflow interface {
	MarkContacted(ctx context.Context, id uuid.UUID) (*inquiries.Item, error)
	Close(ctx context.Context, id uuid.UUID) (*inquiries.Item, error)
}

type contractManager interface {
	Create(ctx context.Context, input contracts.CreateInput) (*models.Contract, error)
	Terminate(ctx context.Context, id uuid.UUID) (*models.Contract, error)
}

type paymentRecorder interface {
	Record(ctx context.Context, id uuid.UUID, input payments.RecordInput) (*models.Payment, error)
}

// clientGone reports whether the caller went away; nothing is written then.
func clientGone(r *http.Request) bool {
	return r.Context().Err() != nil
}

// AdminDashboard returns mall metrics and the unit listing. Failed sources
// are listed under degraded instead of failing the response.
func AdminDashboard(agg adminDashboard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overview, err := agg.Overview(r.Context())
		if clientGone(r) {
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overview)
	}
}

// AdminInquiries lists inquiries newest first, optionally filtered by ?estado=.
func AdminInquiries(agg adminDashboard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var status *enums.InquiryStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("estado")); raw != "" {
			parsed, err := enums.ParseInquiryStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid inquiry status").WithDetails(map[string]any{"field": "estado"}))
				return
			}
			status = &parsed
		}

		result, err := agg.Inquiries(r.Context(), status, page)
		if clientGone(r) {
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminInquiryContacted(svc inquiryWorkflow, logg *logger.Logger) http.HandlerFunc {
	return inquiryAction(svc.MarkContacted, logg)
}

func AdminInquiryClose(svc inquiryWorkflow, logg *logger.Logger) http.HandlerFunc {
	return inquiryAction(svc.Close, logg)
}

func inquiryAction(apply func(context.Context, uuid.UUID) (*inquiries.Item, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := apply(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func AdminContractCreate(svc contractManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body contracts.CreateInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		contract, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newContractResponse(contract))
	}
}

func AdminContractTerminate(svc contractManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		contract, err := svc.Terminate(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newContractResponse(contract))
	}
}

func AdminPaymentRecord(svc paymentRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body payments.RecordInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payment, err := svc.Record(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPaymentResponse(payment))
	}
}
