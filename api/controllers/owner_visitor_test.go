package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mallrent-backend/internal/dashboards"
	"github.com/angelmondragon/mallrent-backend/internal/inquiries"
	"github.com/angelmondragon/mallrent-backend/pkg/config"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

type stubOwner struct {
	gotOwner uuid.UUID
}

func (s *stubOwner) Dashboard(_ context.Context, ownerID uuid.UUID) (*dashboards.OwnerDashboard, error) {
	s.gotOwner = ownerID
	return &dashboards.OwnerDashboard{State: dashboards.OwnerStateNoActiveContract, Payments: []dashboards.PaymentRow{}}, nil
}

type stubCatalog struct{}

func (stubCatalog) Catalog(context.Context) (*dashboards.Catalog, error) {
	return &dashboards.Catalog{Units: []dashboards.CatalogUnit{
		{ID: uuid.New(), Code: "A-101", Type: enums.UnitTypeStore, MallName: "Plaza Norte"},
		{ID: uuid.New(), Code: "B-201", Type: enums.UnitTypeRestaurant, MallName: "Plaza Norte"},
		{ID: uuid.New(), Code: "C-301", Type: enums.UnitTypeStore, MallName: "Galerias Sur"},
	}}, nil
}

type stubSubmitter struct {
	got inquiries.SubmitInput
}

func (s *stubSubmitter) Submit(_ context.Context, input inquiries.SubmitInput) (*inquiries.Item, error) {
	s.got = input
	return &inquiries.Item{ID: uuid.New(), UnitID: input.UnitID, Status: enums.InquiryStatusNew}, nil
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestOwnerDashboardUsesProfileID(t *testing.T) {
	agg := &stubOwner{}
	req, profile := withProfile(httptest.NewRequest(http.MethodGet, "/", nil), string(enums.RoleNameOwner))
	rec := httptest.NewRecorder()
	OwnerDashboard(agg, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, profile.ID, agg.gotOwner)
	require.Contains(t, string(decodeEnvelope(t, rec).Data), string(dashboards.OwnerStateNoActiveContract))
}

func TestOwnerDashboardWithoutProfile(t *testing.T) {
	rec := httptest.NewRecorder()
	OwnerDashboard(&stubOwner{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVisitorUnitsFilters(t *testing.T) {
	rec := httptest.NewRecorder()
	VisitorUnits(stubCatalog{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?q=plaza&type=tienda", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	data := string(decodeEnvelope(t, rec).Data)
	require.Contains(t, data, `"total":1`)
	require.Contains(t, data, "A-101")
	require.NotContains(t, data, "C-301")
}

func TestVisitorUnitsRejectsUnknownType(t *testing.T) {
	rec := httptest.NewRecorder()
	VisitorUnits(stubCatalog{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?type=kiosco", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVisitorInquirySubmitStampsVisitor(t *testing.T) {
	svc := &stubSubmitter{}
	unitID := uuid.New()
	body := `{"local_id":"` + unitID.String() + `","nombre_contacto":"Luis","email_contacto":"luis@mail.test","mensaje":"Me interesa"}`
	req, profile := withProfile(jsonRequest(http.MethodPost, "/", body), string(enums.RoleNameVisitor))
	rec := httptest.NewRecorder()
	VisitorInquirySubmit(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, unitID, svc.got.UnitID)
	require.NotNil(t, svc.got.VisitorID)
	require.Equal(t, profile.ID, *svc.got.VisitorID)
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": stubPinger{}, "redis": stubPinger{}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "test", rec.Header().Get(envHeader))

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"db": stubPinger{}, "redis": stubPinger{err: errors.New("refused")}}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
