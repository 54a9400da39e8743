package dashboards

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/mallrent-backend/internal/inquiries"
	"github.com/angelmondragon/mallrent-backend/internal/payments"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
	"github.com/angelmondragon/mallrent-backend/pkg/metrics"
	"github.com/angelmondragon/mallrent-backend/pkg/pagination"
	"github.com/angelmondragon/mallrent-backend/pkg/types"
)

const (
	dashboardAdmin = "admin"

	SourceUnits     = "units"
	SourceContracts = "contracts"
	SourcePayments  = "payments"
	SourceInquiries = "inquiries"
)

// Metrics are the headline numbers of the admin dashboard.
type Metrics struct {
	TotalUnits      int             `json:"total_locales"`
	OccupiedUnits   int             `json:"locales_ocupados"`
	AvailableUnits  int             `json:"locales_disponibles"`
	OccupancyRate   float64         `json:"tasa_ocupacion"`
	MonthlyRevenue  decimal.Decimal `json:"ingresos_mensuales"`
	PendingPayments int             `json:"pagos_pendientes"`
	ActiveContracts int             `json:"contratos_activos"`
	NewInquiries    int             `json:"solicitudes_nuevas"`
}

// UnitRow is a unit joined to the tenant of its active contract, if any.
type UnitRow struct {
	ID          uuid.UUID        `json:"id"`
	Code        string           `json:"codigo_local"`
	Type        enums.UnitType   `json:"tipo_local"`
	Status      enums.UnitStatus `json:"estado"`
	AreaM2      decimal.Decimal  `json:"area_m2"`
	Floor       *int             `json:"piso,omitempty"`
	TenantName  *string          `json:"inquilino,omitempty"`
	MonthlyRent *decimal.Decimal `json:"renta_mensual,omitempty"`
}

// AdminOverview is the admin dashboard. Degraded names the sources that
// failed and were rendered as empty.
type AdminOverview struct {
	Metrics  Metrics   `json:"metricas"`
	Units    []UnitRow `json:"locales"`
	Degraded []string  `json:"degraded,omitempty"`
}

type unitSource interface {
	ListAll(ctx context.Context) ([]models.Unit, error)
}

type activeContractSource interface {
	ListActiveWithOwner(ctx context.Context) ([]models.Contract, error)
}

type paymentAmountSource interface {
	ListAmounts(ctx context.Context) ([]payments.AmountRow, error)
}

type inquiryCounter interface {
	CountByStatus(ctx context.Context, status enums.InquiryStatus) (int64, error)
}

type inquiryLister interface {
	List(ctx context.Context, status *enums.InquiryStatus, params pagination.Params) (*types.Page[inquiries.Item], error)
}

// AdminParams bundles the admin aggregator sources.
type AdminParams struct {
	Units     unitSource
	Contracts activeContractSource
	Payments  paymentAmountSource
	Inquiries inquiryCounter
	Inbox     inquiryLister
	Metrics   *metrics.DashboardMetrics
	Logger    *logger.Logger
}

type AdminAggregator struct {
	units     unitSource
	contracts activeContractSource
	payments  paymentAmountSource
	inquiries inquiryCounter
	inbox     inquiryLister
	metrics   *metrics.DashboardMetrics
	logg      *logger.Logger
}

func NewAdminAggregator(params AdminParams) (*AdminAggregator, error) {
	if params.Units == nil || params.Contracts == nil || params.Payments == nil || params.Inquiries == nil {
		return nil, fmt.Errorf("admin aggregator requires units, contracts, payments and inquiries sources")
	}
	return &AdminAggregator{
		units:     params.Units,
		contracts: params.Contracts,
		payments:  params.Payments,
		inquiries: params.Inquiries,
		inbox:     params.Inbox,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// Overview runs the four source queries concurrently and waits for all of
// them. A failed source is logged and treated as empty. Only a cancelled ctx
// fails the call.
func (a *AdminAggregator) Overview(ctx context.Context) (*AdminOverview, error) {
	var (
		unitRows     []models.Unit
		contractRows []models.Contract
		paymentRows  []payments.AmountRow
		newInquiries int64

		errUnits, errContracts, errPayments, errInquiries error
	)

	var g errgroup.Group
	g.Go(func() error {
		errUnits = a.observe(ctx, SourceUnits, func() (err error) {
			unitRows, err = a.units.ListAll(ctx)
			return err
		})
		return nil
	})
	g.Go(func() error {
		errContracts = a.observe(ctx, SourceContracts, func() (err error) {
			contractRows, err = a.contracts.ListActiveWithOwner(ctx)
			return err
		})
		return nil
	})
	g.Go(func() error {
		errPayments = a.observe(ctx, SourcePayments, func() (err error) {
			paymentRows, err = a.payments.ListAmounts(ctx)
			return err
		})
		return nil
	})
	g.Go(func() error {
		errInquiries = a.observe(ctx, SourceInquiries, func() (err error) {
			newInquiries, err = a.inquiries.CountByStatus(ctx, enums.InquiryStatusNew)
			return err
		})
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &AdminOverview{}
	var combined error
	for _, src := range []struct {
		name string
		err  error
	}{
		{SourceUnits, errUnits},
		{SourceContracts, errContracts},
		{SourcePayments, errPayments},
		{SourceInquiries, errInquiries},
	} {
		if src.err != nil {
			out.Degraded = append(out.Degraded, src.name)
			combined = multierr.Append(combined, fmt.Errorf("%s: %w", src.name, src.err))
		}
	}
	if combined != nil {
		a.metrics.IncDegraded(dashboardAdmin)
		if a.logg != nil {
			logCtx := a.logg.WithField(ctx, "degraded", out.Degraded)
			a.logg.Error(logCtx, "dashboard.admin.degraded", pkgerrors.Wrap(pkgerrors.CodeQuery, combined, "admin dashboard query failed"))
		}
	}

	out.Metrics = DeriveMetrics(unitRows, contractRows, paymentRows, int(newInquiries))
	out.Units = JoinUnits(unitRows, contractRows)
	return out, nil
}

// Inquiries lists inquiries newest first, each with the actions its status allows.
func (a *AdminAggregator) Inquiries(ctx context.Context, status *enums.InquiryStatus, page pagination.Params) (*types.Page[inquiries.Item], error) {
	if a.inbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inquiry listing is not configured")
	}
	start := time.Now()
	out, err := a.inbox.List(ctx, status, page)
	a.metrics.ObserveQuery(dashboardAdmin, SourceInquiries+"_list", time.Since(start), err)
	return out, err
}

func (a *AdminAggregator) observe(ctx context.Context, source string, fn func() error) error {
	start := time.Now()
	err := fn()
	if ctx.Err() != nil {
		return err
	}
	a.metrics.ObserveQuery(dashboardAdmin, source, time.Since(start), err)
	return err
}

// DeriveMetrics computes the headline numbers. Revenue counts only active
// contracts and occupancy is 0 when there are no units.
func DeriveMetrics(units []models.Unit, contracts []models.Contract, amounts []payments.AmountRow, newInquiries int) Metrics {
	m := Metrics{TotalUnits: len(units), MonthlyRevenue: decimal.Zero, NewInquiries: newInquiries}
	for _, u := range units {
		switch u.Status {
		case enums.UnitStatusOccupied:
			m.OccupiedUnits++
		case enums.UnitStatusAvailable:
			m.AvailableUnits++
		}
	}
	if m.TotalUnits > 0 {
		m.OccupancyRate = float64(m.OccupiedUnits) / float64(m.TotalUnits) * 100
	}
	for _, c := range contracts {
		if c.Status != enums.ContractStatusActive {
			continue
		}
		m.ActiveContracts++
		m.MonthlyRevenue = m.MonthlyRevenue.Add(c.MonthlyRent)
	}
	for _, p := range amounts {
		if p.Status == enums.PaymentStatusPending {
			m.PendingPayments++
		}
	}
	return m
}

// JoinUnits attaches to each unit the tenant and rent of its active contract.
func JoinUnits(units []models.Unit, contracts []models.Contract) []UnitRow {
	byUnit := make(map[uuid.UUID]models.Contract, len(contracts))
	for _, c := range contracts {
		if c.Status != enums.ContractStatusActive {
			continue
		}
		if _, seen := byUnit[c.UnitID]; !seen {
			byUnit[c.UnitID] = c
		}
	}

	rows := make([]UnitRow, 0, len(units))
	for _, u := range units {
		row := UnitRow{ID: u.ID, Code: u.Code, Type: u.Type, Status: u.Status, AreaM2: u.AreaM2, Floor: u.Floor}
		if c, ok := byUnit[u.ID]; ok {
			rent := c.MonthlyRent
			row.MonthlyRent = &rent
			if c.Owner != nil {
				name := c.Owner.PersonalData.Data().FullName()
				row.TenantName = &name
			}
		}
		rows = append(rows, row)
	}
	return rows
}
