package dashboards

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
	"github.com/angelmondragon/mallrent-backend/pkg/metrics"
)

const (
	dashboardOwner = "owner"

	// ExpiryWarningDays is the horizon under which an ending lease is flagged.
	ExpiryWarningDays = 90
)

// OwnerState tells the owner view which layout to render.
type OwnerState string

const (
	OwnerStateActive           OwnerState = "active_contract"
	OwnerStateNoActiveContract OwnerState = "no_active_contract"
	OwnerStateUnavailable      OwnerState = "unavailable"
)

// ContractSummary is the owner's active lease.
type ContractSummary struct {
	ID          uuid.UUID        `json:"id"`
	UnitCode    string           `json:"codigo_local"`
	MallName    string           `json:"centro_comercial,omitempty"`
	StartDate   string           `json:"fecha_inicio"`
	EndDate     string           `json:"fecha_fin"`
	MonthlyRent decimal.Decimal  `json:"renta_mensual"`
	Deposit     *decimal.Decimal `json:"deposito_garantia,omitempty"`
}

type PaymentRow struct {
	ID      uuid.UUID           `json:"id"`
	Period  string              `json:"mes_anio"`
	Amount  decimal.Decimal     `json:"monto"`
	DueDate string              `json:"fecha_vencimiento"`
	PaidOn  *string             `json:"fecha_pago,omitempty"`
	Status  enums.PaymentStatus `json:"estado_pago"`
	Method  *string             `json:"metodo_pago,omitempty"`
}

type PaymentSummary struct {
	Paid    int `json:"pagados"`
	Pending int `json:"pendientes"`
	Overdue int `json:"vencidos"`
}

// OwnerDashboard is the owner view. Contract is nil unless State is active.
type OwnerDashboard struct {
	State           OwnerState       `json:"estado"`
	Contract        *ContractSummary `json:"contrato,omitempty"`
	Payments        []PaymentRow     `json:"pagos"`
	Summary         PaymentSummary   `json:"resumen_pagos"`
	DaysUntilExpiry *int             `json:"dias_para_vencimiento,omitempty"`
	ExpiryWarning   bool             `json:"alerta_vencimiento"`
	Degraded        []string         `json:"degraded,omitempty"`
}

type ownerContractSource interface {
	FirstActiveForOwner(ctx context.Context, ownerID uuid.UUID) (*models.Contract, error)
}

type contractPaymentSource interface {
	ListByContract(ctx context.Context, contractID uuid.UUID) ([]models.Payment, error)
}

// OwnerParams bundles the owner aggregator sources.
type OwnerParams struct {
	Contracts ownerContractSource
	Payments  contractPaymentSource
	Metrics   *metrics.DashboardMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

type OwnerAggregator struct {
	contracts ownerContractSource
	payments  contractPaymentSource
	metrics   *metrics.DashboardMetrics
	logg      *logger.Logger
	now       func() time.Time
}

func NewOwnerAggregator(params OwnerParams) (*OwnerAggregator, error) {
	if params.Contracts == nil || params.Payments == nil {
		return nil, fmt.Errorf("owner aggregator requires contracts and payments sources")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &OwnerAggregator{
		contracts: params.Contracts,
		payments:  params.Payments,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       now,
	}, nil
}

// Dashboard builds the view for ownerID. Payments are only queried when an
// active contract exists.
func (o *OwnerAggregator) Dashboard(ctx context.Context, ownerID uuid.UUID) (*OwnerDashboard, error) {
	start := time.Now()
	contract, err := o.contracts.FirstActiveForOwner(ctx, ownerID)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		o.metrics.ObserveQuery(dashboardOwner, SourceContracts, time.Since(start), nil)
		return &OwnerDashboard{State: OwnerStateNoActiveContract, Payments: []PaymentRow{}}, nil
	}
	o.metrics.ObserveQuery(dashboardOwner, SourceContracts, time.Since(start), err)
	if err != nil {
		o.degraded(ctx, SourceContracts, err)
		return &OwnerDashboard{State: OwnerStateUnavailable, Payments: []PaymentRow{}, Degraded: []string{SourceContracts}}, nil
	}

	out := &OwnerDashboard{
		State:    OwnerStateActive,
		Contract: summarize(contract),
		Payments: []PaymentRow{},
	}
	days := DaysUntil(time.Time(contract.EndDate), o.now())
	out.DaysUntilExpiry = &days
	out.ExpiryWarning = ExpiryWarning(days)

	start = time.Now()
	rows, err := o.payments.ListByContract(ctx, contract.ID)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	o.metrics.ObserveQuery(dashboardOwner, SourcePayments, time.Since(start), err)
	if err != nil {
		o.degraded(ctx, SourcePayments, err)
		out.Degraded = []string{SourcePayments}
		return out, nil
	}
	for _, p := range rows {
		out.Payments = append(out.Payments, paymentRow(p))
		switch p.Status {
		case enums.PaymentStatusPaid:
			out.Summary.Paid++
		case enums.PaymentStatusPending:
			out.Summary.Pending++
		case enums.PaymentStatusOverdue:
			out.Summary.Overdue++
		}
	}
	return out, nil
}

func (o *OwnerAggregator) degraded(ctx context.Context, source string, err error) {
	o.metrics.IncDegraded(dashboardOwner)
	if o.logg != nil {
		logCtx := o.logg.WithField(ctx, "source", source)
		o.logg.Error(logCtx, "dashboard.owner.degraded", pkgerrors.Wrap(pkgerrors.CodeQuery, err, "owner dashboard query failed"))
	}
}

// DaysUntil returns whole days from now to end, rounded up.
func DaysUntil(end, now time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// ExpiryWarning reports whether a lease ending in days should be flagged.
func ExpiryWarning(days int) bool {
	return days > 0 && days < ExpiryWarningDays
}

func summarize(c *models.Contract) *ContractSummary {
	out := &ContractSummary{
		ID:          c.ID,
		StartDate:   formatDate(time.Time(c.StartDate)),
		EndDate:     formatDate(time.Time(c.EndDate)),
		MonthlyRent: c.MonthlyRent,
	}
	if c.Deposit.Valid {
		d := c.Deposit.Decimal
		out.Deposit = &d
	}
	if c.Unit != nil {
		out.UnitCode = c.Unit.Code
		if c.Unit.Mall != nil {
			out.MallName = c.Unit.Mall.Name
		}
	}
	return out
}

func paymentRow(p models.Payment) PaymentRow {
	row := PaymentRow{
		ID:      p.ID,
		Period:  p.Period,
		Amount:  p.Amount,
		DueDate: formatDate(time.Time(p.DueDate)),
		Status:  p.Status,
		Method:  p.Method,
	}
	if p.PaidDate != nil {
		paid := formatDate(time.Time(*p.PaidDate))
		row.PaidOn = &paid
	}
	return row
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
