package dashboards

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
	"github.com/angelmondragon/mallrent-backend/pkg/metrics"
)

const dashboardVisitor = "visitor"

// CatalogUnit is an available unit as shown to visitors.
type CatalogUnit struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"codigo_local"`
	Type        enums.UnitType  `json:"tipo_local"`
	AreaM2      decimal.Decimal `json:"area_m2"`
	Floor       *int            `json:"piso,omitempty"`
	PhotoURLs   []string        `json:"fotos_urls"`
	MallName    string          `json:"centro_comercial"`
	MallAddress string          `json:"direccion"`
}

// Catalog is the visitor view. Degraded is set when the listing failed.
type Catalog struct {
	Units    []CatalogUnit `json:"locales"`
	Degraded []string      `json:"degraded,omitempty"`
}

// Filter narrows a catalog locally. Empty fields match everything.
type Filter struct {
	Search string
	Type   enums.UnitType
}

type availableUnitSource interface {
	ListByStatus(ctx context.Context, status enums.UnitStatus) ([]models.Unit, error)
}

type VisitorParams struct {
	Units   availableUnitSource
	Metrics *metrics.DashboardMetrics
	Logger  *logger.Logger
}

type VisitorAggregator struct {
	units   availableUnitSource
	metrics *metrics.DashboardMetrics
	logg    *logger.Logger
}

func NewVisitorAggregator(params VisitorParams) (*VisitorAggregator, error) {
	if params.Units == nil {
		return nil, fmt.Errorf("visitor aggregator requires a units source")
	}
	return &VisitorAggregator{units: params.Units, metrics: params.Metrics, logg: params.Logger}, nil
}

// Catalog lists available units ordered by code, with their mall.
func (v *VisitorAggregator) Catalog(ctx context.Context) (*Catalog, error) {
	start := time.Now()
	rows, err := v.units.ListByStatus(ctx, enums.UnitStatusAvailable)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	v.metrics.ObserveQuery(dashboardVisitor, SourceUnits, time.Since(start), err)
	if err != nil {
		v.metrics.IncDegraded(dashboardVisitor)
		if v.logg != nil {
			v.logg.Error(ctx, "dashboard.visitor.degraded", pkgerrors.Wrap(pkgerrors.CodeQuery, err, "catalog query failed"))
		}
		return &Catalog{Units: []CatalogUnit{}, Degraded: []string{SourceUnits}}, nil
	}

	out := &Catalog{Units: make([]CatalogUnit, 0, len(rows))}
	for _, u := range rows {
		item := CatalogUnit{
			ID:        u.ID,
			Code:      u.Code,
			Type:      u.Type,
			AreaM2:    u.AreaM2,
			Floor:     u.Floor,
			PhotoURLs: []string(u.PhotoURLs),
		}
		if item.PhotoURLs == nil {
			item.PhotoURLs = []string{}
		}
		if u.Mall != nil {
			item.MallName = u.Mall.Name
			item.MallAddress = u.Mall.Address
		}
		out.Units = append(out.Units, item)
	}
	return out, nil
}

// Apply keeps units whose code or mall name contains Search (case-insensitive)
// and whose type equals Type. The input order is preserved.
func (f Filter) Apply(units []CatalogUnit) []CatalogUnit {
	needle := strings.ToLower(f.Search)
	out := make([]CatalogUnit, 0, len(units))
	for _, u := range units {
		if f.Type != "" && u.Type != f.Type {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Code), needle) &&
			!strings.Contains(strings.ToLower(u.MallName), needle) {
			continue
		}
		out = append(out, u)
	}
	return out
}
