package dashboards

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/angelmondragon/mallrent-backend/internal/contracts"
	"github.com/angelmondragon/mallrent-backend/internal/inquiries"
	"github.com/angelmondragon/mallrent-backend/internal/payments"
	"github.com/angelmondragon/mallrent-backend/internal/testdb"
	"github.com/angelmondragon/mallrent-backend/internal/units"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	"github.com/angelmondragon/mallrent-backend/pkg/metrics"
	"github.com/angelmondragon/mallrent-backend/pkg/types"
)

func unit(status enums.UnitStatus) models.Unit {
	return models.Unit{ID: uuid.New(), Code: "X", Status: status}
}

func TestDeriveMetricsEmpty(t *testing.T) {
	m := DeriveMetrics(nil, nil, nil, 0)
	assert.Zero(t, m.TotalUnits)
	assert.Zero(t, m.OccupancyRate)
	assert.True(t, m.MonthlyRevenue.IsZero())
}

func TestDeriveMetricsCountsAndRate(t *testing.T) {
	units := []models.Unit{
		unit(enums.UnitStatusOccupied),
		unit(enums.UnitStatusOccupied),
		unit(enums.UnitStatusAvailable),
		unit(enums.UnitStatusMaintenance),
	}
	contractRows := []models.Contract{
		{UnitID: units[0].ID, Status: enums.ContractStatusActive, MonthlyRent: decimal.RequireFromString("1000.50")},
		{UnitID: units[1].ID, Status: enums.ContractStatusActive, MonthlyRent: decimal.RequireFromString("2000")},
		{UnitID: units[2].ID, Status: enums.ContractStatusExpired, MonthlyRent: decimal.RequireFromString("9999")},
		{UnitID: units[3].ID, Status: enums.ContractStatusTerminated, MonthlyRent: decimal.RequireFromString("5000")},
	}
	amounts := []payments.AmountRow{
		{Status: enums.PaymentStatusPending},
		{Status: enums.PaymentStatusPending},
		{Status: enums.PaymentStatusPaid},
		{Status: enums.PaymentStatusOverdue},
	}

	m := DeriveMetrics(units, contractRows, amounts, 3)
	assert.Equal(t, 4, m.TotalUnits)
	assert.Equal(t, 2, m.OccupiedUnits)
	assert.Equal(t, 1, m.AvailableUnits)
	assert.InDelta(t, 50.0, m.OccupancyRate, 1e-9)
	assert.Equal(t, "3000.5", m.MonthlyRevenue.String())
	assert.Equal(t, 2, m.ActiveContracts)
	assert.Equal(t, 2, m.PendingPayments)
	assert.Equal(t, 3, m.NewInquiries)
}

func TestDeriveMetricsRateBounds(t *testing.T) {
	for total := 1; total <= 6; total++ {
		for occupied := 0; occupied <= total; occupied++ {
			rows := make([]models.Unit, 0, total)
			for i := 0; i < total; i++ {
				status := enums.UnitStatusAvailable
				if i < occupied {
					status = enums.UnitStatusOccupied
				}
				rows = append(rows, unit(status))
			}
			rate := DeriveMetrics(rows, nil, nil, 0).OccupancyRate
			if rate < 0 || rate > 100 {
				t.Fatalf("rate %v out of bounds for %d/%d", rate, occupied, total)
			}
		}
	}
}

func TestJoinUnitsAttachesTenant(t *testing.T) {
	occupied := unit(enums.UnitStatusOccupied)
	free := unit(enums.UnitStatusAvailable)
	owner := &models.User{PersonalData: datatypes.NewJSONType(types.PersonalData{FirstName: "Luis", LastName: "Paz"})}
	rows := JoinUnits([]models.Unit{occupied, free}, []models.Contract{
		{UnitID: occupied.ID, Status: enums.ContractStatusActive, MonthlyRent: decimal.NewFromInt(1500), Owner: owner},
	})
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].TenantName)
	assert.Equal(t, "Luis Paz", *rows[0].TenantName)
	assert.Equal(t, "1500", rows[0].MonthlyRent.String())
	assert.Nil(t, rows[1].TenantName)
	assert.Nil(t, rows[1].MonthlyRent)
}

type gatedUnits struct {
	wg   *sync.WaitGroup
	rows []models.Unit
}

// ListAll waits until every source has started, proving they run together.
func (g gatedUnits) ListAll(context.Context) ([]models.Unit, error) {
	g.wg.Done()
	g.wg.Wait()
	return g.rows, nil
}

type gatedContracts struct{ wg *sync.WaitGroup }

func (g gatedContracts) ListActiveWithOwner(context.Context) ([]models.Contract, error) {
	g.wg.Done()
	g.wg.Wait()
	return nil, nil
}

type gatedPayments struct {
	wg  *sync.WaitGroup
	err error
}

func (g gatedPayments) ListAmounts(context.Context) ([]payments.AmountRow, error) {
	g.wg.Done()
	g.wg.Wait()
	return nil, g.err
}

type gatedInquiries struct{ wg *sync.WaitGroup }

func (g gatedInquiries) CountByStatus(context.Context, enums.InquiryStatus) (int64, error) {
	g.wg.Done()
	g.wg.Wait()
	return 7, nil
}

func TestOverviewRunsSourcesConcurrentlyAndDegrades(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(4)
	reg := prometheus.NewRegistry()
	dm := metrics.NewDashboardMetrics(reg)

	agg, err := NewAdminAggregator(AdminParams{
		Units:     gatedUnits{wg: &wg, rows: []models.Unit{unit(enums.UnitStatusOccupied)}},
		Contracts: gatedContracts{wg: &wg},
		Payments:  gatedPayments{wg: &wg, err: errors.New("relation pagos_alquiler does not exist")},
		Inquiries: gatedInquiries{wg: &wg},
		Metrics:   dm,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out, err := agg.Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{SourcePayments}, out.Degraded)
	assert.Equal(t, 1, out.Metrics.TotalUnits)
	assert.Equal(t, 7, out.Metrics.NewInquiries)
	assert.Zero(t, out.Metrics.PendingPayments)
	errSeries, err := testutil.GatherAndCount(reg, "mallrent_dashboard_query_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, errSeries)
	degraded, err := testutil.GatherAndCount(reg, "mallrent_dashboard_degraded_total")
	require.NoError(t, err)
	assert.Equal(t, 1, degraded)
}

func TestOverviewCancelledReturnsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conn := testdb.Open(t)
	agg, err := NewAdminAggregator(AdminParams{
		Units:     units.NewRepository(conn),
		Contracts: contracts.NewRepository(conn),
		Payments:  payments.NewRepository(conn),
		Inquiries: inquiries.NewRepository(conn),
	})
	require.NoError(t, err)

	_, err = agg.Overview(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOverviewAgainstDatabase(t *testing.T) {
	conn := testdb.Open(t)
	roles := testdb.SeedRoles(t, conn)
	owner := testdb.MustUser(t, conn, roles[enums.RoleNameOwner].ID, "Luis", "Paz")
	mall := testdb.MustMall(t, conn, "Plaza Sur", "Calle 1")
	occupied := testdb.MustUnit(t, conn, mall.ID, "A-1", enums.UnitTypeStore, enums.UnitStatusOccupied)
	free := testdb.MustUnit(t, conn, mall.ID, "A-2", enums.UnitTypeStore, enums.UnitStatusAvailable)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	contract := testdb.MustContract(t, conn, occupied.ID, owner.ID, enums.ContractStatusActive, "1800", start, end)
	testdb.MustContract(t, conn, free.ID, owner.ID, enums.ContractStatusExpired, "900", start.AddDate(-1, 0, 0), start)
	testdb.MustPayment(t, conn, contract.ID, "2026-01", "1800", enums.PaymentStatusPaid, start)
	testdb.MustPayment(t, conn, contract.ID, "2026-02", "1800", enums.PaymentStatusPending, start.AddDate(0, 1, 0))
	testdb.MustInquiry(t, conn, free.ID, enums.InquiryStatusNew, start)
	testdb.MustInquiry(t, conn, free.ID, enums.InquiryStatusContacted, start)

	agg, err := NewAdminAggregator(AdminParams{
		Units:     units.NewRepository(conn),
		Contracts: contracts.NewRepository(conn),
		Payments:  payments.NewRepository(conn),
		Inquiries: inquiries.NewRepository(conn),
	})
	require.NoError(t, err)

	out, err := agg.Overview(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.Degraded)
	assert.Equal(t, 2, out.Metrics.TotalUnits)
	assert.InDelta(t, 50.0, out.Metrics.OccupancyRate, 1e-9)
	assert.Equal(t, "1800", out.Metrics.MonthlyRevenue.String())
	assert.Equal(t, 1, out.Metrics.ActiveContracts)
	assert.Equal(t, 1, out.Metrics.PendingPayments)
	assert.Equal(t, 1, out.Metrics.NewInquiries)
	require.Len(t, out.Units, 2)
	require.NotNil(t, out.Units[0].TenantName)
	assert.Equal(t, "Luis Paz", *out.Units[0].TenantName)
}
