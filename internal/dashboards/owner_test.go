package dashboards

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mallrent-backend/internal/contracts"
	"github.com/angelmondragon/mallrent-backend/internal/payments"
	"github.com/angelmondragon/mallrent-backend/internal/testdb"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

type countingPayments struct {
	calls int
	rows  []models.Payment
	err   error
}

func (c *countingPayments) ListByContract(context.Context, uuid.UUID) ([]models.Payment, error) {
	c.calls++
	return c.rows, c.err
}

type noContract struct{}

func (noContract) FirstActiveForOwner(context.Context, uuid.UUID) (*models.Contract, error) {
	return nil, gorm.ErrRecordNotFound
}

type brokenContracts struct{}

func (brokenContracts) FirstActiveForOwner(context.Context, uuid.UUID) (*models.Contract, error) {
	return nil, errors.New("timeout")
}

func TestOwnerWithoutContractSkipsPayments(t *testing.T) {
	pays := &countingPayments{}
	agg, err := NewOwnerAggregator(OwnerParams{Contracts: noContract{}, Payments: pays})
	require.NoError(t, err)

	out, err := agg.Dashboard(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, OwnerStateNoActiveContract, out.State)
	assert.Nil(t, out.Contract)
	assert.Zero(t, pays.calls)
}

func TestOwnerContractQueryFailureDegrades(t *testing.T) {
	pays := &countingPayments{}
	agg, err := NewOwnerAggregator(OwnerParams{Contracts: brokenContracts{}, Payments: pays})
	require.NoError(t, err)

	out, err := agg.Dashboard(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, OwnerStateUnavailable, out.State)
	assert.Equal(t, []string{SourceContracts}, out.Degraded)
	assert.Zero(t, pays.calls)
}

func TestDaysUntilRoundsUp(t *testing.T) {
	now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysUntil(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 0, DaysUntil(now, now))
	assert.Equal(t, 90, DaysUntil(now.AddDate(0, 0, 90), now))
	assert.Equal(t, 90, DaysUntil(now.Add(89*24*time.Hour+time.Minute), now))
	assert.Equal(t, -1, DaysUntil(now.Add(-25*time.Hour), now))
}

func TestExpiryWarningBoundary(t *testing.T) {
	assert.False(t, ExpiryWarning(90))
	assert.True(t, ExpiryWarning(89))
	assert.True(t, ExpiryWarning(1))
	assert.False(t, ExpiryWarning(0))
	assert.False(t, ExpiryWarning(-5))
}

func TestOwnerDashboardAgainstDatabase(t *testing.T) {
	now := time.Date(2026, 10, 3, 12, 0, 0, 0, time.UTC)
	conn := testdb.Open(t)
	roles := testdb.SeedRoles(t, conn)
	owner := testdb.MustUser(t, conn, roles[enums.RoleNameOwner].ID, "Luis", "Paz")
	mall := testdb.MustMall(t, conn, "Plaza Sur", "Calle 1")
	u := testdb.MustUnit(t, conn, mall.ID, "A-1", enums.UnitTypeStore, enums.UnitStatusOccupied)
	contract := testdb.MustContract(t, conn, u.ID, owner.ID, enums.ContractStatusActive, "1800",
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC))
	testdb.MustPayment(t, conn, contract.ID, "2026-08", "1800", enums.PaymentStatusPaid, time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC))
	testdb.MustPayment(t, conn, contract.ID, "2026-10", "1800", enums.PaymentStatusPending, time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC))
	testdb.MustPayment(t, conn, contract.ID, "2026-09", "1800", enums.PaymentStatusOverdue, time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC))

	agg, err := NewOwnerAggregator(OwnerParams{
		Contracts: contracts.NewRepository(conn),
		Payments:  payments.NewRepository(conn),
		Now:       func() time.Time { return now },
	})
	require.NoError(t, err)

	out, err := agg.Dashboard(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, OwnerStateActive, out.State)
	require.NotNil(t, out.Contract)
	assert.Equal(t, "A-1", out.Contract.UnitCode)
	assert.Equal(t, "Plaza Sur", out.Contract.MallName)
	assert.Equal(t, "2026-12-01", out.Contract.EndDate)
	require.Len(t, out.Payments, 3)
	assert.Equal(t, "2026-10", out.Payments[0].Period)
	assert.Equal(t, "2026-08", out.Payments[2].Period)
	assert.Equal(t, PaymentSummary{Paid: 1, Pending: 1, Overdue: 1}, out.Summary)
	require.NotNil(t, out.DaysUntilExpiry)
	assert.Equal(t, 59, *out.DaysUntilExpiry)
	assert.True(t, out.ExpiryWarning)

	other := testdb.MustUser(t, conn, roles[enums.RoleNameOwner].ID, "Sin", "Contrato")
	empty, err := agg.Dashboard(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, OwnerStateNoActiveContract, empty.State)
}
