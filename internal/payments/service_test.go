package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mallrent-backend/internal/testdb"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
)

var today = time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC)

func seedContract(t *testing.T, conn *gorm.DB) *models.Contract {
	t.Helper()
	roles := testdb.SeedRoles(t, conn)
	owner := testdb.MustUser(t, conn, roles[enums.RoleNameOwner].ID, "Luis", "Paz")
	mall := testdb.MustMall(t, conn, "Plaza Sur", "Calle 1")
	unit := testdb.MustUnit(t, conn, mall.ID, "A-1", enums.UnitTypeStore, enums.UnitStatusOccupied)
	return testdb.MustContract(t, conn, unit.ID, owner.ID, enums.ContractStatusActive, "1200",
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC))
}

func newTestService(t *testing.T, conn *gorm.DB) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), Now: func() time.Time { return today }})
	require.NoError(t, err)
	return svc
}

func TestRecordPendingPayment(t *testing.T) {
	conn := testdb.Open(t)
	contract := seedContract(t, conn)
	payment := testdb.MustPayment(t, conn, contract.ID, "2026-04", "1200", enums.PaymentStatusPending, time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC))
	svc := newTestService(t, conn)

	paid, err := svc.Record(context.Background(), payment.ID, RecordInput{Method: " Transferencia "})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, "2026-04-20", time.Time(*paid.PaidDate).Format("2006-01-02"))
	require.NotNil(t, paid.Method)
	assert.Equal(t, "transferencia", *paid.Method)

	_, err = svc.Record(context.Background(), payment.ID, RecordInput{Method: "efectivo"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestRecordOverdueWithExplicitDate(t *testing.T) {
	conn := testdb.Open(t)
	contract := seedContract(t, conn)
	payment := testdb.MustPayment(t, conn, contract.ID, "2026-03", "1200", enums.PaymentStatusOverdue, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))
	svc := newTestService(t, conn)

	paid, err := svc.Record(context.Background(), payment.ID, RecordInput{Method: "tarjeta", PaidOn: "2026-04-02"})
	require.NoError(t, err)
	assert.Equal(t, "2026-04-02", time.Time(*paid.PaidDate).Format("2006-01-02"))
}

func TestRecordRejectsBadInput(t *testing.T) {
	conn := testdb.Open(t)
	contract := seedContract(t, conn)
	payment := testdb.MustPayment(t, conn, contract.ID, "2026-04", "1200", enums.PaymentStatusPending, today)
	svc := newTestService(t, conn)

	_, err := svc.Record(context.Background(), payment.ID, RecordInput{Method: "bitcoin"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Record(context.Background(), payment.ID, RecordInput{Method: "efectivo", PaidOn: "ayer"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Record(context.Background(), uuid.New(), RecordInput{Method: "efectivo"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestMarkOverdue(t *testing.T) {
	conn := testdb.Open(t)
	contract := seedContract(t, conn)
	late := testdb.MustPayment(t, conn, contract.ID, "2026-03", "1200", enums.PaymentStatusPending, time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC))
	dueToday := testdb.MustPayment(t, conn, contract.ID, "2026-04", "1200", enums.PaymentStatusPending, time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC))
	paid := testdb.MustPayment(t, conn, contract.ID, "2026-02", "1200", enums.PaymentStatusPaid, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC))
	svc := newTestService(t, conn)

	n, err := svc.MarkOverdue(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	repo := NewRepository(conn)
	for id, want := range map[uuid.UUID]enums.PaymentStatus{
		late.ID:     enums.PaymentStatusOverdue,
		dueToday.ID: enums.PaymentStatusPending,
		paid.ID:     enums.PaymentStatusPaid,
	} {
		got, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status)
	}
}

func TestListByContractLatestPeriodFirst(t *testing.T) {
	conn := testdb.Open(t)
	contract := seedContract(t, conn)
	for _, period := range []string{"2026-02", "2026-04", "2026-03"} {
		testdb.MustPayment(t, conn, contract.ID, period, "1200", enums.PaymentStatusPending, today)
	}
	rows, err := NewRepository(conn).ListByContract(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2026-04", "2026-03", "2026-02"}, []string{rows[0].Period, rows[1].Period, rows[2].Period})

	amounts, err := NewRepository(conn).ListAmounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, amounts, 3)
}
