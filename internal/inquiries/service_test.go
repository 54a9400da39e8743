package inquiries

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/mallrent-backend/internal/testdb"
	"github.com/angelmondragon/mallrent-backend/internal/units"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/pagination"
)

var fixedNow = time.Date(2026, 5, 10, 15, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB, uuid.UUID) {
	t.Helper()
	conn := testdb.Open(t)
	mall := testdb.MustMall(t, conn, "Plaza Sur", "Calle 1")
	unit := testdb.MustUnit(t, conn, mall.ID, "L-01", enums.UnitTypeStore, enums.UnitStatusAvailable)
	svc, err := NewService(ServiceParams{
		Repo:  NewRepository(conn),
		Units: units.NewRepository(conn),
		Now:   func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc, conn, unit.ID
}

func validInput(unitID uuid.UUID) SubmitInput {
	return SubmitInput{
		UnitID:       unitID,
		ContactName:  "Carla Ruiz",
		ContactEmail: "carla@visit.test",
		Message:      "¿Cuál es la renta?",
	}
}

func countInquiries(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.Inquiry{}).Count(&n).Error)
	return n
}

func TestSubmitCreatesNewInquiry(t *testing.T) {
	svc, conn, unitID := newTestService(t)

	item, err := svc.Submit(context.Background(), validInput(unitID))
	require.NoError(t, err)
	assert.Equal(t, enums.InquiryStatusNew, item.Status)
	assert.Nil(t, item.ContactedAt)
	assert.Equal(t, "L-01", item.UnitCode)
	assert.True(t, item.Actions.MarkContacted)
	assert.EqualValues(t, 1, countInquiries(t, conn))
}

func TestSubmitFailuresLeaveNoRow(t *testing.T) {
	svc, conn, unitID := newTestService(t)
	mall := testdb.MustMall(t, conn, "Plaza Este", "Calle 2")
	occupied := testdb.MustUnit(t, conn, mall.ID, "L-02", enums.UnitTypeStore, enums.UnitStatusOccupied)

	badEmail := validInput(unitID)
	badEmail.ContactEmail = "not-an-email"
	noMessage := validInput(unitID)
	noMessage.Message = "   "

	cases := []struct {
		name  string
		input SubmitInput
		code  pkgerrors.Code
	}{
		{"bad email", badEmail, pkgerrors.CodeValidation},
		{"blank message", noMessage, pkgerrors.CodeValidation},
		{"unknown unit", validInput(uuid.New()), pkgerrors.CodeNotFound},
		{"occupied unit", validInput(occupied.ID), pkgerrors.CodeStateConflict},
	}
	for _, tc := range cases {
		_, err := svc.Submit(context.Background(), tc.input)
		assert.True(t, pkgerrors.IsCode(err, tc.code), "%s: %v", tc.name, err)
	}
	assert.Zero(t, countInquiries(t, conn))
}

func TestWorkflowContactedThenClosed(t *testing.T) {
	svc, conn, unitID := newTestService(t)
	inquiry := testdb.MustInquiry(t, conn, unitID, enums.InquiryStatusNew, fixedNow.Add(-time.Hour))
	ctx := context.Background()

	contacted, err := svc.MarkContacted(ctx, inquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InquiryStatusContacted, contacted.Status)
	require.NotNil(t, contacted.ContactedAt)
	assert.True(t, fixedNow.Equal(*contacted.ContactedAt))

	_, err = svc.MarkContacted(ctx, inquiry.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	closed, err := svc.Close(ctx, inquiry.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InquiryStatusClosed, closed.Status)
	assert.Equal(t, Actions{}, closed.Actions)

	_, err = svc.Close(ctx, inquiry.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = svc.MarkContacted(ctx, inquiry.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestCloseRequiresContacted(t *testing.T) {
	svc, conn, unitID := newTestService(t)
	inquiry := testdb.MustInquiry(t, conn, unitID, enums.InquiryStatusNew, fixedNow)

	_, err := svc.Close(context.Background(), inquiry.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.Close(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

type racingRepo struct {
	*Repository
}

// UpdateStatus simulates another admin winning the race.
func (r racingRepo) UpdateStatus(context.Context, uuid.UUID, enums.InquiryStatus, enums.InquiryStatus, *time.Time) (int64, error) {
	return 0, nil
}

func TestConcurrentUpdateIsStateConflict(t *testing.T) {
	_, conn, unitID := newTestService(t)
	inquiry := testdb.MustInquiry(t, conn, unitID, enums.InquiryStatusNew, fixedNow)
	svc, err := NewService(ServiceParams{Repo: racingRepo{NewRepository(conn)}, Units: units.NewRepository(conn)})
	require.NoError(t, err)

	_, err = svc.MarkContacted(context.Background(), inquiry.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestListNewestFirstWithCursor(t *testing.T) {
	svc, conn, unitID := newTestService(t)
	for i := 0; i < 5; i++ {
		testdb.MustInquiry(t, conn, unitID, enums.InquiryStatusNew, fixedNow.Add(time.Duration(i)*time.Minute))
	}
	ctx := context.Background()

	first, err := svc.List(ctx, nil, pagination.Params{Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.NotEmpty(t, first.NextCursor)
	assert.True(t, first.Items[0].CreatedAt.After(first.Items[1].CreatedAt))

	second, err := svc.List(ctx, nil, pagination.Params{Limit: 3, Cursor: first.NextCursor})
	require.NoError(t, err)
	assert.Len(t, second.Items, 2)
	assert.Empty(t, second.NextCursor)
	assert.True(t, second.Items[0].CreatedAt.Before(first.Items[2].CreatedAt))

	status := enums.InquiryStatus("archivada")
	_, err = svc.List(ctx, &status, pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
