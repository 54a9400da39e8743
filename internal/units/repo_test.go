package units

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mallrent-backend/internal/testdb"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

func TestListByStatusOrdersByCodeWithMall(t *testing.T) {
	conn := testdb.Open(t)
	mall := testdb.MustMall(t, conn, "Plaza Norte", "Av. Norte 100")
	testdb.MustUnit(t, conn, mall.ID, "B-2", enums.UnitTypeStore, enums.UnitStatusAvailable)
	testdb.MustUnit(t, conn, mall.ID, "A-1", enums.UnitTypeRestaurant, enums.UnitStatusAvailable)
	testdb.MustUnit(t, conn, mall.ID, "C-3", enums.UnitTypeStore, enums.UnitStatusOccupied)

	repo := NewRepository(conn)
	rows, err := repo.ListByStatus(context.Background(), enums.UnitStatusAvailable)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A-1", rows[0].Code)
	assert.Equal(t, "B-2", rows[1].Code)
	require.NotNil(t, rows[0].Mall)
	assert.Equal(t, "Plaza Norte", rows[0].Mall.Name)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSetStatusIsConditional(t *testing.T) {
	conn := testdb.Open(t)
	mall := testdb.MustMall(t, conn, "Plaza Norte", "Av. Norte 100")
	unit := testdb.MustUnit(t, conn, mall.ID, "A-1", enums.UnitTypeStore, enums.UnitStatusAvailable)
	repo := NewRepository(conn)
	ctx := context.Background()

	n, err := repo.SetStatus(ctx, unit.ID, enums.UnitStatusAvailable, enums.UnitStatusOccupied)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.SetStatus(ctx, unit.ID, enums.UnitStatusAvailable, enums.UnitStatusOccupied)
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := repo.FindUnit(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.UnitStatusOccupied, stored.Status)
}
