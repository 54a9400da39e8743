package dashboards

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mallrent-backend/internal/testdb"
	"github.com/angelmondragon/mallrent-backend/internal/units"
	"github.com/angelmondragon/mallrent-backend/pkg/db/models"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

func TestCatalogOnlyAvailableUnits(t *testing.T) {
	conn := testdb.Open(t)
	mall := testdb.MustMall(t, conn, "Plaza Sur", "Calle 1")
	u1 := testdb.MustUnit(t, conn, mall.ID, "U1", enums.UnitTypeStore, enums.UnitStatusAvailable)
	testdb.MustUnit(t, conn, mall.ID, "U2", enums.UnitTypeStore, enums.UnitStatusOccupied)

	agg, err := NewVisitorAggregator(VisitorParams{Units: units.NewRepository(conn)})
	require.NoError(t, err)

	catalog, err := agg.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog.Units, 1)
	assert.Equal(t, u1.ID, catalog.Units[0].ID)
	assert.Equal(t, "Plaza Sur", catalog.Units[0].MallName)

	assert.Len(t, Filter{}.Apply(catalog.Units), 1)
	assert.Empty(t, Filter{Type: enums.UnitTypeRestaurant}.Apply(catalog.Units))
}

func TestFilterApply(t *testing.T) {
	catalog := []CatalogUnit{
		{Code: "A-101", Type: enums.UnitTypeStore, MallName: "Plaza Norte"},
		{Code: "B-202", Type: enums.UnitTypeRestaurant, MallName: "Plaza Norte"},
		{Code: "C-303", Type: enums.UnitTypeStore, MallName: "Centro Sur"},
	}

	byMall := Filter{Search: "norte"}.Apply(catalog)
	require.Len(t, byMall, 2)
	assert.Equal(t, "A-101", byMall[0].Code)

	byCode := Filter{Search: "c-3"}.Apply(catalog)
	require.Len(t, byCode, 1)
	assert.Equal(t, "C-303", byCode[0].Code)

	// whitespace is part of the substring
	assert.Len(t, Filter{Search: "plaza n"}.Apply(catalog), 2)
	assert.Empty(t, Filter{Search: " c-3 "}.Apply(catalog))

	both := Filter{Search: "plaza", Type: enums.UnitTypeStore}.Apply(catalog)
	require.Len(t, both, 1)
	assert.Equal(t, "A-101", both[0].Code)

	assert.Empty(t, Filter{Search: "zzz"}.Apply(catalog))
	assert.Len(t, catalog, 3)
}

type failingUnits struct{}

func (failingUnits) ListByStatus(context.Context, enums.UnitStatus) ([]models.Unit, error) {
	return nil, errors.New("boom")
}

func TestCatalogDegradesOnQueryError(t *testing.T) {
	agg, err := NewVisitorAggregator(VisitorParams{Units: failingUnits{}})
	require.NoError(t, err)

	catalog, err := agg.Catalog(context.Background())
	require.NoError(t, err)
	assert.Empty(t, catalog.Units)
	assert.Equal(t, []string{SourceUnits}, catalog.Degraded)
}
