package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltaria/voltaria-backend/pkg/enums"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
)

func TestListUnitsFiltersAndPaginates(t *testing.T) {
	conn := setupInventoryTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	product := mustCreateTestProduct(t, conn)
	other := mustCreateTestProduct(t, conn)

	base := time.Now().UTC().Add(-time.Hour)
	for i, serial := range []string{"VLT-A-1", "VLT-A-2", "VLT-A-3"} {
		unit := mustCreateTestUnit(t, conn, product.ID, serial, enums.StockChannelOnline)
		require.NoError(t, conn.Model(unit).Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}
	mustCreateTestUnit(t, conn, other.ID, "VLT-B-1", enums.StockChannelOffline)

	units, next, err := repo.List(ctx, ListFilter{ProductID: &product.ID}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, units, 2)
	require.NotEmpty(t, next)
	assert.Equal(t, "VLT-A-3", units[0].SerialNumber)

	units, next, err = repo.List(ctx, ListFilter{ProductID: &product.ID}, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Empty(t, next)
	assert.Equal(t, "VLT-A-1", units[0].SerialNumber)

	prefix := "VLT-B"
	units, _, err = repo.List(ctx, ListFilter{SerialPrefix: prefix}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, other.ID, units[0].ProductID)
}

func TestCountAvailableCountsEveryChannel(t *testing.T) {
	conn := setupInventoryTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	product := mustCreateTestProduct(t, conn)
	mustCreateTestUnit(t, conn, product.ID, "VLT-C-1", enums.StockChannelOffline)

	// An offline-only unit is still inventory: it counts toward the total
	// and toward the offline counter.
	stock, offline, err := repo.CountAvailable(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stock)
	assert.Equal(t, int64(1), offline)

	mustCreateTestUnit(t, conn, product.ID, "VLT-C-2", enums.StockChannelOnline)
	mustCreateTestUnit(t, conn, product.ID, "VLT-C-3", enums.StockChannelBoth)

	sold := mustCreateTestUnit(t, conn, product.ID, "VLT-C-4", enums.StockChannelOffline)
	require.NoError(t, conn.Model(sold).Update("status", enums.UnitStatusSold).Error)

	stock, offline, err = repo.CountAvailable(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stock)
	assert.Equal(t, int64(2), offline)
}

func TestMarkSoldAndRelease(t *testing.T) {
	conn := setupInventoryTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	product := mustCreateTestProduct(t, conn)
	mustCreateTestUnit(t, conn, product.ID, "VLT-S-1", enums.StockChannelOnline)
	mustCreateTestUnit(t, conn, product.ID, "VLT-S-2", enums.StockChannelOnline)

	lineItemID := uuid.New()
	affected, err := repo.MarkSold(ctx, product.ID, []string{"VLT-S-1", "VLT-S-2", "VLT-S-MISSING"}, lineItemID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	stock, offline, err := repo.CountAvailable(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stock)
	assert.Equal(t, int64(0), offline)

	sold, err := repo.FindBySerial(ctx, "VLT-S-1")
	require.NoError(t, err)
	require.NotNil(t, sold.OrderLineItemID)
	assert.Equal(t, lineItemID, *sold.OrderLineItemID)

	released, err := repo.ReleaseByLineItem(ctx, lineItemID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), released)

	stock, _, err = repo.CountAvailable(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stock)
}

func TestAvailableSerialsOrdersOldestFirst(t *testing.T) {
	conn := setupInventoryTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	product := mustCreateTestProduct(t, conn)
	base := time.Now().UTC().Add(-time.Hour)
	for i, serial := range []string{"VLT-O-1", "VLT-O-2", "VLT-O-3"} {
		unit := mustCreateTestUnit(t, conn, product.ID, serial, enums.StockChannelOnline)
		require.NoError(t, conn.Model(unit).Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	serials, err := repo.AvailableSerials(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"VLT-O-1", "VLT-O-2"}, serials)
}
