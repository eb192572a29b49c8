package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/internal/inventory"
	"github.com/voltaria/voltaria-backend/pkg/db"
	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/outbox"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  price TEXT NOT NULL,
  normal_price TEXT,
  retailer_price TEXT,
  requires_quote INTEGER NOT NULL DEFAULT 0,
  warranty_period_months INTEGER NOT NULL DEFAULT 12,
  stock INTEGER NOT NULL DEFAULT 0,
  offline_stock INTEGER NOT NULL DEFAULT 0,
  recommended_product_ids TEXT NOT NULL DEFAULT '{}',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	productUnits := `
CREATE TABLE IF NOT EXISTS product_units (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  serial_number TEXT NOT NULL UNIQUE,
  model_number TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'available',
  stock_channel TEXT NOT NULL DEFAULT 'online',
  manufacturing_date DATETIME,
  order_line_item_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`

	for _, ddl := range []string{products, productUnits} {
		require.NoError(t, conn.Exec(ddl).Error)
	}
	return conn
}

type capturedEmit struct {
	events []outbox.DomainEvent
}

func (c *capturedEmit) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

func newCatalogService(t *testing.T) (Service, *db.Client, *capturedEmit) {
	t.Helper()
	conn := setupCatalogTestDB(t)
	client := db.NewWithConn(conn)
	repo := NewRepository(conn)
	logg := logger.New(logger.Options{ServiceName: "catalog-test"})

	aggregator, err := inventory.NewAggregator(inventory.NewRepository(conn), client, logg)
	require.NoError(t, err)

	emitter := &capturedEmit{}
	svc, err := NewService(repo, client, aggregator, emitter, logg)
	require.NoError(t, err)
	return svc, client, emitter
}

func TestCreateProductDefaultsWarrantyPeriod(t *testing.T) {
	svc, _, _ := newCatalogService(t)

	created, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:     "Voltaria Core 1000 Power Station",
		Category: enums.ProductCategoryPowerStation,
		Price:    decimal.NewFromInt(999),
		IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, created.WarrantyPeriodMonths)
	assert.Equal(t, 0, created.Stock)
	assert.Equal(t, 0, created.OfflineStock)
}

func TestCreateProductRejectsUnknownRecommendation(t *testing.T) {
	svc, _, _ := newCatalogService(t)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name:                  "Voltaria Fold 200 Solar Panel",
		Category:              enums.ProductCategorySolarPanel,
		Price:                 decimal.NewFromInt(299),
		RecommendedProductIDs: []uuid.UUID{uuid.New()},
	})
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestResyncStockRecountsAndEmits(t *testing.T) {
	svc, client, emitter := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:     "Voltaria Core 1000 Power Station",
		Category: enums.ProductCategoryPowerStation,
		Price:    decimal.NewFromInt(999),
		IsActive: true,
	})
	require.NoError(t, err)

	// Drift the counters away from reality, then register one unit per channel.
	require.NoError(t, client.DB().Model(&models.Product{}).
		Where("id = ?", created.ID).
		Updates(map[string]any{"stock": 42, "offline_stock": 17}).Error)

	for serial, channel := range map[string]enums.StockChannel{
		"VLT-R-1": enums.StockChannelOnline,
		"VLT-R-2": enums.StockChannelOffline,
	} {
		require.NoError(t, client.DB().Create(&models.ProductUnit{
			ID:           uuid.New(),
			ProductID:    created.ID,
			SerialNumber: serial,
			ModelNumber:  "VC-1000",
			Status:       enums.UnitStatusAvailable,
			StockChannel: channel,
		}).Error)
	}

	resynced, err := svc.ResyncStock(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resynced.Stock)
	assert.Equal(t, 1, resynced.OfflineStock)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventStockResynced, emitter.events[0].EventType)
	assert.Equal(t, enums.AggregateProduct, emitter.events[0].AggregateType)
	assert.Equal(t, created.ID, emitter.events[0].AggregateID)
}

func TestUpdateProductSnapshotSemantics(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:                 "Voltaria Core 1000 Power Station",
		Category:             enums.ProductCategoryPowerStation,
		Price:                decimal.NewFromInt(999),
		WarrantyPeriodMonths: 24,
	})
	require.NoError(t, err)
	assert.Equal(t, 24, created.WarrantyPeriodMonths)

	months := 36
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{WarrantyPeriodMonths: &months})
	require.NoError(t, err)
	assert.Equal(t, 36, updated.WarrantyPeriodMonths)

	bad := 0
	_, err = svc.UpdateProduct(ctx, created.ID, UpdateProductInput{WarrantyPeriodMonths: &bad})
	require.Error(t, err)
}

func TestDeleteProductRemovesUnits(t *testing.T) {
	svc, client, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:     "Voltaria Go 300 Power Bank",
		Category: enums.ProductCategoryPowerBank,
		Price:    decimal.NewFromInt(149),
	})
	require.NoError(t, err)

	require.NoError(t, client.DB().Create(&models.ProductUnit{
		ID:           uuid.New(),
		ProductID:    created.ID,
		SerialNumber: "VLT-D-1",
		ModelNumber:  "VG-300",
		Status:       enums.UnitStatusAvailable,
		StockChannel: enums.StockChannelOnline,
	}).Error)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))

	var unitCount int64
	require.NoError(t, client.DB().Model(&models.ProductUnit{}).Count(&unitCount).Error)
	assert.Equal(t, int64(0), unitCount)

	_, err = svc.GetProduct(ctx, created.ID)
	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeNotFound, domainErr.Code())
}
