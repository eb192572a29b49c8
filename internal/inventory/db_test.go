package inventory

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	dbtypes "github.com/voltaria/voltaria-backend/pkg/db/types"
	"github.com/voltaria/voltaria-backend/pkg/enums"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
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

func mustCreateTestProduct(t *testing.T, conn *gorm.DB) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:                    uuid.New(),
		Name:                  "Voltaria Core 1000 Power Station",
		Category:              enums.ProductCategoryPowerStation,
		Price:                 decimal.NewFromInt(999),
		WarrantyPeriodMonths:  12,
		RecommendedProductIDs: dbtypes.UUIDArray{},
		IsActive:              true,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func mustCreateTestUnit(t *testing.T, conn *gorm.DB, productID uuid.UUID, serial string, channel enums.StockChannel) *models.ProductUnit {
	t.Helper()
	unit := &models.ProductUnit{
		ID:           uuid.New(),
		ProductID:    productID,
		SerialNumber: serial,
		ModelNumber:  "VC-1000",
		Status:       enums.UnitStatusAvailable,
		StockChannel: channel,
	}
	require.NoError(t, conn.Create(unit).Error)
	return unit
}
