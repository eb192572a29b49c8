package orders

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
	dbtypes "github.com/voltaria/voltaria-backend/pkg/db/types"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/outbox"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
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
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  retailer_id TEXT,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_amount TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderLineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  allocated_serials TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME
);`

	for _, ddl := range []string{products, productUnits, orders, orderLineItems} {
		require.NoError(t, conn.Exec(ddl).Error)
	}
	return conn
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type gormProductLoader struct{ db *gorm.DB }

func (l *gormProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := l.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

type orderFixture struct {
	svc     Service
	conn    *gorm.DB
	emitter *stubEmitter
	units   *inventory.Repository
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	conn := setupOrdersTestDB(t)
	client := db.NewWithConn(conn)
	logg := logger.New(logger.Options{ServiceName: "orders-test"})
	units := inventory.NewRepository(conn)

	aggregator, err := inventory.NewAggregator(units, client, logg)
	require.NoError(t, err)

	emitter := &stubEmitter{}
	svc, err := NewService(NewRepository(conn), units, aggregator, &gormProductLoader{db: conn}, client, emitter, logg)
	require.NoError(t, err)
	return &orderFixture{svc: svc, conn: conn, emitter: emitter, units: units}
}

func (f *orderFixture) createProduct(t *testing.T, name string, price int64, retailerPrice *int64, requiresQuote bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:                    uuid.New(),
		Name:                  name,
		Category:              enums.ProductCategoryPowerStation,
		Price:                 decimal.NewFromInt(price),
		RequiresQuote:         requiresQuote,
		WarrantyPeriodMonths:  12,
		RecommendedProductIDs: dbtypes.UUIDArray{},
		IsActive:              true,
	}
	if retailerPrice != nil {
		rp := decimal.NewFromInt(*retailerPrice)
		product.RetailerPrice = &rp
	}
	require.NoError(t, f.conn.Create(product).Error)
	return product
}

func (f *orderFixture) createUnits(t *testing.T, productID uuid.UUID, serials ...string) {
	t.Helper()
	for _, serial := range serials {
		require.NoError(t, f.conn.Create(&models.ProductUnit{
			ID:           uuid.New(),
			ProductID:    productID,
			SerialNumber: serial,
			ModelNumber:  "VC-1000",
			Status:       enums.UnitStatusAvailable,
			StockChannel: enums.StockChannelOnline,
		}).Error)
	}
}

func TestCreateOrderAppliesRetailerPricing(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	retailerPrice := int64(799)
	product := f.createProduct(t, "Voltaria Core 1000 Power Station", 999, &retailerPrice, false)
	retailerID := uuid.New()

	order, err := f.svc.CreateOrder(ctx, CreateOrderInput{
		RetailerID:    &retailerID,
		CustomerName:  "Beacon Outdoor Supply",
		CustomerEmail: "orders@beaconoutdoor.example",
		LineItems:     []CreateLineItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(2397)), "got %s", order.TotalAmount)
	require.Len(t, order.LineItems, 1)
	assert.True(t, order.LineItems[0].UnitPrice.Equal(decimal.NewFromInt(799)))
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.NotEmpty(t, order.Reference)
}

func TestCreateOrderRejectsQuoteGatedProduct(t *testing.T) {
	f := newOrderFixture(t)

	product := f.createProduct(t, "Voltaria Grid 10k Inverter", 4999, nil, true)

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName:  "Dana Velasquez",
		CustomerEmail: "dana@example.com",
		LineItems:     []CreateLineItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestSetStatusHasNoTransitionGuard(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	product := f.createProduct(t, "Voltaria Core 1000 Power Station", 999, nil, false)
	order, err := f.svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName:  "Dana Velasquez",
		CustomerEmail: "dana@example.com",
		LineItems:     []CreateLineItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	updated, err := f.svc.SetStatus(ctx, order.ID, enums.OrderStatusDelivered, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, updated.Status)

	// Backwards is allowed too.
	updated, err = f.svc.SetStatus(ctx, order.ID, enums.OrderStatusPending, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, updated.Status)

	require.Len(t, f.emitter.events, 2)
	assert.Equal(t, enums.EventOrderStatusChanged, f.emitter.events[0].EventType)
}

func TestAllocateSerialsAutoPicksOldestUnits(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	product := f.createProduct(t, "Voltaria Core 1000 Power Station", 999, nil, false)
	f.createUnits(t, product.ID, "VLT-AL-1", "VLT-AL-2", "VLT-AL-3")

	order, err := f.svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName:  "Dana Velasquez",
		CustomerEmail: "dana@example.com",
		LineItems:     []CreateLineItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	allocated, err := f.svc.AllocateSerials(ctx, order.ID, AllocateInput{LineItemID: order.LineItems[0].ID})
	require.NoError(t, err)
	require.Len(t, allocated.LineItems[0].AllocatedSerials, 2)

	var soldCount int64
	require.NoError(t, f.conn.Model(&models.ProductUnit{}).
		Where("status = ?", enums.UnitStatusSold).
		Count(&soldCount).Error)
	assert.Equal(t, int64(2), soldCount)

	var stored models.Product
	require.NoError(t, f.conn.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 1, stored.Stock)

	// A second allocation on the same line item is refused.
	_, err = f.svc.AllocateSerials(ctx, order.ID, AllocateInput{LineItemID: order.LineItems[0].ID})
	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, domainErr.Code())
}

func TestAllocateSerialsInsufficientStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	product := f.createProduct(t, "Voltaria Core 1000 Power Station", 999, nil, false)
	f.createUnits(t, product.ID, "VLT-AL-1")

	order, err := f.svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName:  "Dana Velasquez",
		CustomerEmail: "dana@example.com",
		LineItems:     []CreateLineItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = f.svc.AllocateSerials(ctx, order.ID, AllocateInput{LineItemID: order.LineItems[0].ID})
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeConflict, domainErr.Code())

	// Nothing was allocated.
	var soldCount int64
	require.NoError(t, f.conn.Model(&models.ProductUnit{}).
		Where("status = ?", enums.UnitStatusSold).
		Count(&soldCount).Error)
	assert.Equal(t, int64(0), soldCount)
}

func TestCancellationReleasesAllocatedUnits(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	product := f.createProduct(t, "Voltaria Core 1000 Power Station", 999, nil, false)
	f.createUnits(t, product.ID, "VLT-AL-1", "VLT-AL-2")

	order, err := f.svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName:  "Dana Velasquez",
		CustomerEmail: "dana@example.com",
		LineItems:     []CreateLineItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = f.svc.AllocateSerials(ctx, order.ID, AllocateInput{LineItemID: order.LineItems[0].ID})
	require.NoError(t, err)

	cancelled, err := f.svc.SetStatus(ctx, order.ID, enums.OrderStatusCancelled, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Empty(t, cancelled.LineItems[0].AllocatedSerials)

	var availableCount int64
	require.NoError(t, f.conn.Model(&models.ProductUnit{}).
		Where("status = ?", enums.UnitStatusAvailable).
		Count(&availableCount).Error)
	assert.Equal(t, int64(2), availableCount)

	var stored models.Product
	require.NoError(t, f.conn.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 2, stored.Stock)
}
