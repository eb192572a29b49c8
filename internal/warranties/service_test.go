package warranties

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db"
	"github.com/voltaria/voltaria-backend/pkg/db/models"
	dbtypes "github.com/voltaria/voltaria-backend/pkg/db/types"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/outbox"
)

func setupWarrantyTestDB(t *testing.T) *gorm.DB {
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
	warranties := `
CREATE TABLE IF NOT EXISTS warranties (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  unit_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  model_number TEXT NOT NULL,
  serial_number TEXT NOT NULL,
  purchaser_name TEXT NOT NULL,
  purchaser_email TEXT NOT NULL,
  purchaser_phone TEXT,
  purchase_date DATETIME NOT NULL,
  purchase_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  warranty_period_months INTEGER NOT NULL,
  warranty_start_date DATETIME,
  warranty_end_date DATETIME,
  rejection_reason TEXT,
  certificate_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`

	for _, ddl := range []string{products, productUnits, warranties} {
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

func (s *stubEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	for _, existing := range s.events {
		if existing.EventType == event.EventType && existing.AggregateID == event.AggregateID {
			return nil
		}
	}
	s.events = append(s.events, event)
	return nil
}

func (s *stubEmitter) byType(eventType enums.OutboxEventType) []outbox.DomainEvent {
	var matched []outbox.DomainEvent
	for _, event := range s.events {
		if event.EventType == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

type stubCertGenerator struct {
	url string
	err error
}

func (s *stubCertGenerator) Generate(ctx context.Context, warranty *models.Warranty) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.url != "" {
		return s.url, nil
	}
	return "https://storage.googleapis.com/voltaria-assets/warranty-certificates/" + warranty.ID.String() + ".pdf", nil
}

type gormUnitLoader struct{ db *gorm.DB }

func (l *gormUnitLoader) FindBySerial(ctx context.Context, serial string) (*models.ProductUnit, error) {
	var unit models.ProductUnit
	if err := l.db.WithContext(ctx).First(&unit, "serial_number = ?", serial).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

type gormProductLoader struct{ db *gorm.DB }

func (l *gormProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := l.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

type warrantyFixture struct {
	svc     Service
	conn    *gorm.DB
	emitter *stubEmitter
	certs   *stubCertGenerator
	product *models.Product
	unit    *models.ProductUnit
}

func newWarrantyFixture(t *testing.T) *warrantyFixture {
	t.Helper()
	conn := setupWarrantyTestDB(t)
	client := db.NewWithConn(conn)
	emitter := &stubEmitter{}
	certs := &stubCertGenerator{}
	logg := logger.New(logger.Options{ServiceName: "warranties-test"})

	svc, err := NewService(NewRepository(conn), &gormUnitLoader{db: conn}, &gormProductLoader{db: conn}, client, emitter, certs, logg)
	require.NoError(t, err)

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

	unit := &models.ProductUnit{
		ID:           uuid.New(),
		ProductID:    product.ID,
		SerialNumber: "VLT-W-0001",
		ModelNumber:  "VC-1000",
		Status:       enums.UnitStatusSold,
		StockChannel: enums.StockChannelOnline,
	}
	require.NoError(t, conn.Create(unit).Error)

	return &warrantyFixture{svc: svc, conn: conn, emitter: emitter, certs: certs, product: product, unit: unit}
}

func (f *warrantyFixture) setNow(t *testing.T, now time.Time) {
	t.Helper()
	f.svc.(*service).nowFn = func() time.Time { return now }
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestRegisterSnapshotsWarrantyPeriod(t *testing.T) {
	f := newWarrantyFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, RegisterInput{
		SerialNumber:   "VLT-W-0001",
		PurchaserName:  "Dana Velasquez",
		PurchaserEmail: "Dana.Velasquez@Example.com",
		PurchaseDate:   date(2024, time.January, 1),
		PurchaseType:   enums.PurchaseTypeDirect,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.WarrantyStatusPending, registered.Status)
	assert.Equal(t, 12, registered.WarrantyPeriodMonths)
	assert.Equal(t, "dana.velasquez@example.com", registered.PurchaserEmail)
	assert.Nil(t, registered.WarrantyStartDate)
	assert.Nil(t, registered.WarrantyEndDate)

	// A later catalog edit must not affect the snapshot.
	require.NoError(t, f.conn.Model(&models.Product{}).
		Where("id = ?", f.product.ID).
		Update("warranty_period_months", 36).Error)

	reloaded, err := f.svc.GetWarranty(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, reloaded.WarrantyPeriodMonths)

	require.Len(t, f.emitter.byType(enums.EventWarrantyRegistered), 1)
}

func TestRegisterRejectsOpenDuplicate(t *testing.T) {
	f := newWarrantyFixture(t)
	ctx := context.Background()

	input := RegisterInput{
		SerialNumber:   "VLT-W-0001",
		PurchaserName:  "Dana Velasquez",
		PurchaserEmail: "dana@example.com",
		PurchaseDate:   date(2024, time.January, 1),
		PurchaseType:   enums.PurchaseTypeDirect,
	}
	_, err := f.svc.Register(ctx, input)
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, input)
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeConflict, domainErr.Code())
}

func TestRegisterUnknownSerial(t *testing.T) {
	f := newWarrantyFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		SerialNumber:   "VLT-MISSING",
		PurchaserName:  "Dana Velasquez",
		PurchaserEmail: "dana@example.com",
		PurchaseDate:   date(2024, time.January, 1),
		PurchaseType:   enums.PurchaseTypeDirect,
	})
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeNotFound, domainErr.Code())
}

func TestApproveComputesWindowFromPurchaseDate(t *testing.T) {
	f := newWarrantyFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, RegisterInput{
		SerialNumber:   "VLT-W-0001",
		PurchaserName:  "Dana Velasquez",
		PurchaserEmail: "dana@example.com",
		PurchaseDate:   date(2024, time.January, 1),
		PurchaseType:   enums.PurchaseTypeDirect,
	})
	require.NoError(t, err)

	actor := &outbox.ActorRef{UserID: uuid.New(), Role: string(enums.UserRoleAdmin)}
	approved, err := f.svc.Approve(ctx, registered.ID, actor)
	require.NoError(t, err)

	assert.Equal(t, enums.WarrantyStatusApproved, approved.Status)
	require.NotNil(t, approved.WarrantyStartDate)
	require.NotNil(t, approved.WarrantyEndDate)
	assert.Equal(t, date(2024, time.January, 1), *approved.WarrantyStartDate)
	assert.Equal(t, date(2025, time.January, 1), *approved.WarrantyEndDate)
	require.NotNil(t, approved.CertificateURL)

	require.Len(t, f.emitter.byType(enums.EventWarrantyApproved), 1)
	require.Len(t, f.emitter.byType(enums.EventNotificationRequest), 1)
}

func TestApproveAbortsOnCertificateFailure(t *testing.T) {
	f := newWarrantyFixture(t)
	f.certs.err = fmt.Errorf("bucket unavailable")
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, RegisterInput{
		SerialNumber:   "VLT-W-0001",
		PurchaserName:  "Dana Velasquez",
		PurchaserEmail: "dana@example.com",
		PurchaseDate:   date(2024, time.January, 1),
		PurchaseType:   enums.PurchaseTypeDirect,
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, registered.ID, nil)
	require.Error(t, err)

	var domainErr *pkgerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeDependency, domainErr.Code())

	// The warranty stays pending and can still be decided.
	reloaded, err := f.svc.GetWarranty(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WarrantyStatusPending, reloaded.Status)
}

func TestTerminalStatusesAreImmutable(t *testing.T) {
	f := newWarrantyFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, RegisterInput{
		SerialNumber:   "VLT-W-0001",
		PurchaserName:  "Dana Velasquez",
		PurchaserEmail: "dana@example.com",
		PurchaseDate:   date(2024, time.January, 1),
		PurchaseType:   enums.PurchaseTypeDirect,
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, registered.ID, nil)
	require.NoError(t, err)

	var domainErr *pkgerrors.Error

	_, err = f.svc.Approve(ctx, registered.ID, nil)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, domainErr.Code())

	_, err = f.svc.Reject(ctx, registered.ID, "late registration", nil)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, domainErr.Code())
}

func TestRejectRequiresReason(t *testing.T) {
	f := newWarrantyFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, RegisterInput{
		SerialNumber:   "VLT-W-0001",
		PurchaserName:  "Dana Velasquez",
		PurchaserEmail: "dana@example.com",
		PurchaseDate:   date(2024, time.January, 1),
		PurchaseType:   enums.PurchaseTypeRetailer,
	})
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, registered.ID, "   ", nil)
	require.Error(t, err)

	rejected, err := f.svc.Reject(ctx, registered.ID, "proof of purchase missing", nil)
	require.NoError(t, err)
	assert.Equal(t, enums.WarrantyStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "proof of purchase missing", *rejected.RejectionReason)
	assert.Nil(t, rejected.WarrantyEndDate)
}

func TestValidateCoversEveryState(t *testing.T) {
	f := newWarrantyFixture(t)
	ctx := context.Background()

	// Unknown serial.
	result, err := f.svc.Validate(ctx, "VLT-NOPE")
	require.NoError(t, err)
	assert.Equal(t, enums.ValidationNotFound, result.State)

	// Known serial, never registered.
	result, err = f.svc.Validate(ctx, "VLT-W-0001")
	require.NoError(t, err)
	assert.Equal(t, enums.ValidationNotRegistered, result.State)
	assert.Equal(t, "Voltaria Core 1000 Power Station", result.ProductName)

	registered, err := f.svc.Register(ctx, RegisterInput{
		SerialNumber:   "VLT-W-0001",
		PurchaserName:  "Dana Velasquez",
		PurchaserEmail: "dana@example.com",
		PurchaseDate:   date(2024, time.January, 1),
		PurchaseType:   enums.PurchaseTypeDirect,
	})
	require.NoError(t, err)

	result, err = f.svc.Validate(ctx, "VLT-W-0001")
	require.NoError(t, err)
	assert.Equal(t, enums.ValidationPending, result.State)

	_, err = f.svc.Approve(ctx, registered.ID, nil)
	require.NoError(t, err)

	// Active mid-window: 2024-06-01 against a 2025-01-01 end date.
	f.setNow(t, date(2024, time.June, 1))
	result, err = f.svc.Validate(ctx, "VLT-W-0001")
	require.NoError(t, err)
	assert.Equal(t, enums.ValidationActive, result.State)
	require.NotNil(t, result.DaysRemaining)
	assert.Equal(t, 214, *result.DaysRemaining)

	// Past the window.
	f.setNow(t, date(2025, time.March, 1))
	result, err = f.svc.Validate(ctx, "VLT-W-0001")
	require.NoError(t, err)
	assert.Equal(t, enums.ValidationExpired, result.State)
}

func TestValidateRejectedState(t *testing.T) {
	f := newWarrantyFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, RegisterInput{
		SerialNumber:   "VLT-W-0001",
		PurchaserName:  "Dana Velasquez",
		PurchaserEmail: "dana@example.com",
		PurchaseDate:   date(2024, time.January, 1),
		PurchaseType:   enums.PurchaseTypeDirect,
	})
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, registered.ID, "counterfeit serial", nil)
	require.NoError(t, err)

	result, err := f.svc.Validate(ctx, "VLT-W-0001")
	require.NoError(t, err)
	assert.Equal(t, enums.ValidationRejected, result.State)
	require.NotNil(t, result.RejectionReason)
	assert.Equal(t, "counterfeit serial", *result.RejectionReason)

	// A rejected unit may be registered again.
	_, err = f.svc.Register(ctx, RegisterInput{
		SerialNumber:   "VLT-W-0001",
		PurchaserName:  "Dana Velasquez",
		PurchaserEmail: "dana@example.com",
		PurchaseDate:   date(2024, time.February, 1),
		PurchaseType:   enums.PurchaseTypeDirect,
	})
	require.NoError(t, err)
}