package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
)

// Repository provides persistence for serialized product units.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// CreateUnits inserts the provided units in a single batch.
func (r *Repository) CreateUnits(ctx context.Context, units []models.ProductUnit) error {
	if len(units) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&units).Error
}

// ExistingSerials returns the subset of serials that already exist.
func (r *Repository) ExistingSerials(ctx context.Context, serials []string) ([]string, error) {
	if len(serials) == 0 {
		return nil, nil
	}
	var found []string
	err := r.db.WithContext(ctx).
		Model(&models.ProductUnit{}).
		Where("serial_number IN ?", serials).
		Pluck("serial_number", &found).
		Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

// FindByID loads a unit by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ProductUnit, error) {
	var unit models.ProductUnit
	if err := r.db.WithContext(ctx).First(&unit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

// FindBySerial loads a unit by its serial number.
func (r *Repository) FindBySerial(ctx context.Context, serial string) (*models.ProductUnit, error) {
	var unit models.ProductUnit
	if err := r.db.WithContext(ctx).First(&unit, "serial_number = ?", serial).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

// ListFilter narrows unit listings.
type ListFilter struct {
	ProductID    *uuid.UUID
	Status       *enums.UnitStatus
	StockChannel *enums.StockChannel
	SerialPrefix string
}

// List returns units matching the filter, newest first, cursor paginated.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.ProductUnit, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.ProductUnit{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.StockChannel != nil {
		query = query.Where("stock_channel = ?", *filter.StockChannel)
	}
	if filter.SerialPrefix != "" {
		query = query.Where("serial_number LIKE ?", filter.SerialPrefix+"%")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var units []models.ProductUnit
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&units).
		Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(units) > limit {
		units = units[:limit]
		last := units[len(units)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return units, nextCursor, nil
}

// ListAll returns every unit matching the filter, oldest first, capped at
// maxRows. Used by exports.
func (r *Repository) ListAll(ctx context.Context, filter ListFilter, maxRows int) ([]models.ProductUnit, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductUnit{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.StockChannel != nil {
		query = query.Where("stock_channel = ?", *filter.StockChannel)
	}
	if filter.SerialPrefix != "" {
		query = query.Where("serial_number LIKE ?", filter.SerialPrefix+"%")
	}

	var units []models.ProductUnit
	err := query.
		Order("created_at ASC").
		Order("id ASC").
		Limit(maxRows).
		Find(&units).
		Error
	if err != nil {
		return nil, err
	}
	return units, nil
}

// Update persists mutable unit fields.
func (r *Repository) Update(ctx context.Context, unit *models.ProductUnit) (*models.ProductUnit, error) {
	if err := r.db.WithContext(ctx).Save(unit).Error; err != nil {
		return nil, err
	}
	return unit, nil
}

// Delete removes the unit row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductUnit{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountAvailable recounts the available units for a product. The total counts
// every available unit regardless of channel; the offline counter only those
// sellable offline.
func (r *Repository) CountAvailable(ctx context.Context, productID uuid.UUID) (stock int64, offlineStock int64, err error) {
	base := r.db.WithContext(ctx).
		Model(&models.ProductUnit{}).
		Where("product_id = ? AND status = ?", productID, enums.UnitStatusAvailable)

	err = base.Session(&gorm.Session{}).
		Count(&stock).
		Error
	if err != nil {
		return 0, 0, err
	}

	err = base.Session(&gorm.Session{}).
		Where("stock_channel IN ?", []enums.StockChannel{enums.StockChannelOffline, enums.StockChannelBoth}).
		Count(&offlineStock).
		Error
	if err != nil {
		return 0, 0, err
	}
	return stock, offlineStock, nil
}

// MarkSold flips the given serials to sold and links them to an order line item.
// Only available units of the given product are eligible; the affected row
// count is returned so the caller can detect partially satisfiable allocations.
func (r *Repository) MarkSold(ctx context.Context, productID uuid.UUID, serials []string, lineItemID uuid.UUID) (int64, error) {
	if len(serials) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.ProductUnit{}).
		Where("product_id = ? AND serial_number IN ? AND status = ?", productID, serials, enums.UnitStatusAvailable).
		Updates(map[string]any{
			"status":             enums.UnitStatusSold,
			"order_line_item_id": lineItemID,
			"updated_at":         time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// ReleaseByLineItem returns units sold against a line item back to stock.
func (r *Repository) ReleaseByLineItem(ctx context.Context, lineItemID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProductUnit{}).
		Where("order_line_item_id = ? AND status = ?", lineItemID, enums.UnitStatusSold).
		Updates(map[string]any{
			"status":             enums.UnitStatusAvailable,
			"order_line_item_id": nil,
			"updated_at":         time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// AvailableSerials lists available serials for a product, oldest first, capped
// at limit. Used by order allocation.
func (r *Repository) AvailableSerials(ctx context.Context, productID uuid.UUID, limit int) ([]string, error) {
	var serials []string
	err := r.db.WithContext(ctx).
		Model(&models.ProductUnit{}).
		Where("product_id = ? AND status = ?", productID, enums.UnitStatusAvailable).
		Order("created_at ASC").
		Limit(limit).
		Pluck("serial_number", &serials).
		Error
	if err != nil {
		return nil, err
	}
	return serials, nil
}
