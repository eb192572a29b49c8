package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
)

// Repository provides persistence for orders and their line items.
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

// Create inserts the order with its line items.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads the order with line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindLineItem loads one line item belonging to the order.
func (r *Repository) FindLineItem(ctx context.Context, orderID, lineItemID uuid.UUID) (*models.OrderLineItem, error) {
	var item models.OrderLineItem
	err := r.db.WithContext(ctx).
		First(&item, "id = ? AND order_id = ?", lineItemID, orderID).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateStatus writes the status column directly.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateLineItemSerials persists the allocated serials on a line item.
func (r *Repository) UpdateLineItemSerials(ctx context.Context, lineItemID uuid.UUID, serials []string) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderLineItem{}).
		Where("id = ?", lineItemID).
		Update("allocated_serials", pq.StringArray(serials)).
		Error
}

// ListFilter narrows order listings.
type ListFilter struct {
	Status     *enums.OrderStatus
	RetailerID *uuid.UUID
	Reference  string
}

// List returns orders matching the filter, newest first, cursor paginated.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Order{}).Preload("LineItems")
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.RetailerID != nil {
		query = query.Where("retailer_id = ?", *filter.RetailerID)
	}
	if filter.Reference != "" {
		query = query.Where("reference = ?", filter.Reference)
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

	var orders []models.Order
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&orders).
		Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return orders, nextCursor, nil
}
