package quotes

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
)

// Repository provides persistence for quotes and their line items.
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

// Create inserts the quote with its line items.
func (r *Repository) Create(ctx context.Context, quote *models.Quote) (*models.Quote, error) {
	if err := r.db.WithContext(ctx).Create(quote).Error; err != nil {
		return nil, err
	}
	return quote, nil
}

// FindByID loads a quote with its line items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	err := r.db.WithContext(ctx).
		Preload("LineItems").
		First(&quote, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// Update persists the quote header fields.
func (r *Repository) Update(ctx context.Context, quote *models.Quote) (*models.Quote, error) {
	err := r.db.WithContext(ctx).
		Omit("LineItems").
		Save(quote).
		Error
	if err != nil {
		return nil, err
	}
	return quote, nil
}

// UpdateLineItemPrice writes the quoted price for one line item.
func (r *Repository) UpdateLineItemPrice(ctx context.Context, lineItemID uuid.UUID, price decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.QuoteLineItem{}).
		Where("id = ?", lineItemID).
		Update("quoted_price", price)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListFilter narrows quote listings.
type ListFilter struct {
	Status     *enums.QuoteStatus
	RetailerID *uuid.UUID
	Reference  string
}

// List returns quotes matching the filter, newest first, cursor paginated.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Quote, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Quote{}).Preload("LineItems")
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

	var quotes []models.Quote
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&quotes).
		Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(quotes) > limit {
		quotes = quotes[:limit]
		last := quotes[len(quotes)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return quotes, nextCursor, nil
}
