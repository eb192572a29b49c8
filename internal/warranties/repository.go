package warranties

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
)

// Repository provides persistence for warranty registrations.
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

// Create inserts the warranty row.
func (r *Repository) Create(ctx context.Context, warranty *models.Warranty) (*models.Warranty, error) {
	if err := r.db.WithContext(ctx).Create(warranty).Error; err != nil {
		return nil, err
	}
	return warranty, nil
}

// FindByID loads a warranty by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Warranty, error) {
	var warranty models.Warranty
	if err := r.db.WithContext(ctx).First(&warranty, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &warranty, nil
}

// FindLatestByUnit returns the most recent registration for a unit, or
// gorm.ErrRecordNotFound when the unit has never been registered.
func (r *Repository) FindLatestByUnit(ctx context.Context, unitID uuid.UUID) (*models.Warranty, error) {
	var warranty models.Warranty
	err := r.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("created_at DESC").
		Order("id DESC").
		First(&warranty).
		Error
	if err != nil {
		return nil, err
	}
	return &warranty, nil
}

// HasOpenRegistration reports whether the unit already has a pending or
// approved warranty. Rejected registrations do not block a new attempt.
func (r *Repository) HasOpenRegistration(ctx context.Context, unitID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Warranty{}).
		Where("unit_id = ? AND status IN ?", unitID, []enums.WarrantyStatus{
			enums.WarrantyStatusPending,
			enums.WarrantyStatusApproved,
		}).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update persists the warranty row.
func (r *Repository) Update(ctx context.Context, warranty *models.Warranty) (*models.Warranty, error) {
	if err := r.db.WithContext(ctx).Save(warranty).Error; err != nil {
		return nil, err
	}
	return warranty, nil
}

// ListFilter narrows warranty listings.
type ListFilter struct {
	Status         *enums.WarrantyStatus
	SerialNumber   string
	PurchaserEmail string
}

// List returns warranties matching the filter, newest first, cursor paginated.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Warranty, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Warranty{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SerialNumber != "" {
		query = query.Where("serial_number = ?", filter.SerialNumber)
	}
	if filter.PurchaserEmail != "" {
		query = query.Where("purchaser_email = ?", filter.PurchaserEmail)
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

	var warranties []models.Warranty
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&warranties).
		Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(warranties) > limit {
		warranties = warranties[:limit]
		last := warranties[len(warranties)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return warranties, nextCursor, nil
}

// CountByStatus returns warranty totals per status for the admin dashboard.
func (r *Repository) CountByStatus(ctx context.Context) (map[enums.WarrantyStatus]int64, error) {
	type row struct {
		Status enums.WarrantyStatus
		Total  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Warranty{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enums.WarrantyStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
