package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
)

// Repository provides persistence for the activity log.
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

// Create inserts one activity row.
func (r *Repository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListFilter narrows activity listings and exports.
type ListFilter struct {
	ActorID    *uuid.UUID
	Action     *enums.ActivityAction
	EntityType string
	From       *time.Time
	To         *time.Time
}

func (r *Repository) applyFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	return query
}

// List returns activity rows matching the filter, newest first, cursor
// paginated.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.ActivityLog, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ActivityLog{}), filter)

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

	var entries []models.ActivityLog
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&entries).
		Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return entries, nextCursor, nil
}

// ListAll streams every row matching the filter, oldest first. Exports bound
// the result with maxRows rather than a cursor.
func (r *Repository) ListAll(ctx context.Context, filter ListFilter, maxRows int) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ActivityLog{}), filter).
		Order("created_at ASC").
		Order("id ASC").
		Limit(maxRows).
		Find(&entries).
		Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
