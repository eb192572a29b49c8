package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
)

// Repository provides persistence for notification rows.
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

// Create inserts one notification row.
func (r *Repository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// MarkEmailed records the dispatch timestamp after the mailer succeeded.
func (r *Repository) MarkEmailed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("emailed_at", at).
		Error
}

// ListFilter narrows notification listings.
type ListFilter struct {
	RecipientEmail string
	UnreadOnly     bool
}

// List returns notifications matching the filter, newest first, cursor
// paginated.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Notification, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Notification{})
	if filter.RecipientEmail != "" {
		query = query.Where("recipient_email = ?", filter.RecipientEmail)
	}
	if filter.UnreadOnly {
		query = query.Where("read_at IS NULL")
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

	var notifications []models.Notification
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&notifications).
		Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(notifications) > limit {
		notifications = notifications[:limit]
		last := notifications[len(notifications)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return notifications, nextCursor, nil
}

// MarkRead stamps one unread notification.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		UpdateColumn("read_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteOlderThan removes notification rows created before the cutoff. Used by
// the retention cron job.
func (r *Repository) DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	result := conn.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
