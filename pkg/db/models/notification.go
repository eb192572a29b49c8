package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// Notification stores delivered notification payloads per recipient. EmailedAt
// is set once the mailer has dispatched the corresponding message.
type Notification struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientEmail string                 `gorm:"column:recipient_email;not null;index"`
	Type           enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	Title          string                 `gorm:"column:title;type:text;not null"`
	Message        string                 `gorm:"column:message;type:text;not null"`
	Link           *string                `gorm:"column:link;type:text"`
	EmailedAt      *time.Time             `gorm:"column:emailed_at;type:timestamptz"`
	ReadAt         *time.Time             `gorm:"column:read_at;type:timestamptz"`
	CreatedAt      time.Time              `gorm:"column:created_at;type:timestamptz;default:now()"`
}
