package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// ActivityLog records one admin mutation for the audit trail and exports.
type ActivityLog struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID    uuid.UUID            `gorm:"column:actor_id;type:uuid;not null;index"`
	ActorEmail string               `gorm:"column:actor_email;not null"`
	Action     enums.ActivityAction `gorm:"column:action;type:activity_action;not null"`
	EntityType string               `gorm:"column:entity_type;not null"`
	EntityID   *string              `gorm:"column:entity_id"`
	Detail     string               `gorm:"column:detail;type:text;not null"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime;index"`
}
