package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// Warranty is one registration attempt for a (unit serial, purchaser) pair.
// The validity window is only populated once the record is approved; pending
// and rejected warranties carry no window. WarrantyPeriodMonths is snapshotted
// from the product at registration so a later catalog edit cannot change an
// in-flight registration.
type Warranty struct {
	ID                   uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID            uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	UnitID               uuid.UUID            `gorm:"column:unit_id;type:uuid;not null;index"`
	ProductName          string               `gorm:"column:product_name;not null"`
	ModelNumber          string               `gorm:"column:model_number;not null"`
	SerialNumber         string               `gorm:"column:serial_number;not null;index"`
	PurchaserName        string               `gorm:"column:purchaser_name;not null"`
	PurchaserEmail       string               `gorm:"column:purchaser_email;not null"`
	PurchaserPhone       *string              `gorm:"column:purchaser_phone"`
	PurchaseDate         time.Time            `gorm:"column:purchase_date;type:date;not null"`
	PurchaseType         enums.PurchaseType   `gorm:"column:purchase_type;type:purchase_type;not null"`
	Status               enums.WarrantyStatus `gorm:"column:status;type:warranty_status;not null;default:'pending'"`
	WarrantyPeriodMonths int                  `gorm:"column:warranty_period_months;not null"`
	WarrantyStartDate    *time.Time           `gorm:"column:warranty_start_date;type:date"`
	WarrantyEndDate      *time.Time           `gorm:"column:warranty_end_date;type:date"`
	RejectionReason      *string              `gorm:"column:rejection_reason"`
	CertificateURL       *string              `gorm:"column:certificate_url"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
