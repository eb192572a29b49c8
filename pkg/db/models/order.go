package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// Order is a plain enumerated-status document. Status changes are set
// directly by admin action with no transition guard.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference     string            `gorm:"column:reference;not null;uniqueIndex"`
	RetailerID    *uuid.UUID        `gorm:"column:retailer_id;type:uuid"`
	CustomerName  string            `gorm:"column:customer_name;not null"`
	CustomerEmail string            `gorm:"column:customer_email;not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	TotalAmount   decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	LineItems     []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLineItem captures one product row on an order. AllocatedSerials lists
// the unit serials assigned to the row during fulfillment.
type OrderLineItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName      string          `gorm:"column:product_name;not null"`
	Quantity         int             `gorm:"column:quantity;not null"`
	UnitPrice        decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	AllocatedSerials pq.StringArray  `gorm:"column:allocated_serials;type:text[];not null;default:ARRAY[]::text[]"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}
