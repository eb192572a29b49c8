package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// Quote is a request-for-pricing document for products flagged requires_quote.
type Quote struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference     string            `gorm:"column:reference;not null;uniqueIndex"`
	RetailerID    *uuid.UUID        `gorm:"column:retailer_id;type:uuid"`
	CustomerName  string            `gorm:"column:customer_name;not null"`
	CustomerEmail string            `gorm:"column:customer_email;not null"`
	Status        enums.QuoteStatus `gorm:"column:status;type:quote_status;not null;default:'pending'"`
	Message       *string           `gorm:"column:message"`
	ResponseNote  *string           `gorm:"column:response_note"`
	LineItems     []QuoteLineItem   `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// QuoteLineItem captures one requested product row on a quote.
type QuoteLineItem struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	QuoteID     uuid.UUID        `gorm:"column:quote_id;type:uuid;not null;index"`
	ProductID   uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	ProductName string           `gorm:"column:product_name;not null"`
	Quantity    int              `gorm:"column:quantity;not null"`
	QuotedPrice *decimal.Decimal `gorm:"column:quoted_price;type:numeric(12,2)"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
}
