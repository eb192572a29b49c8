package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// ProductUnit is one serialized physical inventory item tied to a Product.
// Serial numbers are unique across the whole collection, not just per product.
type ProductUnit struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID         uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	SerialNumber      string             `gorm:"column:serial_number;not null;uniqueIndex"`
	ModelNumber       string             `gorm:"column:model_number;not null"`
	Status            enums.UnitStatus   `gorm:"column:status;type:unit_status;not null;default:'available'"`
	StockChannel      enums.StockChannel `gorm:"column:stock_channel;type:stock_channel;not null;default:'online'"`
	ManufacturingDate *time.Time         `gorm:"column:manufacturing_date;type:date"`
	OrderLineItemID   *uuid.UUID         `gorm:"column:order_line_item_id;type:uuid"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
