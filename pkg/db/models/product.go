package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/voltaria/voltaria-backend/pkg/db/types"
	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// Product represents a catalog listing. Stock and OfflineStock are derived
// counters: they must always equal counts over available ProductUnits and are
// written only by the inventory aggregator.
type Product struct {
	ID                    uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                  string                `gorm:"column:name;not null"`
	Category              enums.ProductCategory `gorm:"column:category;type:product_category;not null"`
	Price                 decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	NormalPrice           *decimal.Decimal      `gorm:"column:normal_price;type:numeric(12,2)"`
	RetailerPrice         *decimal.Decimal      `gorm:"column:retailer_price;type:numeric(12,2)"`
	RequiresQuote         bool                  `gorm:"column:requires_quote;not null;default:false"`
	WarrantyPeriodMonths  int                   `gorm:"column:warranty_period_months;not null;default:12"`
	Stock                 int                   `gorm:"column:stock;not null;default:0"`
	OfflineStock          int                   `gorm:"column:offline_stock;not null;default:0"`
	RecommendedProductIDs dbtypes.UUIDArray     `gorm:"column:recommended_product_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`
	IsActive              bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt             time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
