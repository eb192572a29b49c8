package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// ProductDTO is the API representation of a catalog product.
type ProductDTO struct {
	ID                    uuid.UUID             `json:"id"`
	Name                  string                `json:"name"`
	Category              enums.ProductCategory `json:"category"`
	Price                 decimal.Decimal       `json:"price"`
	NormalPrice           *decimal.Decimal      `json:"normal_price,omitempty"`
	RetailerPrice         *decimal.Decimal      `json:"retailer_price,omitempty"`
	RequiresQuote         bool                  `json:"requires_quote"`
	WarrantyPeriodMonths  int                   `json:"warranty_period_months"`
	Stock                 int                   `json:"stock"`
	OfflineStock          int                   `json:"offline_stock"`
	RecommendedProductIDs []uuid.UUID           `json:"recommended_product_ids"`
	IsActive              bool                  `json:"is_active"`
	CreatedAt             time.Time             `json:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at"`
}

func toProductDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	return &ProductDTO{
		ID:                    product.ID,
		Name:                  product.Name,
		Category:              product.Category,
		Price:                 product.Price,
		NormalPrice:           product.NormalPrice,
		RetailerPrice:         product.RetailerPrice,
		RequiresQuote:         product.RequiresQuote,
		WarrantyPeriodMonths:  product.WarrantyPeriodMonths,
		Stock:                 product.Stock,
		OfflineStock:          product.OfflineStock,
		RecommendedProductIDs: product.RecommendedProductIDs,
		IsActive:              product.IsActive,
		CreatedAt:             product.CreatedAt,
		UpdatedAt:             product.UpdatedAt,
	}
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name                  string
	Category              enums.ProductCategory
	Price                 decimal.Decimal
	NormalPrice           *decimal.Decimal
	RetailerPrice         *decimal.Decimal
	RequiresQuote         bool
	WarrantyPeriodMonths  int
	RecommendedProductIDs []uuid.UUID
	IsActive              bool
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name                  *string
	Category              *enums.ProductCategory
	Price                 *decimal.Decimal
	NormalPrice           *decimal.Decimal
	RetailerPrice         *decimal.Decimal
	RequiresQuote         *bool
	WarrantyPeriodMonths  *int
	RecommendedProductIDs *[]uuid.UUID
	IsActive              *bool
}

// ProductListResult is a cursor page of products.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// ResyncResult summarizes a stock resync run.
type ResyncResult struct {
	Resynced int `json:"resynced"`
	Failed   int `json:"failed"`
}
