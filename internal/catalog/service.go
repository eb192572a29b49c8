package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/internal/inventory"
	"github.com/voltaria/voltaria-backend/pkg/db"
	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/outbox"
	"github.com/voltaria/voltaria-backend/pkg/outbox/payloads"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
)

// Service exposes catalog management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, filter ListFilter, params pagination.Params) (*ProductListResult, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ResyncStock(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ResyncAllStock(ctx context.Context) (*ResyncResult, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo       *Repository
	dbClient   *db.Client
	aggregator *inventory.Aggregator
	events     eventEmitter
	logg       *logger.Logger
}

// NewService constructs a catalog service instance.
func NewService(repo *Repository, dbClient *db.Client, aggregator *inventory.Aggregator, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if aggregator == nil {
		return nil, fmt.Errorf("aggregator required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		dbClient:   dbClient,
		aggregator: aggregator,
		events:     events,
		logg:       logg,
	}, nil
}

// CreateProduct creates a catalog listing. Stock counters start at zero; units
// are registered separately.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if err := s.ensureRecommendedExist(ctx, input.RecommendedProductIDs); err != nil {
		return nil, err
	}

	months := input.WarrantyPeriodMonths
	if months <= 0 {
		months = 12
	}

	product := &models.Product{
		ID:                    uuid.New(),
		Name:                  input.Name,
		Category:              input.Category,
		Price:                 input.Price,
		NormalPrice:           input.NormalPrice,
		RetailerPrice:         input.RetailerPrice,
		RequiresQuote:         input.RequiresQuote,
		WarrantyPeriodMonths:  months,
		RecommendedProductIDs: input.RecommendedProductIDs,
		IsActive:              input.IsActive,
	}
	if product.RecommendedProductIDs == nil {
		product.RecommendedProductIDs = []uuid.UUID{}
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return toProductDTO(created), nil
}

// GetProduct loads one product.
func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return toProductDTO(product), nil
}

// ListProducts returns a cursor page of products.
func (s *service) ListProducts(ctx context.Context, filter ListFilter, params pagination.Params) (*ProductListResult, error) {
	products, nextCursor, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	result := &ProductListResult{Products: make([]ProductDTO, 0, len(products)), NextCursor: nextCursor}
	for i := range products {
		result.Products = append(result.Products, *toProductDTO(&products[i]))
	}
	return result, nil
}

// UpdateProduct applies the provided mutations. Warranty period changes only
// affect registrations made after the update; existing warranties keep the
// months snapshotted at registration time.
func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = *input.Name
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
		}
		product.Category = *input.Category
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		product.Price = *input.Price
	}
	if input.NormalPrice != nil {
		product.NormalPrice = input.NormalPrice
	}
	if input.RetailerPrice != nil {
		product.RetailerPrice = input.RetailerPrice
	}
	if input.RequiresQuote != nil {
		product.RequiresQuote = *input.RequiresQuote
	}
	if input.WarrantyPeriodMonths != nil {
		if *input.WarrantyPeriodMonths <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "warranty period must be positive")
		}
		product.WarrantyPeriodMonths = *input.WarrantyPeriodMonths
	}
	if input.RecommendedProductIDs != nil {
		if err := s.ensureRecommendedExist(ctx, *input.RecommendedProductIDs); err != nil {
			return nil, err
		}
		product.RecommendedProductIDs = *input.RecommendedProductIDs
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}
	return toProductDTO(updated), nil
}

// DeleteProduct removes the listing and its units.
func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Delete(&models.ProductUnit{}, "product_id = ?", id).Error; err != nil {
			return err
		}
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	return nil
}

// ResyncStock recounts one product and emits the resulting counters.
func (s *service) ResyncStock(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	var counts inventory.StockCounts
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		counts, err = s.aggregator.Recalculate(ctx, tx, product.ID)
		if err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockResynced,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Data: payloads.StockResyncedEvent{
				ProductID:    product.ID,
				Stock:        counts.Stock,
				OfflineStock: counts.OfflineStock,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resyncing stock")
	}

	product.Stock = counts.Stock
	product.OfflineStock = counts.OfflineStock
	return toProductDTO(product), nil
}

// ResyncAllStock recounts every product. Per-product failures are logged by
// the aggregator and surfaced in the result, not rolled back.
func (s *service) ResyncAllStock(ctx context.Context) (*ResyncResult, error) {
	resynced, failed, err := s.aggregator.ResyncAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resyncing stock")
	}
	return &ResyncResult{Resynced: resynced, Failed: failed}, nil
}

func (s *service) ensureRecommendedExist(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking recommended products")
	}
	if len(found) != len(ids) {
		return pkgerrors.New(pkgerrors.CodeValidation, "recommended product does not exist")
	}
	return nil
}
