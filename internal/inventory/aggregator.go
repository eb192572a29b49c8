package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db"
	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/logger"
)

// Aggregator is the only writer of the derived stock counters on products.
// Every mutation of a product's units must be followed by a Recalculate in the
// same transaction so the counters never drift from the unit rows.
type Aggregator struct {
	units    *Repository
	dbClient *db.Client
	logg     *logger.Logger
}

// NewAggregator constructs the stock aggregator.
func NewAggregator(units *Repository, dbClient *db.Client, logg *logger.Logger) (*Aggregator, error) {
	if units == nil {
		return nil, fmt.Errorf("unit repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Aggregator{units: units, dbClient: dbClient, logg: logg}, nil
}

// StockCounts is a full recount result for one product.
type StockCounts struct {
	Stock        int `json:"stock"`
	OfflineStock int `json:"offline_stock"`
}

// Recalculate performs a full recount of available units for the product and
// writes the counters back, all within the caller's transaction.
func (a *Aggregator) Recalculate(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (StockCounts, error) {
	stock, offline, err := a.units.WithTx(tx).CountAvailable(ctx, productID)
	if err != nil {
		return StockCounts{}, fmt.Errorf("recount units: %w", err)
	}

	err = tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"stock":         stock,
			"offline_stock": offline,
			"updated_at":    time.Now().UTC(),
		}).
		Error
	if err != nil {
		return StockCounts{}, fmt.Errorf("write stock counters: %w", err)
	}

	return StockCounts{Stock: int(stock), OfflineStock: int(offline)}, nil
}

// ResyncAll recounts every product. Each product gets its own transaction so a
// failure on one product does not roll back the counters already fixed for the
// rest; failures are logged and counted instead.
func (a *Aggregator) ResyncAll(ctx context.Context) (resynced int, failed int, err error) {
	var productIDs []uuid.UUID
	err = a.dbClient.DB().WithContext(ctx).
		Model(&models.Product{}).
		Pluck("id", &productIDs).
		Error
	if err != nil {
		return 0, 0, fmt.Errorf("list products: %w", err)
	}

	for _, productID := range productIDs {
		txErr := a.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			_, recalcErr := a.Recalculate(ctx, tx, productID)
			return recalcErr
		})
		if txErr != nil {
			failed++
			logCtx := a.logg.WithFields(ctx, map[string]any{"product_id": productID.String()})
			a.logg.Error(logCtx, "stock resync failed", txErr)
			continue
		}
		resynced++
	}
	return resynced, failed, nil
}
