package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db"
	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
)

const (
	maxBatchSize = 500

	// Per-row failure code for the batch response.
	duplicateSerialCode = "DUPLICATE_SERIAL"
)

// Service exposes serialized inventory management operations.
type Service interface {
	AddUnits(ctx context.Context, productID uuid.UUID, rows []AddUnitInput) (*AddUnitsResult, error)
	GetUnit(ctx context.Context, id uuid.UUID) (*UnitDTO, error)
	GetUnitBySerial(ctx context.Context, serialNumber string) (*UnitDTO, error)
	ListUnits(ctx context.Context, filter ListFilter, params pagination.Params) (*UnitListResult, error)
	UpdateUnit(ctx context.Context, id uuid.UUID, input UpdateUnitInput) (*UnitDTO, error)
	DeleteUnit(ctx context.Context, id uuid.UUID) error
	ExportUnits(ctx context.Context, w io.Writer, filter ListFilter) (int, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo       *Repository
	dbClient   *db.Client
	products   productLoader
	aggregator *Aggregator
	logg       *logger.Logger
}

// NewService constructs an inventory service instance.
func NewService(repo *Repository, dbClient *db.Client, products productLoader, aggregator *Aggregator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("unit repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if aggregator == nil {
		return nil, fmt.Errorf("aggregator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		dbClient:   dbClient,
		products:   products,
		aggregator: aggregator,
		logg:       logg,
	}, nil
}

// AddUnits registers a batch of serials against a product. Rows with duplicate
// serials are rejected individually; the remaining rows are inserted and the
// product's stock counters recounted in one transaction.
func (s *service) AddUnits(ctx context.Context, productID uuid.UUID, rows []AddUnitInput) (*AddUnitsResult, error) {
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one unit is required")
	}
	if len(rows) > maxBatchSize {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("batch exceeds %d units", maxBatchSize))
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	result := &AddUnitsResult{Created: []UnitDTO{}, Failed: []UnitFailure{}}
	var rowErrs error

	type candidate struct {
		index int
		row   AddUnitInput
	}
	seen := make(map[string]bool, len(rows))
	candidates := make([]candidate, 0, len(rows))
	serials := make([]string, 0, len(rows))
	for i, row := range rows {
		serial := strings.TrimSpace(row.SerialNumber)
		switch {
		case serial == "":
			result.Failed = append(result.Failed, UnitFailure{Index: i, SerialNumber: serial, Code: string(pkgerrors.CodeValidation), Message: "serial number is required"})
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: empty serial number", i))
		case strings.TrimSpace(row.ModelNumber) == "":
			result.Failed = append(result.Failed, UnitFailure{Index: i, SerialNumber: serial, Code: string(pkgerrors.CodeValidation), Message: "model number is required"})
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: empty model number", i))
		case seen[serial]:
			result.Failed = append(result.Failed, UnitFailure{Index: i, SerialNumber: serial, Code: duplicateSerialCode, Message: "duplicate serial within batch"})
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: serial %s repeated in batch", i, serial))
		case row.StockChannel != "" && !row.StockChannel.IsValid():
			result.Failed = append(result.Failed, UnitFailure{Index: i, SerialNumber: serial, Code: string(pkgerrors.CodeValidation), Message: "invalid stock channel"})
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: invalid stock channel %q", i, row.StockChannel))
		default:
			seen[serial] = true
			row.SerialNumber = serial
			row.ModelNumber = strings.TrimSpace(row.ModelNumber)
			candidates = append(candidates, candidate{index: i, row: row})
			serials = append(serials, serial)
		}
	}

	existing, err := s.repo.ExistingSerials(ctx, serials)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking serial uniqueness")
	}
	taken := make(map[string]bool, len(existing))
	for _, serial := range existing {
		taken[serial] = true
	}

	units := make([]models.ProductUnit, 0, len(candidates))
	for _, c := range candidates {
		if taken[c.row.SerialNumber] {
			result.Failed = append(result.Failed, UnitFailure{Index: c.index, SerialNumber: c.row.SerialNumber, Code: duplicateSerialCode, Message: "serial number already registered"})
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("row %d: serial %s already registered", c.index, c.row.SerialNumber))
			continue
		}
		channel := c.row.StockChannel
		if channel == "" {
			channel = enums.StockChannelOnline
		}
		units = append(units, models.ProductUnit{
			ID:                uuid.New(),
			ProductID:         product.ID,
			SerialNumber:      c.row.SerialNumber,
			ModelNumber:       c.row.ModelNumber,
			Status:            enums.UnitStatusAvailable,
			StockChannel:      channel,
			ManufacturingDate: c.row.ManufacturingDate,
		})
	}

	if len(units) > 0 {
		if err := s.repo.CreateUnits(ctx, units); err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "serial number already registered")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating units")
		}
		for i := range units {
			result.Created = append(result.Created, *toUnitDTO(&units[i]))
		}
		result.Stock = s.recalcAfterMutation(ctx, product.ID)
	}

	if rowErrs != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"product_id": product.ID.String(),
			"created":    len(result.Created),
			"failed":     len(result.Failed),
		})
		s.logg.Warn(logCtx, fmt.Sprintf("unit batch partially rejected: %v", rowErrs))
	}

	if len(result.Created) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "no units created").WithDetails(result.Failed)
	}
	return result, nil
}

// GetUnit loads one unit.
func (s *service) GetUnit(ctx context.Context, id uuid.UUID) (*UnitDTO, error) {
	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading unit")
	}
	return toUnitDTO(unit), nil
}

// GetUnitBySerial loads one unit by its serial number.
func (s *service) GetUnitBySerial(ctx context.Context, serialNumber string) (*UnitDTO, error) {
	serial := strings.TrimSpace(serialNumber)
	if serial == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "serial number is required")
	}
	unit, err := s.repo.FindBySerial(ctx, serial)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading unit")
	}
	return toUnitDTO(unit), nil
}

// ListUnits returns a cursor page of units.
func (s *service) ListUnits(ctx context.Context, filter ListFilter, params pagination.Params) (*UnitListResult, error) {
	units, nextCursor, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing units")
	}
	result := &UnitListResult{Units: make([]UnitDTO, 0, len(units)), NextCursor: nextCursor}
	for i := range units {
		result.Units = append(result.Units, *toUnitDTO(&units[i]))
	}
	return result, nil
}

// UpdateUnit applies the provided mutations and recounts the product's stock.
func (s *service) UpdateUnit(ctx context.Context, id uuid.UUID, input UpdateUnitInput) (*UnitDTO, error) {
	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading unit")
	}

	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit status")
		}
		unit.Status = *input.Status
	}
	if input.StockChannel != nil {
		if !input.StockChannel.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock channel")
		}
		unit.StockChannel = *input.StockChannel
	}
	if input.ModelNumber != nil {
		unit.ModelNumber = *input.ModelNumber
	}
	if input.ManufacturingDate != nil {
		unit.ManufacturingDate = input.ManufacturingDate
	}

	if _, err := s.repo.Update(ctx, unit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating unit")
	}
	s.recalcAfterMutation(ctx, unit.ProductID)
	return toUnitDTO(unit), nil
}

// DeleteUnit removes the unit and recounts the product's stock. Deleting a
// unit that already has warranties or order allocations is allowed; history
// keeps its own serial snapshot.
func (s *service) DeleteUnit(ctx context.Context, id uuid.UUID) error {
	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading unit")
	}

	if err := s.repo.Delete(ctx, unit.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting unit")
	}
	s.recalcAfterMutation(ctx, unit.ProductID)
	return nil
}

// recalcAfterMutation recounts stock outside the mutation itself. A recount
// failure leaves the counters stale until the next resync; it never undoes
// the unit change.
func (s *service) recalcAfterMutation(ctx context.Context, productID uuid.UUID) StockCounts {
	var counts StockCounts
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		var recalcErr error
		counts, recalcErr = s.aggregator.Recalculate(ctx, tx, productID)
		return recalcErr
	})
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": productID.String()})
		s.logg.Error(logCtx, "stock recount failed after unit mutation", err)
	}
	return counts
}
