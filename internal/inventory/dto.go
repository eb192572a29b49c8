package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// UnitDTO is the API representation of a serialized unit.
type UnitDTO struct {
	ID                uuid.UUID          `json:"id"`
	ProductID         uuid.UUID          `json:"product_id"`
	SerialNumber      string             `json:"serial_number"`
	ModelNumber       string             `json:"model_number"`
	Status            enums.UnitStatus   `json:"status"`
	StockChannel      enums.StockChannel `json:"stock_channel"`
	ManufacturingDate *time.Time         `json:"manufacturing_date,omitempty"`
	OrderLineItemID   *uuid.UUID         `json:"order_line_item_id,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func toUnitDTO(unit *models.ProductUnit) *UnitDTO {
	if unit == nil {
		return nil
	}
	return &UnitDTO{
		ID:                unit.ID,
		ProductID:         unit.ProductID,
		SerialNumber:      unit.SerialNumber,
		ModelNumber:       unit.ModelNumber,
		Status:            unit.Status,
		StockChannel:      unit.StockChannel,
		ManufacturingDate: unit.ManufacturingDate,
		OrderLineItemID:   unit.OrderLineItemID,
		CreatedAt:         unit.CreatedAt,
		UpdatedAt:         unit.UpdatedAt,
	}
}

// AddUnitInput is one row in a batch registration request.
type AddUnitInput struct {
	SerialNumber      string
	ModelNumber       string
	StockChannel      enums.StockChannel
	ManufacturingDate *time.Time
}

// UnitFailure reports why one batch row was not created.
type UnitFailure struct {
	Index        int    `json:"index"`
	SerialNumber string `json:"serial_number"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

// AddUnitsResult is the partial-success outcome of a batch registration.
type AddUnitsResult struct {
	Created []UnitDTO     `json:"created"`
	Failed  []UnitFailure `json:"failed"`
	Stock   StockCounts   `json:"stock_counts"`
}

// UpdateUnitInput holds optional mutation values for a unit.
type UpdateUnitInput struct {
	ModelNumber       *string
	Status            *enums.UnitStatus
	StockChannel      *enums.StockChannel
	ManufacturingDate *time.Time
}

// UnitListResult is a cursor page of units.
type UnitListResult struct {
	Units      []UnitDTO `json:"units"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
