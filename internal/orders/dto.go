package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// OrderDTO is the API representation of an order.
type OrderDTO struct {
	ID            uuid.UUID         `json:"id"`
	Reference     string            `json:"reference"`
	RetailerID    *uuid.UUID        `json:"retailer_id,omitempty"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	Status        enums.OrderStatus `json:"status"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	LineItems     []LineItemDTO     `json:"line_items"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// LineItemDTO is one product row on an order.
type LineItemDTO struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	ProductName      string          `json:"product_name"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	AllocatedSerials []string        `json:"allocated_serials"`
}

func toOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:            order.ID,
		Reference:     order.Reference,
		RetailerID:    order.RetailerID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Status:        order.Status,
		TotalAmount:   order.TotalAmount,
		LineItems:     make([]LineItemDTO, 0, len(order.LineItems)),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	for _, item := range order.LineItems {
		dto.LineItems = append(dto.LineItems, LineItemDTO{
			ID:               item.ID,
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			AllocatedSerials: item.AllocatedSerials,
		})
	}
	return dto
}

// CreateOrderInput holds the validated payload to create an order.
type CreateOrderInput struct {
	RetailerID    *uuid.UUID
	CustomerName  string
	CustomerEmail string
	LineItems     []CreateLineItemInput
}

// CreateLineItemInput is one requested product row.
type CreateLineItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// AllocateInput assigns serials to a line item during fulfillment. When
// Serials is empty, the oldest available units are picked automatically.
type AllocateInput struct {
	LineItemID uuid.UUID
	Serials    []string
}

// OrderListResult is a cursor page of orders.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}
