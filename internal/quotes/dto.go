package quotes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// QuoteDTO is the API representation of a quote.
type QuoteDTO struct {
	ID            uuid.UUID         `json:"id"`
	Reference     string            `json:"reference"`
	RetailerID    *uuid.UUID        `json:"retailer_id,omitempty"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	Status        enums.QuoteStatus `json:"status"`
	Message       *string           `json:"message,omitempty"`
	ResponseNote  *string           `json:"response_note,omitempty"`
	LineItems     []LineItemDTO     `json:"line_items"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// LineItemDTO is one requested product row on a quote.
type LineItemDTO struct {
	ID          uuid.UUID        `json:"id"`
	ProductID   uuid.UUID        `json:"product_id"`
	ProductName string           `json:"product_name"`
	Quantity    int              `json:"quantity"`
	QuotedPrice *decimal.Decimal `json:"quoted_price,omitempty"`
}

func toQuoteDTO(quote *models.Quote) *QuoteDTO {
	if quote == nil {
		return nil
	}
	dto := &QuoteDTO{
		ID:            quote.ID,
		Reference:     quote.Reference,
		RetailerID:    quote.RetailerID,
		CustomerName:  quote.CustomerName,
		CustomerEmail: quote.CustomerEmail,
		Status:        quote.Status,
		Message:       quote.Message,
		ResponseNote:  quote.ResponseNote,
		LineItems:     make([]LineItemDTO, 0, len(quote.LineItems)),
		CreatedAt:     quote.CreatedAt,
		UpdatedAt:     quote.UpdatedAt,
	}
	for _, item := range quote.LineItems {
		dto.LineItems = append(dto.LineItems, LineItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			QuotedPrice: item.QuotedPrice,
		})
	}
	return dto
}

// CreateQuoteInput holds the validated payload to open a quote.
type CreateQuoteInput struct {
	RetailerID    *uuid.UUID
	CustomerName  string
	CustomerEmail string
	Message       *string
	LineItems     []CreateLineItemInput
}

// CreateLineItemInput is one requested product row.
type CreateLineItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// StatusUpdateInput carries an admin status decision. ResponseNote and
// LineItemPrices are optional and typically accompany the responded status.
type StatusUpdateInput struct {
	Status         enums.QuoteStatus
	ResponseNote   *string
	LineItemPrices map[uuid.UUID]decimal.Decimal
}

// QuoteListResult is a cursor page of quotes.
type QuoteListResult struct {
	Quotes     []QuoteDTO `json:"quotes"`
	NextCursor string     `json:"next_cursor,omitempty"`
}
