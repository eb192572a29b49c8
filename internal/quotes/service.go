package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db"
	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/outbox"
	"github.com/voltaria/voltaria-backend/pkg/outbox/payloads"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
)

// Service exposes the quote workflow. Quotes are the entry path for products
// flagged requires_quote; status changes are admin-driven and unguarded.
type Service interface {
	CreateQuote(ctx context.Context, input CreateQuoteInput) (*QuoteDTO, error)
	GetQuote(ctx context.Context, id uuid.UUID) (*QuoteDTO, error)
	ListQuotes(ctx context.Context, filter ListFilter, params pagination.Params) (*QuoteListResult, error)
	SetStatus(ctx context.Context, id uuid.UUID, input StatusUpdateInput, actor *outbox.ActorRef) (*QuoteDTO, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo     *Repository
	products productLoader
	dbClient *db.Client
	events   eventEmitter
	logg     *logger.Logger
}

// NewService constructs a quote service instance.
func NewService(repo *Repository, products productLoader, dbClient *db.Client, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("quote repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		products: products,
		dbClient: dbClient,
		events:   events,
		logg:     logg,
	}, nil
}

// CreateQuote opens a pending quote. Any product may be quoted; line items
// snapshot the product name and start without a quoted price.
func (s *service) CreateQuote(ctx context.Context, input CreateQuoteInput) (*QuoteDTO, error) {
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if len(input.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}

	quote := &models.Quote{
		ID:            uuid.New(),
		Reference:     newQuoteReference(),
		RetailerID:    input.RetailerID,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerEmail: strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		Status:        enums.QuoteStatusPending,
		Message:       input.Message,
	}

	for _, item := range input.LineItems {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
		}
		quote.LineItems = append(quote.LineItems, models.QuoteLineItem{
			ID:          uuid.New(),
			QuoteID:     quote.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
		})
	}

	created, err := s.repo.Create(ctx, quote)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating quote")
	}
	return toQuoteDTO(created), nil
}

// GetQuote loads one quote with line items.
func (s *service) GetQuote(ctx context.Context, id uuid.UUID) (*QuoteDTO, error) {
	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading quote")
	}
	return toQuoteDTO(quote), nil
}

// ListQuotes returns a cursor page of quotes.
func (s *service) ListQuotes(ctx context.Context, filter ListFilter, params pagination.Params) (*QuoteListResult, error) {
	quotes, nextCursor, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing quotes")
	}
	result := &QuoteListResult{Quotes: make([]QuoteDTO, 0, len(quotes)), NextCursor: nextCursor}
	for i := range quotes {
		result.Quotes = append(result.Quotes, *toQuoteDTO(&quotes[i]))
	}
	return result, nil
}

// SetStatus writes the new status directly. Any status may be set from any
// other; there is no transition guard. Quoted line prices and a response note
// may be attached in the same call.
func (s *service) SetStatus(ctx context.Context, id uuid.UUID, input StatusUpdateInput, actor *outbox.ActorRef) (*QuoteDTO, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid quote status")
	}

	quote, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quote not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading quote")
	}

	itemIDs := make(map[uuid.UUID]bool, len(quote.LineItems))
	for _, item := range quote.LineItems {
		itemIDs[item.ID] = true
	}
	for lineItemID, price := range input.LineItemPrices {
		if !itemIDs[lineItemID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item does not belong to this quote")
		}
		if price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quoted price cannot be negative")
		}
	}

	previous := quote.Status
	quote.Status = input.Status
	if input.ResponseNote != nil {
		note := strings.TrimSpace(*input.ResponseNote)
		if note != "" {
			quote.ResponseNote = &note
		}
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.Update(ctx, quote); err != nil {
			return err
		}
		for lineItemID, price := range input.LineItemPrices {
			if err := txRepo.UpdateLineItemPrice(ctx, lineItemID, price); err != nil {
				return err
			}
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventQuoteStatusChanged,
			AggregateType: enums.AggregateQuote,
			AggregateID:   quote.ID,
			Actor:         actor,
			Data: payloads.QuoteStatusChangedEvent{
				QuoteID:        quote.ID,
				Reference:      quote.Reference,
				CustomerEmail:  quote.CustomerEmail,
				PreviousStatus: previous,
				NewStatus:      input.Status,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating quote status")
	}

	return s.GetQuote(ctx, id)
}

func newQuoteReference() string {
	return "VQ-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
