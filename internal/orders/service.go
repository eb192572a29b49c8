package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

// Service exposes the order workflow: creation, listing, unguarded status
// changes, and serial allocation during fulfillment.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, filter ListFilter, params pagination.Params) (*OrderListResult, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, actor *outbox.ActorRef) (*OrderDTO, error)
	AllocateSerials(ctx context.Context, orderID uuid.UUID, input AllocateInput) (*OrderDTO, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo       *Repository
	units      *inventory.Repository
	aggregator *inventory.Aggregator
	products   productLoader
	dbClient   *db.Client
	events     eventEmitter
	logg       *logger.Logger
}

// NewService constructs an order service instance.
func NewService(repo *Repository, units *inventory.Repository, aggregator *inventory.Aggregator, products productLoader, dbClient *db.Client, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if units == nil {
		return nil, fmt.Errorf("unit repository required")
	}
	if aggregator == nil {
		return nil, fmt.Errorf("aggregator required")
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
		repo:       repo,
		units:      units,
		aggregator: aggregator,
		products:   products,
		dbClient:   dbClient,
		events:     events,
		logg:       logg,
	}, nil
}

// CreateOrder records an order. Retailer pricing applies when the order is
// placed for a retailer account and the product carries a retailer price.
// Products flagged requires_quote must go through the quote workflow.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if len(input.LineItems) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item is required")
	}

	order := &models.Order{
		ID:            uuid.New(),
		Reference:     newOrderReference(),
		RetailerID:    input.RetailerID,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerEmail: strings.ToLower(strings.TrimSpace(input.CustomerEmail)),
		Status:        enums.OrderStatusPending,
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
		if product.RequiresQuote {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s requires a quote", product.Name))
		}

		unitPrice := product.Price
		if input.RetailerID != nil && product.RetailerPrice != nil {
			unitPrice = *product.RetailerPrice
		}

		order.LineItems = append(order.LineItems, models.OrderLineItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
		})
		order.TotalAmount = order.TotalAmount.Add(unitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}
	return toOrderDTO(created), nil
}

// GetOrder loads one order with line items.
func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return toOrderDTO(order), nil
}

// ListOrders returns a cursor page of orders.
func (s *service) ListOrders(ctx context.Context, filter ListFilter, params pagination.Params) (*OrderListResult, error) {
	orders, nextCursor, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	result := &OrderListResult{Orders: make([]OrderDTO, 0, len(orders)), NextCursor: nextCursor}
	for i := range orders {
		result.Orders = append(result.Orders, *toOrderDTO(&orders[i]))
	}
	return result, nil
}

// SetStatus writes the new status directly. Any status may be set from any
// other; there is no transition guard. Cancelling releases any serials
// allocated to the order back to stock.
func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, actor *outbox.ActorRef) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	previous := order.Status
	touchedProducts := make(map[uuid.UUID]bool)

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, status); err != nil {
			return err
		}
		if status == enums.OrderStatusCancelled && previous != enums.OrderStatusCancelled {
			txUnits := s.units.WithTx(tx)
			txRepo := s.repo.WithTx(tx)
			for _, item := range order.LineItems {
				released, err := txUnits.ReleaseByLineItem(ctx, item.ID)
				if err != nil {
					return err
				}
				if released > 0 {
					touchedProducts[item.ProductID] = true
				}
				if len(item.AllocatedSerials) > 0 {
					if err := txRepo.UpdateLineItemSerials(ctx, item.ID, []string{}); err != nil {
						return err
					}
				}
			}
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				Reference:      order.Reference,
				CustomerName:   order.CustomerName,
				CustomerEmail:  order.CustomerEmail,
				PreviousStatus: previous,
				NewStatus:      status,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}

	for productID := range touchedProducts {
		s.recalcAfterMutation(ctx, productID)
	}

	return s.GetOrder(ctx, id)
}

// AllocateSerials assigns units to a line item and marks them sold. When no
// serials are given, the oldest available units are picked. A request that
// cannot be fully satisfied allocates nothing.
func (s *service) AllocateSerials(ctx context.Context, orderID uuid.UUID, input AllocateInput) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	item, err := s.repo.FindLineItem(ctx, order.ID, input.LineItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading line item")
	}
	if len(item.AllocatedSerials) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "line item already allocated")
	}

	serials := input.Serials
	if len(serials) == 0 {
		serials, err = s.units.AvailableSerials(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "picking available units")
		}
	}
	if len(serials) != item.Quantity {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("need %d units, have %d", item.Quantity, len(serials)))
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		affected, err := s.units.WithTx(tx).MarkSold(ctx, item.ProductID, serials, item.ID)
		if err != nil {
			return err
		}
		if affected != int64(len(serials)) {
			return pkgerrors.New(pkgerrors.CodeConflict, "one or more serials are not available for this product")
		}
		return s.repo.WithTx(tx).UpdateLineItemSerials(ctx, item.ID, serials)
	})
	if err != nil {
		var domainErr *pkgerrors.Error
		if errors.As(err, &domainErr) {
			return nil, domainErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocating serials")
	}

	s.recalcAfterMutation(ctx, item.ProductID)

	return s.GetOrder(ctx, orderID)
}

// recalcAfterMutation recounts stock after a committed unit mutation. Failure
// is logged; the allocation stands until the next resync corrects the drift.
func (s *service) recalcAfterMutation(ctx context.Context, productID uuid.UUID) {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		_, recalcErr := s.aggregator.Recalculate(ctx, tx, productID)
		return recalcErr
	})
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": productID.String()})
		s.logg.Error(logCtx, "stock recount failed after allocation", err)
	}
}

func newOrderReference() string {
	return "VO-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
