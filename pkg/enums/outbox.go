package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateWarranty OutboxAggregateType = "warranty"
	AggregateOrder    OutboxAggregateType = "order"
	AggregateQuote    OutboxAggregateType = "quote"
	AggregateProduct  OutboxAggregateType = "product"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateWarranty,
	AggregateOrder,
	AggregateQuote,
	AggregateProduct,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventWarrantyRegistered  OutboxEventType = "warranty_registered"
	EventWarrantyApproved    OutboxEventType = "warranty_approved"
	EventWarrantyRejected    OutboxEventType = "warranty_rejected"
	EventOrderStatusChanged  OutboxEventType = "order_status_changed"
	EventQuoteStatusChanged  OutboxEventType = "quote_status_changed"
	EventStockResynced       OutboxEventType = "stock_resynced"
	EventNotificationRequest OutboxEventType = "notification_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventWarrantyRegistered,
	EventWarrantyApproved,
	EventWarrantyRejected,
	EventOrderStatusChanged,
	EventQuoteStatusChanged,
	EventStockResynced,
	EventNotificationRequest,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
