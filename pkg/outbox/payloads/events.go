package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// WarrantyRegisteredEvent signals a new pending warranty registration.
type WarrantyRegisteredEvent struct {
	WarrantyID     uuid.UUID `json:"warranty_id"`
	ProductID      uuid.UUID `json:"product_id"`
	SerialNumber   string    `json:"serial_number"`
	ProductName    string    `json:"product_name"`
	PurchaserEmail string    `json:"purchaser_email"`
}

// WarrantyDecisionEvent is emitted when an admin approves or rejects a warranty.
type WarrantyDecisionEvent struct {
	WarrantyID      uuid.UUID            `json:"warranty_id"`
	SerialNumber    string               `json:"serial_number"`
	ProductName     string               `json:"product_name"`
	PurchaserName   string               `json:"purchaser_name"`
	PurchaserEmail  string               `json:"purchaser_email"`
	Status          enums.WarrantyStatus `json:"status"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	WarrantyEndDate *time.Time           `json:"warranty_end_date,omitempty"`
	CertificateURL  *string              `json:"certificate_url,omitempty"`
}

// OrderStatusChangedEvent reports an admin-driven order status transition.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	Reference      string            `json:"reference"`
	CustomerName   string            `json:"customer_name"`
	CustomerEmail  string            `json:"customer_email"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	NewStatus      enums.OrderStatus `json:"new_status"`
}

// QuoteStatusChangedEvent reports an admin-driven quote status transition.
type QuoteStatusChangedEvent struct {
	QuoteID        uuid.UUID         `json:"quote_id"`
	Reference      string            `json:"reference"`
	CustomerEmail  string            `json:"customer_email"`
	PreviousStatus enums.QuoteStatus `json:"previous_status"`
	NewStatus      enums.QuoteStatus `json:"new_status"`
}

// StockResyncedEvent records the counters written by a stock recalculation.
type StockResyncedEvent struct {
	ProductID    uuid.UUID `json:"product_id"`
	Stock        int       `json:"stock"`
	OfflineStock int       `json:"offline_stock"`
}

// NotificationRequestedEvent tells the worker to persist and mail a notification.
type NotificationRequestedEvent struct {
	RecipientEmail string                 `json:"recipient_email"`
	Type           enums.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	Link           *string                `json:"link,omitempty"`
}
