package warranties

import (
	"time"

	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
)

// WarrantyDTO is the API representation of a warranty registration.
type WarrantyDTO struct {
	ID                   uuid.UUID            `json:"id"`
	ProductID            uuid.UUID            `json:"product_id"`
	UnitID               uuid.UUID            `json:"unit_id"`
	ProductName          string               `json:"product_name"`
	ModelNumber          string               `json:"model_number"`
	SerialNumber         string               `json:"serial_number"`
	PurchaserName        string               `json:"purchaser_name"`
	PurchaserEmail       string               `json:"purchaser_email"`
	PurchaserPhone       *string              `json:"purchaser_phone,omitempty"`
	PurchaseDate         time.Time            `json:"purchase_date"`
	PurchaseType         enums.PurchaseType   `json:"purchase_type"`
	Status               enums.WarrantyStatus `json:"status"`
	WarrantyPeriodMonths int                  `json:"warranty_period_months"`
	WarrantyStartDate    *time.Time           `json:"warranty_start_date,omitempty"`
	WarrantyEndDate      *time.Time           `json:"warranty_end_date,omitempty"`
	RejectionReason      *string              `json:"rejection_reason,omitempty"`
	CertificateURL       *string              `json:"certificate_url,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

func toWarrantyDTO(warranty *models.Warranty) *WarrantyDTO {
	if warranty == nil {
		return nil
	}
	return &WarrantyDTO{
		ID:                   warranty.ID,
		ProductID:            warranty.ProductID,
		UnitID:               warranty.UnitID,
		ProductName:          warranty.ProductName,
		ModelNumber:          warranty.ModelNumber,
		SerialNumber:         warranty.SerialNumber,
		PurchaserName:        warranty.PurchaserName,
		PurchaserEmail:       warranty.PurchaserEmail,
		PurchaserPhone:       warranty.PurchaserPhone,
		PurchaseDate:         warranty.PurchaseDate,
		PurchaseType:         warranty.PurchaseType,
		Status:               warranty.Status,
		WarrantyPeriodMonths: warranty.WarrantyPeriodMonths,
		WarrantyStartDate:    warranty.WarrantyStartDate,
		WarrantyEndDate:      warranty.WarrantyEndDate,
		RejectionReason:      warranty.RejectionReason,
		CertificateURL:       warranty.CertificateURL,
		CreatedAt:            warranty.CreatedAt,
		UpdatedAt:            warranty.UpdatedAt,
	}
}

// RegisterInput is the public registration payload.
type RegisterInput struct {
	SerialNumber   string
	PurchaserName  string
	PurchaserEmail string
	PurchaserPhone *string
	PurchaseDate   time.Time
	PurchaseType   enums.PurchaseType
}

// ValidationResult classifies a serial lookup. Exactly one state applies;
// warranty details are present for every state past not_found.
type ValidationResult struct {
	State           enums.WarrantyValidationState `json:"state"`
	SerialNumber    string                        `json:"serial_number"`
	ProductName     string                        `json:"product_name,omitempty"`
	ModelNumber     string                        `json:"model_number,omitempty"`
	Status          *enums.WarrantyStatus         `json:"status,omitempty"`
	WarrantyEndDate *time.Time                    `json:"warranty_end_date,omitempty"`
	DaysRemaining   *int                          `json:"days_remaining,omitempty"`
	RejectionReason *string                       `json:"rejection_reason,omitempty"`
}

// WarrantyListResult is a cursor page of warranties.
type WarrantyListResult struct {
	Warranties []WarrantyDTO `json:"warranties"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// StatusCounts is the per-status warranty tally for the dashboard.
type StatusCounts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}
