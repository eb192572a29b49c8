package enums

import "fmt"

// WarrantyStatus maps to the warranty_status enum in Postgres.
// Both approved and rejected are terminal.
type WarrantyStatus string

const (
	WarrantyStatusPending  WarrantyStatus = "pending"
	WarrantyStatusApproved WarrantyStatus = "approved"
	WarrantyStatusRejected WarrantyStatus = "rejected"
)

var validWarrantyStatuses = []WarrantyStatus{
	WarrantyStatusPending,
	WarrantyStatusApproved,
	WarrantyStatusRejected,
}

// IsValid reports whether the value is a known WarrantyStatus.
func (s WarrantyStatus) IsValid() bool {
	for _, candidate := range validWarrantyStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s WarrantyStatus) IsTerminal() bool {
	return s == WarrantyStatusApproved || s == WarrantyStatusRejected
}

// ParseWarrantyStatus converts raw input into a WarrantyStatus.
func ParseWarrantyStatus(value string) (WarrantyStatus, error) {
	for _, candidate := range validWarrantyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid warranty status %q", value)
}

// PurchaseType records how the registered unit was originally bought.
type PurchaseType string

const (
	PurchaseTypeDirect   PurchaseType = "direct"
	PurchaseTypeRetailer PurchaseType = "retailer"
	PurchaseTypeOrder    PurchaseType = "order"
)

var validPurchaseTypes = []PurchaseType{
	PurchaseTypeDirect,
	PurchaseTypeRetailer,
	PurchaseTypeOrder,
}

// IsValid reports whether the value is a known PurchaseType.
func (p PurchaseType) IsValid() bool {
	for _, candidate := range validPurchaseTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePurchaseType converts raw input into a PurchaseType.
func ParsePurchaseType(value string) (PurchaseType, error) {
	for _, candidate := range validPurchaseTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase type %q", value)
}

// WarrantyValidationState is the result classification of a serial lookup.
// Exactly one state applies to any serial at any point in time.
type WarrantyValidationState string

const (
	ValidationNotFound      WarrantyValidationState = "not_found"
	ValidationNotRegistered WarrantyValidationState = "not_registered"
	ValidationPending       WarrantyValidationState = "pending"
	ValidationRejected      WarrantyValidationState = "rejected"
	ValidationActive        WarrantyValidationState = "active"
	ValidationExpired       WarrantyValidationState = "expired"
)

var validWarrantyValidationStates = []WarrantyValidationState{
	ValidationNotFound,
	ValidationNotRegistered,
	ValidationPending,
	ValidationRejected,
	ValidationActive,
	ValidationExpired,
}

// IsValid reports whether the value is a known WarrantyValidationState.
func (s WarrantyValidationState) IsValid() bool {
	for _, candidate := range validWarrantyValidationStates {
		if candidate == s {
			return true
		}
	}
	return false
}
