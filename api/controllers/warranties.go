package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/voltaria/voltaria-backend/api/middleware"
	"github.com/voltaria/voltaria-backend/api/responses"
	"github.com/voltaria/voltaria-backend/api/validators"
	"github.com/voltaria/voltaria-backend/internal/activity"
	"github.com/voltaria/voltaria-backend/internal/warranties"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
)

type registerWarrantyRequest struct {
	SerialNumber   string  `json:"serial_number" validate:"required"`
	PurchaserName  string  `json:"purchaser_name" validate:"required"`
	PurchaserEmail string  `json:"purchaser_email" validate:"required,email"`
	PurchaserPhone *string `json:"purchaser_phone,omitempty"`
	PurchaseDate   string  `json:"purchase_date" validate:"required"`
	PurchaseType   string  `json:"purchase_type" validate:"required"`
}

// WarrantyRegister files a warranty registration for a serial number.
func WarrantyRegister(svc warranties.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warranty service unavailable"))
			return
		}

		var payload registerWarrantyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchaseDate, err := parseDate(payload.PurchaseDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchaseType, err := enums.ParsePurchaseType(strings.TrimSpace(payload.PurchaseType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase type"))
			return
		}

		warranty, err := svc.Register(r.Context(), warranties.RegisterInput{
			SerialNumber:   strings.TrimSpace(payload.SerialNumber),
			PurchaserName:  strings.TrimSpace(payload.PurchaserName),
			PurchaserEmail: strings.TrimSpace(payload.PurchaserEmail),
			PurchaserPhone: payload.PurchaserPhone,
			PurchaseDate:   purchaseDate,
			PurchaseType:   purchaseType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionCreate, "warranty", &warranty.ID,
			"registered warranty for serial "+warranty.SerialNumber)
		responses.WriteSuccessStatus(w, http.StatusCreated, warranty)
	}
}

// WarrantyList returns a cursor page of warranty registrations.
func WarrantyList(svc warranties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warranty service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := warranties.ListFilter{
			SerialNumber:   strings.TrimSpace(r.URL.Query().Get("serialNumber")),
			PurchaserEmail: strings.TrimSpace(r.URL.Query().Get("purchaserEmail")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseWarrantyStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filter.Status = &status
		}

		result, err := svc.ListWarranties(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// WarrantyGet loads one warranty registration.
func WarrantyGet(svc warranties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warranty service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		warranty, err := svc.GetWarranty(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, warranty)
	}
}

type warrantyDecisionRequest struct {
	Action          string `json:"action" validate:"required,oneof=approve reject"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// WarrantyDecision approves or rejects a pending registration.
func WarrantyDecision(svc warranties.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warranty service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload warrantyDecisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())

		var warranty *warranties.WarrantyDTO
		var detail string
		switch payload.Action {
		case "approve":
			warranty, err = svc.Approve(r.Context(), id, actor)
			detail = "approved warranty"
		case "reject":
			warranty, err = svc.Reject(r.Context(), id, strings.TrimSpace(payload.RejectionReason), actor)
			detail = "rejected warranty"
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "action must be approve or reject")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionStatusChange, "warranty", &id,
			detail+" for serial "+warranty.SerialNumber)
		responses.WriteSuccess(w, warranty)
	}
}

// WarrantyValidate classifies a serial number for the public lookup page.
func WarrantyValidate(svc warranties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warranty service unavailable"))
			return
		}

		serial := strings.TrimSpace(r.URL.Query().Get("serialNumber"))
		if serial == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "serialNumber query parameter required"))
			return
		}

		result, err := svc.Validate(r.Context(), serial)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// WarrantyCounts reports the per-status warranty tally.
func WarrantyCounts(svc warranties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warranty service unavailable"))
			return
		}

		counts, err := svc.CountByStatus(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, counts)
	}
}

func parseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date, expected YYYY-MM-DD")
	}
	return parsed, nil
}
