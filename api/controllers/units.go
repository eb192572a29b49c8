package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/api/responses"
	"github.com/voltaria/voltaria-backend/api/validators"
	"github.com/voltaria/voltaria-backend/internal/activity"
	"github.com/voltaria/voltaria-backend/internal/inventory"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type addUnitsRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Units     []addUnitRowBody `json:"units" validate:"required,min=1,dive"`
}

type addUnitRowBody struct {
	SerialNumber      string     `json:"serial_number" validate:"required"`
	ModelNumber       string     `json:"model_number" validate:"required"`
	StockChannel      string     `json:"stock_channel"`
	ManufacturingDate *time.Time `json:"manufacturing_date,omitempty"`
}

// UnitsAdd registers a batch of serialized units against a product.
func UnitsAdd(svc inventory.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload addUnitsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		rows := make([]inventory.AddUnitInput, 0, len(payload.Units))
		for _, row := range payload.Units {
			rows = append(rows, inventory.AddUnitInput{
				SerialNumber:      row.SerialNumber,
				ModelNumber:       strings.TrimSpace(row.ModelNumber),
				StockChannel:      enums.StockChannel(strings.TrimSpace(row.StockChannel)),
				ManufacturingDate: row.ManufacturingDate,
			})
		}

		result, err := svc.AddUnits(r.Context(), productID, rows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionCreate, "product_unit", &productID,
			fmt.Sprintf("registered %d unit(s), %d rejected", len(result.Created), len(result.Failed)))
		responses.WriteSuccess(w, result)
	}
}

type updateUnitRequest struct {
	ModelNumber       *string    `json:"model_number,omitempty"`
	Status            *string    `json:"status,omitempty"`
	StockChannel      *string    `json:"stock_channel,omitempty"`
	ManufacturingDate *time.Time `json:"manufacturing_date,omitempty"`
}

// UnitUpdate mutates one unit's status, channel, or model fields.
func UnitUpdate(svc inventory.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		unitID, err := parsePathUUID(r, "unitId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateUnitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventory.UpdateUnitInput{
			ModelNumber:       payload.ModelNumber,
			ManufacturingDate: payload.ManufacturingDate,
		}
		if payload.Status != nil {
			status, err := enums.ParseUnitStatus(strings.TrimSpace(*payload.Status))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}
		if payload.StockChannel != nil {
			channel, err := enums.ParseStockChannel(strings.TrimSpace(*payload.StockChannel))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stock channel"))
				return
			}
			input.StockChannel = &channel
		}

		unit, err := svc.UpdateUnit(r.Context(), unitID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionUpdate, "product_unit", &unitID, "updated unit "+unit.SerialNumber)
		responses.WriteSuccess(w, unit)
	}
}

// UnitDelete removes one unit.
func UnitDelete(svc inventory.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		unitID, err := parsePathUUID(r, "unitId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteUnit(r.Context(), unitID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionDelete, "product_unit", &unitID, "deleted unit")
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// UnitsByProduct lists a product's units, cursor paginated.
func UnitsByProduct(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := parsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := inventory.ListFilter{ProductID: &productID}
		if err := applyUnitQueryFilter(r, &filter); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListUnits(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// UnitBySerial looks one unit up by serial number.
func UnitBySerial(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		unit, err := svc.GetUnitBySerial(r.Context(), chi.URLParam(r, "serialNumber"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unit)
	}
}

// UnitsExport streams the filtered unit list as a spreadsheet.
func UnitsExport(svc inventory.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		filter := inventory.ListFilter{}
		if raw := strings.TrimSpace(r.URL.Query().Get("productId")); raw != "" {
			productID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid productId"))
				return
			}
			filter.ProductID = &productID
		}
		if err := applyUnitQueryFilter(r, &filter); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="product-units-%s.xlsx"`, time.Now().UTC().Format("2006-01-02")))

		count, err := svc.ExportUnits(r.Context(), w, filter)
		if err != nil {
			// Headers may already be on the wire; log instead of rewriting the body.
			if logg != nil {
				logg.Error(r.Context(), "unit export failed", err)
			}
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionExport, "product_unit", nil,
			fmt.Sprintf("exported %d unit(s)", count))
	}
}

func applyUnitQueryFilter(r *http.Request, filter *inventory.ListFilter) error {
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseUnitStatus(raw)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("stockChannel")); raw != "" {
		channel, err := enums.ParseStockChannel(raw)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stockChannel")
		}
		filter.StockChannel = &channel
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("serialPrefix")); raw != "" {
		filter.SerialPrefix = raw
	}
	return nil
}
