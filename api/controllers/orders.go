package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/api/middleware"
	"github.com/voltaria/voltaria-backend/api/responses"
	"github.com/voltaria/voltaria-backend/api/validators"
	"github.com/voltaria/voltaria-backend/internal/activity"
	"github.com/voltaria/voltaria-backend/internal/orders"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
)

type createOrderRequest struct {
	RetailerID    *string               `json:"retailer_id,omitempty"`
	CustomerName  string                `json:"customer_name" validate:"required"`
	CustomerEmail string                `json:"customer_email" validate:"required,email"`
	LineItems     []createOrderLineBody `json:"line_items" validate:"required,min=1,dive"`
}

type createOrderLineBody struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// OrderCreate places an order on behalf of a customer or retailer.
func OrderCreate(svc orders.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.CreateOrderInput{
			CustomerName:  strings.TrimSpace(payload.CustomerName),
			CustomerEmail: strings.TrimSpace(payload.CustomerEmail),
		}
		if payload.RetailerID != nil && strings.TrimSpace(*payload.RetailerID) != "" {
			retailerID, err := uuid.Parse(strings.TrimSpace(*payload.RetailerID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid retailer id"))
				return
			}
			input.RetailerID = &retailerID
		}
		for _, line := range payload.LineItems {
			productID, err := uuid.Parse(strings.TrimSpace(line.ProductID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
				return
			}
			input.LineItems = append(input.LineItems, orders.CreateLineItemInput{
				ProductID: productID,
				Quantity:  line.Quantity,
			})
		}

		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionCreate, "order", &order.ID, "created order "+order.Reference)
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// OrderList returns a cursor page of orders.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := orders.ListFilter{
			Reference: strings.TrimSpace(r.URL.Query().Get("reference")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			filter.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("retailerId")); raw != "" {
			retailerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid retailerId"))
				return
			}
			filter.RetailerID = &retailerID
		}

		result, err := svc.ListOrders(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OrderGet loads one order with its line items.
func OrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderSetStatus moves an order to a new status.
func OrderSetStatus(svc orders.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		order, err := svc.SetStatus(r.Context(), id, status, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionStatusChange, "order", &id,
			"order "+order.Reference+" set to "+string(status))
		responses.WriteSuccess(w, order)
	}
}

type allocateRequest struct {
	LineItemID string   `json:"line_item_id" validate:"required"`
	Serials    []string `json:"serials,omitempty"`
}

// OrderAllocate assigns serialized units to a line item.
func OrderAllocate(svc orders.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload allocateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineItemID, err := uuid.Parse(strings.TrimSpace(payload.LineItemID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line item id"))
			return
		}

		order, err := svc.AllocateSerials(r.Context(), id, orders.AllocateInput{
			LineItemID: lineItemID,
			Serials:    payload.Serials,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionUpdate, "order", &id,
			"allocated serials on order "+order.Reference)
		responses.WriteSuccess(w, order)
	}
}
