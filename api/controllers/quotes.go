package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltaria/voltaria-backend/api/middleware"
	"github.com/voltaria/voltaria-backend/api/responses"
	"github.com/voltaria/voltaria-backend/api/validators"
	"github.com/voltaria/voltaria-backend/internal/activity"
	"github.com/voltaria/voltaria-backend/internal/quotes"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
)

type createQuoteRequest struct {
	RetailerID    *string               `json:"retailer_id,omitempty"`
	CustomerName  string                `json:"customer_name" validate:"required"`
	CustomerEmail string                `json:"customer_email" validate:"required,email"`
	Message       *string               `json:"message,omitempty"`
	LineItems     []createOrderLineBody `json:"line_items" validate:"required,min=1,dive"`
}

// QuoteCreate files a quote request.
func QuoteCreate(svc quotes.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		var payload createQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := quotes.CreateQuoteInput{
			CustomerName:  strings.TrimSpace(payload.CustomerName),
			CustomerEmail: strings.TrimSpace(payload.CustomerEmail),
			Message:       payload.Message,
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
			input.LineItems = append(input.LineItems, quotes.CreateLineItemInput{
				ProductID: productID,
				Quantity:  line.Quantity,
			})
		}

		quote, err := svc.CreateQuote(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionCreate, "quote", &quote.ID, "created quote "+quote.Reference)
		responses.WriteSuccessStatus(w, http.StatusCreated, quote)
	}
}

// QuoteList returns a cursor page of quotes.
func QuoteList(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := quotes.ListFilter{
			Reference: strings.TrimSpace(r.URL.Query().Get("reference")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseQuoteStatus(raw)
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

		result, err := svc.ListQuotes(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// QuoteGet loads one quote with its line items.
func QuoteGet(svc quotes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.GetQuote(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

type quoteStatusRequest struct {
	Status         string            `json:"status" validate:"required"`
	ResponseNote   *string           `json:"response_note,omitempty"`
	LineItemPrices map[string]string `json:"line_item_prices,omitempty"`
}

// QuoteSetStatus moves a quote to a new status, optionally attaching quoted
// prices and a response note.
func QuoteSetStatus(svc quotes.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "quote service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload quoteStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseQuoteStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		input := quotes.StatusUpdateInput{
			Status:       status,
			ResponseNote: payload.ResponseNote,
		}
		if len(payload.LineItemPrices) > 0 {
			input.LineItemPrices = make(map[uuid.UUID]decimal.Decimal, len(payload.LineItemPrices))
			for rawID, rawPrice := range payload.LineItemPrices {
				lineItemID, err := uuid.Parse(strings.TrimSpace(rawID))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line item id"))
					return
				}
				price, err := decimal.NewFromString(strings.TrimSpace(rawPrice))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price"))
					return
				}
				input.LineItemPrices[lineItemID] = price
			}
		}

		quote, err := svc.SetStatus(r.Context(), id, input, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionStatusChange, "quote", &id,
			"quote "+quote.Reference+" set to "+string(status))
		responses.WriteSuccess(w, quote)
	}
}
