package controllers

import (
	"net/http"
	"strings"

	"github.com/voltaria/voltaria-backend/api/responses"
	"github.com/voltaria/voltaria-backend/api/validators"
	"github.com/voltaria/voltaria-backend/internal/activity"
	"github.com/voltaria/voltaria-backend/internal/retailers"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
)

type createRetailerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password,omitempty"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	CompanyName string `json:"company_name" validate:"required"`
	Phone       string `json:"phone,omitempty"`
}

// RetailerCreate provisions a retailer account. When no password is supplied
// a temporary one is generated and returned once.
func RetailerCreate(svc retailers.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "retailer service unavailable"))
			return
		}

		var payload createRetailerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := retailers.CreateRetailerInput{
			Email:     strings.TrimSpace(payload.Email),
			Password:  payload.Password,
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
		}
		if company := strings.TrimSpace(payload.CompanyName); company != "" {
			input.CompanyName = &company
		}
		if phone := strings.TrimSpace(payload.Phone); phone != "" {
			input.Phone = &phone
		}

		retailer, err := svc.CreateRetailer(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionCreate, "retailer", &retailer.ID,
			"created retailer account "+retailer.Email)
		responses.WriteSuccessStatus(w, http.StatusCreated, retailer)
	}
}

// RetailerList returns a cursor page of retailer accounts.
func RetailerList(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "retailer service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		activeOnly, err := queryBool(r, "activeOnly")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := retailers.ListFilter{
			ActiveOnly:  activeOnly,
			CompanyName: strings.TrimSpace(r.URL.Query().Get("company")),
		}

		result, err := svc.ListRetailers(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RetailerGet loads one retailer account.
func RetailerGet(svc retailers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "retailer service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		retailer, err := svc.GetRetailer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retailer)
	}
}

type updateRetailerRequest struct {
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Password    *string `json:"password,omitempty"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// RetailerUpdate applies a partial update to a retailer account.
func RetailerUpdate(svc retailers.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "retailer service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateRetailerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		retailer, err := svc.UpdateRetailer(r.Context(), id, retailers.UpdateRetailerInput{
			Email:       payload.Email,
			Password:    payload.Password,
			FirstName:   payload.FirstName,
			LastName:    payload.LastName,
			CompanyName: payload.CompanyName,
			Phone:       payload.Phone,
			IsActive:    payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionUpdate, "retailer", &id,
			"updated retailer account "+retailer.Email)
		responses.WriteSuccess(w, retailer)
	}
}
