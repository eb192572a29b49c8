package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/voltaria/voltaria-backend/api/responses"
	"github.com/voltaria/voltaria-backend/api/validators"
	"github.com/voltaria/voltaria-backend/internal/activity"
	"github.com/voltaria/voltaria-backend/internal/catalog"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
)

type createProductRequest struct {
	Name                  string           `json:"name" validate:"required"`
	Category              string           `json:"category" validate:"required"`
	Price                 decimal.Decimal  `json:"price" validate:"required"`
	NormalPrice           *decimal.Decimal `json:"normal_price,omitempty"`
	RetailerPrice         *decimal.Decimal `json:"retailer_price,omitempty"`
	RequiresQuote         bool             `json:"requires_quote"`
	WarrantyPeriodMonths  int              `json:"warranty_period_months" validate:"required,min=1"`
	RecommendedProductIDs []string         `json:"recommended_product_ids,omitempty"`
	IsActive              *bool            `json:"is_active,omitempty"`
}

func (req createProductRequest) toCreateInput() (catalog.CreateProductInput, error) {
	category, err := enums.ParseProductCategory(strings.TrimSpace(req.Category))
	if err != nil {
		return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}

	recommended, err := parseProductIDList(req.RecommendedProductIDs)
	if err != nil {
		return catalog.CreateProductInput{}, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return catalog.CreateProductInput{
		Name:                  strings.TrimSpace(req.Name),
		Category:              category,
		Price:                 req.Price,
		NormalPrice:           req.NormalPrice,
		RetailerPrice:         req.RetailerPrice,
		RequiresQuote:         req.RequiresQuote,
		WarrantyPeriodMonths:  req.WarrantyPeriodMonths,
		RecommendedProductIDs: recommended,
		IsActive:              isActive,
	}, nil
}

// ProductCreate adds a catalog product.
func ProductCreate(svc catalog.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionCreate, "product", &product.ID, "created product "+product.Name)
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductList returns a cursor page of products.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := catalog.ListFilter{
			NameSearch: strings.TrimSpace(r.URL.Query().Get("search")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category, err := enums.ParseProductCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			filter.Category = &category
		}
		activeOnly, err := queryBool(r, "activeOnly")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.ActiveOnly = activeOnly

		result, err := svc.ListProducts(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductGet loads one product.
func ProductGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type updateProductRequest struct {
	Name                  *string          `json:"name,omitempty"`
	Category              *string          `json:"category,omitempty"`
	Price                 *decimal.Decimal `json:"price,omitempty"`
	NormalPrice           *decimal.Decimal `json:"normal_price,omitempty"`
	RetailerPrice         *decimal.Decimal `json:"retailer_price,omitempty"`
	RequiresQuote         *bool            `json:"requires_quote,omitempty"`
	WarrantyPeriodMonths  *int             `json:"warranty_period_months,omitempty" validate:"omitempty,min=1"`
	RecommendedProductIDs *[]string        `json:"recommended_product_ids,omitempty"`
	IsActive              *bool            `json:"is_active,omitempty"`
}

// ProductUpdate applies a partial update to one product.
func ProductUpdate(svc catalog.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateProductInput{
			Name:                 payload.Name,
			Price:                payload.Price,
			NormalPrice:          payload.NormalPrice,
			RetailerPrice:        payload.RetailerPrice,
			RequiresQuote:        payload.RequiresQuote,
			WarrantyPeriodMonths: payload.WarrantyPeriodMonths,
			IsActive:             payload.IsActive,
		}
		if payload.Category != nil {
			category, err := enums.ParseProductCategory(strings.TrimSpace(*payload.Category))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			input.Category = &category
		}
		if payload.RecommendedProductIDs != nil {
			recommended, err := parseProductIDList(*payload.RecommendedProductIDs)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.RecommendedProductIDs = &recommended
		}

		product, err := svc.UpdateProduct(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionUpdate, "product", &id, "updated product "+product.Name)
		responses.WriteSuccess(w, product)
	}
}

// ProductDelete removes one product.
func ProductDelete(svc catalog.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionDelete, "product", &id, "deleted product")
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ProductResyncStock recounts one product's stock from its units.
func ProductResyncStock(svc catalog.Service, audit activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := parsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.ResyncStock(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recordActivity(r, audit, logg, enums.ActivityActionUpdate, "product", &id, "resynced stock counters")
		responses.WriteSuccess(w, product)
	}
}

func parseProductIDList(values []string) ([]uuid.UUID, error) {
	result := make([]uuid.UUID, 0, len(values))
	for _, raw := range values {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		parsed, err := uuid.Parse(trimmed)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		result = append(result, parsed)
	}
	return result, nil
}
