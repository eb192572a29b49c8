package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/api/responses"
	"github.com/voltaria/voltaria-backend/internal/activity"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	pkgerrors "github.com/voltaria/voltaria-backend/pkg/errors"
	"github.com/voltaria/voltaria-backend/pkg/logger"
)

// ActivityList returns a cursor page of audit entries.
func ActivityList(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter, err := activityFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ActivityExport streams the filtered audit log as CSV or a spreadsheet.
func ActivityExport(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "activity service unavailable"))
			return
		}

		format, err := activity.ParseExportFormat(r.URL.Query().Get("format"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter, err := activityFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stamp := time.Now().UTC().Format("2006-01-02")
		if format == activity.ExportFormatXLSX {
			w.Header().Set("Content-Type", xlsxContentType)
			w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="activity-%s.xlsx"`, stamp))
		} else {
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="activity-%s.csv"`, stamp))
		}

		if _, err := svc.Export(r.Context(), w, filter, format); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "activity export failed", err)
			}
			return
		}
	}
}

func activityFilterFromQuery(r *http.Request) (activity.ListFilter, error) {
	filter := activity.ListFilter{
		EntityType: strings.TrimSpace(r.URL.Query().Get("entityType")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("actorId")); raw != "" {
		actorID, err := uuid.Parse(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid actorId")
		}
		filter.ActorID = &actorID
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("action")); raw != "" {
		action, err := enums.ParseActivityAction(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action")
		}
		filter.Action = &action
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		from, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		to, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.To = &to
	}
	return filter, nil
}
