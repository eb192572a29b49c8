package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/api/middleware"
	"github.com/voltaria/voltaria-backend/internal/activity"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	"github.com/voltaria/voltaria-backend/pkg/logger"
)

// recordActivity writes an audit entry for the authenticated actor. A failed
// write never fails the request; the mutation already happened.
func recordActivity(r *http.Request, svc activity.Service, logg *logger.Logger, action enums.ActivityAction, entityType string, entityID *uuid.UUID, detail string) {
	if svc == nil {
		return
	}
	actorID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return
	}

	entry := activity.Entry{
		ActorID:    actorID,
		ActorEmail: middleware.EmailFromContext(r.Context()),
		Action:     action,
		EntityType: entityType,
		Detail:     detail,
	}
	if entityID != nil {
		id := entityID.String()
		entry.EntityID = &id
	}

	if err := svc.Record(r.Context(), entry); err != nil && logg != nil {
		logg.Error(r.Context(), "recording activity failed", err)
	}
}
