package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/api/responses"
	"github.com/eventloom/finance-backend/api/validators"
	"github.com/eventloom/finance-backend/internal/audit"
	"github.com/eventloom/finance-backend/pkg/enums"
	"github.com/eventloom/finance-backend/pkg/logger"
)

// ListAuditLogs filters by actor_id, resource_type, resource_id, action and
// since (RFC 3339).
func ListAuditLogs(svc AuditReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := validators.ParseQueryUUID(r, "actor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resourceID, err := validators.ParseQueryUUID(r, "resource_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resourceType, err := enumQuery(r, "resource_type", enums.ParseAuditResourceType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		since, err := validators.ParseQueryTime(r, "since")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := audit.ListFilter{
			ActorID:    derefUUID(actorID),
			ResourceID: derefUUID(resourceID),
			Action:     enums.AuditAction(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("action")))),
			Since:      since,
		}
		if resourceType != nil {
			filter.ResourceType = *resourceType
		}

		result, err := svc.ListAuditLogs(r.Context(), audit.ListParams{Filter: filter, Params: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, audit.FromList(result))
	}
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
