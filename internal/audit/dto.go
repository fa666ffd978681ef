package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
)

type EntryDTO struct {
	ID           uuid.UUID               `json:"id"`
	ActorID      uuid.UUID               `json:"actor_id"`
	Action       enums.AuditAction       `json:"action"`
	ResourceType enums.AuditResourceType `json:"resource_type"`
	ResourceID   uuid.UUID               `json:"resource_id"`
	Metadata     json.RawMessage         `json:"metadata,omitempty"`
	OccurredAt   time.Time               `json:"occurred_at"`
}

type ListDTO struct {
	Items  []EntryDTO `json:"items"`
	Cursor string     `json:"cursor,omitempty"`
}

func FromModel(row models.AuditLog) EntryDTO {
	return EntryDTO{
		ID:           row.ID,
		ActorID:      row.ActorID,
		Action:       row.Action,
		ResourceType: row.ResourceType,
		ResourceID:   row.ResourceID,
		Metadata:     row.Metadata,
		OccurredAt:   row.OccurredAt,
	}
}

func FromModels(rows []models.AuditLog) []EntryDTO {
	out := make([]EntryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out
}

func FromList(result *ListResult) ListDTO {
	if result == nil {
		return ListDTO{Items: []EntryDTO{}}
	}
	return ListDTO{Items: FromModels(result.Items), Cursor: result.Cursor}
}
