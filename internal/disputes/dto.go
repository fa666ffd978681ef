package disputes

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
)

type DisputeDTO struct {
	ID             uuid.UUID           `json:"id"`
	BookingID      uuid.UUID           `json:"booking_id"`
	OpenedBy       uuid.UUID           `json:"opened_by"`
	Reason         string              `json:"reason"`
	Details        *string             `json:"details,omitempty"`
	Status         enums.DisputeStatus `json:"status"`
	ResolutionNote *string             `json:"resolution_note,omitempty"`
	ResolvedAt     *time.Time          `json:"resolved_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// OpenedDTO is returned by openDispute together with the mass-hold outcome,
// when one ran.
type OpenedDTO struct {
	Dispute DisputeDTO  `json:"dispute"`
	Holds   *HoldReport `json:"holds,omitempty"`
}

type DisputeListDTO struct {
	Items  []DisputeDTO `json:"items"`
	Cursor string       `json:"cursor,omitempty"`
}

func FromModel(d *models.Dispute) DisputeDTO {
	return DisputeDTO{
		ID:             d.ID,
		BookingID:      d.BookingID,
		OpenedBy:       d.OpenedBy,
		Reason:         d.Reason,
		Details:        d.Details,
		Status:         d.Status,
		ResolutionNote: d.ResolutionNote,
		ResolvedAt:     d.ResolvedAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func FromList(result *ListResult) DisputeListDTO {
	out := DisputeListDTO{Items: make([]DisputeDTO, 0, len(result.Items)), Cursor: result.Cursor}
	for i := range result.Items {
		out.Items = append(out.Items, FromModel(&result.Items[i]))
	}
	return out
}
