package bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
)

// MilestoneDTO is one timeline row.
type MilestoneDTO struct {
	Label       string    `json:"label"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingDTO is the read model returned by getBooking and listBookings.
type BookingDTO struct {
	ID                 uuid.UUID          `json:"id"`
	OrganizerID        uuid.UUID          `json:"organizer_id"`
	VendorID           uuid.UUID          `json:"vendor_id"`
	EventRef           string             `json:"event_ref"`
	TotalCents         int64              `json:"total_cents"`
	State              enums.BookingState `json:"state"`
	CancellationReason *string            `json:"cancellation_reason,omitempty"`
	CanceledAt         *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	Milestones         []MilestoneDTO     `json:"milestones,omitempty"`
}

// BookingListDTO wraps one page of bookings.
type BookingListDTO struct {
	Items  []BookingDTO `json:"items"`
	Cursor string       `json:"cursor,omitempty"`
}

func FromModel(b *models.Booking) BookingDTO {
	dto := BookingDTO{
		ID:                 b.ID,
		OrganizerID:        b.OrganizerID,
		VendorID:           b.VendorID,
		EventRef:           b.EventRef,
		TotalCents:         b.TotalCents,
		State:              b.State,
		CancellationReason: b.CancellationReason,
		CanceledAt:         b.CanceledAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	for _, m := range b.Milestones {
		dto.Milestones = append(dto.Milestones, MilestoneDTO{
			Label:       m.Label,
			Description: m.Description,
			OccurredAt:  m.OccurredAt,
		})
	}
	return dto
}

func FromList(result *ListResult) BookingListDTO {
	out := BookingListDTO{Items: make([]BookingDTO, 0, len(result.Items)), Cursor: result.Cursor}
	for i := range result.Items {
		out.Items = append(out.Items, FromModel(&result.Items[i]))
	}
	return out
}

// TransitionDTO is returned by transitionBooking and cancelBooking.
type TransitionDTO struct {
	Booking BookingDTO         `json:"booking"`
	From    enums.BookingState `json:"from"`
}

func FromTransition(t *TransitionResult) TransitionDTO {
	return TransitionDTO{Booking: FromModel(t.Booking), From: t.From}
}
