package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
)

type EntryDTO struct {
	ID          uuid.UUID            `json:"id"`
	BookingID   uuid.UUID            `json:"booking_id"`
	PayoutID    *uuid.UUID           `json:"payout_id,omitempty"`
	PaymentID   *uuid.UUID           `json:"payment_id,omitempty"`
	Category    enums.LedgerCategory `json:"category"`
	AmountCents int64                `json:"amount_cents"`
	Label       string               `json:"label"`
	ActorID     uuid.UUID            `json:"actor_id"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

func EntryFromModel(e *models.LedgerEntry) *EntryDTO {
	if e == nil {
		return nil
	}
	return &EntryDTO{
		ID:          e.ID,
		BookingID:   e.BookingID,
		PayoutID:    e.PayoutID,
		PaymentID:   e.PaymentID,
		Category:    e.Category,
		AmountCents: e.AmountCents,
		Label:       e.Label,
		ActorID:     e.ActorID,
		OccurredAt:  e.OccurredAt,
	}
}

func EntriesFromModels(entries []models.LedgerEntry) []EntryDTO {
	out := make([]EntryDTO, 0, len(entries))
	for i := range entries {
		out = append(out, *EntryFromModel(&entries[i]))
	}
	return out
}
