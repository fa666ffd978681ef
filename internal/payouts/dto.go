package payouts

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/internal/ledger"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
)

// PayoutDTO is the read model for a single payout.
type PayoutDTO struct {
	ID                  uuid.UUID          `json:"id"`
	BookingID           uuid.UUID          `json:"booking_id"`
	VendorID            uuid.UUID          `json:"vendor_id"`
	Type                enums.PayoutType   `json:"type"`
	AmountCents         int64              `json:"amount_cents"`
	Status              enums.PayoutStatus `json:"status"`
	RequestedAt         time.Time          `json:"requested_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
	ProviderTransferRef *string            `json:"provider_transfer_ref,omitempty"`
	TransferAttempts    int                `json:"transfer_attempts"`
	LastTransferError   *string            `json:"last_transfer_error,omitempty"`
	NextTransferAt      *time.Time         `json:"next_transfer_at,omitempty"`
	PaidAt              *time.Time         `json:"paid_at,omitempty"`
}

// TransitionDTO is returned by every payout command.
type TransitionDTO struct {
	Payout      PayoutDTO          `json:"payout"`
	From        enums.PayoutStatus `json:"from,omitempty"`
	To          enums.PayoutStatus `json:"to"`
	Changed     bool               `json:"changed"`
	LedgerEntry *ledger.EntryDTO   `json:"ledger_entry,omitempty"`
}

type PayoutListDTO struct {
	Items  []PayoutDTO `json:"items"`
	Cursor string      `json:"cursor,omitempty"`
}

func FromModel(p *models.Payout) PayoutDTO {
	return PayoutDTO{
		ID:                  p.ID,
		BookingID:           p.BookingID,
		VendorID:            p.VendorID,
		Type:                p.Type,
		AmountCents:         p.AmountCents,
		Status:              p.Status,
		RequestedAt:         p.RequestedAt,
		UpdatedAt:           p.UpdatedAt,
		ProviderTransferRef: p.ProviderTransferRef,
		TransferAttempts:    p.TransferAttempts,
		LastTransferError:   p.LastTransferError,
		NextTransferAt:      p.NextTransferAt,
		PaidAt:              p.PaidAt,
	}
}

func FromModels(rows []models.Payout) []PayoutDTO {
	out := make([]PayoutDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

func FromTransition(t *Transition) TransitionDTO {
	return TransitionDTO{
		Payout:      FromModel(t.Payout),
		From:        t.From,
		To:          t.To,
		Changed:     t.Changed,
		LedgerEntry: ledger.EntryFromModel(t.Entry),
	}
}

func FromList(result *ListResult) PayoutListDTO {
	return PayoutListDTO{Items: FromModels(result.Items), Cursor: result.Cursor}
}
