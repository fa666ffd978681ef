package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/internal/ledger"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
)

type PaymentDTO struct {
	ID            uuid.UUID           `json:"id"`
	BookingID     uuid.UUID           `json:"booking_id"`
	AmountCents   int64               `json:"amount_cents"`
	Status        enums.PaymentStatus `json:"status"`
	ProviderRef   string              `json:"provider_ref"`
	FailureReason *string             `json:"failure_reason,omitempty"`
	CapturedAt    *time.Time          `json:"captured_at,omitempty"`
	Version       int64               `json:"version"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

type CaptureDTO struct {
	Payment     PaymentDTO          `json:"payment"`
	From        enums.PaymentStatus `json:"from"`
	Captured    bool                `json:"captured"`
	Changed     bool                `json:"changed"`
	LedgerEntry *ledger.EntryDTO    `json:"ledger_entry,omitempty"`
}

func FromModel(p *models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:            p.ID,
		BookingID:     p.BookingID,
		AmountCents:   p.AmountCents,
		Status:        p.Status,
		ProviderRef:   p.ProviderRef,
		FailureReason: p.FailureReason,
		CapturedAt:    p.CapturedAt,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func FromCapture(result *CaptureResult) CaptureDTO {
	return CaptureDTO{
		Payment:     FromModel(result.Payment),
		From:        result.From,
		Captured:    result.Captured,
		Changed:     result.Changed,
		LedgerEntry: ledger.EntryFromModel(result.Entry),
	}
}
