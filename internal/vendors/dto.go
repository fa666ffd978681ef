package vendors

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
)

// GateDTO is the read model for a vendor payout gate.
type GateDTO struct {
	VendorID           uuid.UUID               `json:"vendor_id"`
	VerificationState  enums.VerificationState `json:"verification_state"`
	PayoutEnabled      bool                    `json:"payout_enabled"`
	ReviewNote         *string                 `json:"review_note,omitempty"`
	DisabledReason     *string                 `json:"disabled_reason,omitempty"`
	ProviderAccountRef *string                 `json:"provider_account_ref,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
}

type GateChangeDTO struct {
	Gate    GateDTO                 `json:"gate"`
	From    enums.VerificationState `json:"from,omitempty"`
	Changed bool                    `json:"changed"`
}

func FromModel(g *models.VendorPayoutGate) GateDTO {
	return GateDTO{
		VendorID:           g.VendorID,
		VerificationState:  g.VerificationState,
		PayoutEnabled:      g.PayoutEnabled,
		ReviewNote:         g.ReviewNote,
		DisabledReason:     g.DisabledReason,
		ProviderAccountRef: g.ProviderAccountRef,
		CreatedAt:          g.CreatedAt,
		UpdatedAt:          g.UpdatedAt,
	}
}

func FromModels(rows []models.VendorPayoutGate) []GateDTO {
	out := make([]GateDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}

func FromChange(c *GateChange) GateChangeDTO {
	return GateChangeDTO{Gate: FromModel(c.Gate), From: c.From, Changed: c.Changed}
}
