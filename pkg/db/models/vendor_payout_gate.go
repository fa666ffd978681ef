package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/enums"
)

// VendorPayoutGate is the per-vendor circuit breaker for payout approval.
type VendorPayoutGate struct {
	VendorID           uuid.UUID               `gorm:"column:vendor_id;type:uuid;primaryKey"`
	VerificationState  enums.VerificationState `gorm:"column:verification_state;type:text;not null"`
	PayoutEnabled      bool                    `gorm:"column:payout_enabled;not null;default:false"`
	ReviewNote         *string                 `gorm:"column:review_note"`
	DisabledReason     *string                 `gorm:"column:disabled_reason"`
	ProviderAccountRef *string                 `gorm:"column:provider_account_ref"`
	Version            int64                   `gorm:"column:version;not null;default:1"`
	CreatedAt          time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
