package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/enums"
)

// Payout is one vendor disbursement (reservation or final) for a booking.
// The transfer fields are owned by the payout worker.
type Payout struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	BookingID           uuid.UUID          `gorm:"column:booking_id;type:uuid;not null;index"`
	VendorID            uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null;index"`
	Type                enums.PayoutType   `gorm:"column:type;type:text;not null"`
	AmountCents         int64              `gorm:"column:amount_cents;not null"`
	Status              enums.PayoutStatus `gorm:"column:status;type:text;not null;index"`
	Version             int64              `gorm:"column:version;not null;default:1"`
	RequestedAt         time.Time          `gorm:"column:requested_at;not null"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
	ProviderTransferRef *string            `gorm:"column:provider_transfer_ref"`
	TransferAttempts    int                `gorm:"column:transfer_attempts;not null;default:0"`
	LastTransferError   *string            `gorm:"column:last_transfer_error"`
	NextTransferAt      *time.Time         `gorm:"column:next_transfer_at"`
	PaidAt              *time.Time         `gorm:"column:paid_at"`
}
