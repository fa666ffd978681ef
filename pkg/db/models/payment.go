package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/enums"
)

// Payment is the organizer's captured (or capturable) payment for a booking.
type Payment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BookingID     uuid.UUID           `gorm:"column:booking_id;type:uuid;not null;index"`
	AmountCents   int64               `gorm:"column:amount_cents;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;type:text;not null"`
	ProviderRef   string              `gorm:"column:provider_ref;not null"`
	FailureReason *string             `gorm:"column:failure_reason"`
	CapturedAt    *time.Time          `gorm:"column:captured_at"`
	Version       int64               `gorm:"column:version;not null;default:1"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
