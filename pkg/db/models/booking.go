package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/enums"
)

// Booking is the contracted deal between an organizer and a vendor.
// FundsVersion is bumped whenever a payout starts counting against
// TotalCents, which serializes conservation checks per booking.
type Booking struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrganizerID        uuid.UUID          `gorm:"column:organizer_id;type:uuid;not null;index"`
	VendorID           uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null;index"`
	EventRef           string             `gorm:"column:event_ref;not null"`
	TotalCents         int64              `gorm:"column:total_cents;not null"`
	State              enums.BookingState `gorm:"column:state;type:text;not null;index"`
	CancellationReason *string            `gorm:"column:cancellation_reason"`
	CanceledAt         *time.Time         `gorm:"column:canceled_at"`
	Version            int64              `gorm:"column:version;not null;default:1"`
	FundsVersion       int64              `gorm:"column:funds_version;not null;default:1"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	Milestones []BookingMilestone `gorm:"foreignKey:BookingID"`
}

// BookingMilestone is an append-only, informational timeline record.
type BookingMilestone struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BookingID   uuid.UUID `gorm:"column:booking_id;type:uuid;not null;index"`
	Label       string    `gorm:"column:label;not null"`
	Description string    `gorm:"column:description;not null"`
	OccurredAt  time.Time `gorm:"column:occurred_at;not null"`
}
