package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/enums"
)

// LedgerEntry records one immutable fund movement. AmountCents is always a
// non-negative magnitude; Category implies the direction. Seq orders the
// entries of a single payout and is zero for payment entries.
type LedgerEntry struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	BookingID   uuid.UUID            `gorm:"column:booking_id;type:uuid;not null;index"`
	PayoutID    *uuid.UUID           `gorm:"column:payout_id;type:uuid;index"`
	PaymentID   *uuid.UUID           `gorm:"column:payment_id;type:uuid"`
	Category    enums.LedgerCategory `gorm:"column:category;type:text;not null"`
	AmountCents int64                `gorm:"column:amount_cents;not null"`
	Label       string               `gorm:"column:label;not null"`
	ActorID     uuid.UUID            `gorm:"column:actor_id;type:uuid;not null"`
	OccurredAt  time.Time            `gorm:"column:occurred_at;not null"`
	Seq         int64                `gorm:"column:seq;not null;default:0"`
}
