package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/enums"
)

type Dispute struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BookingID      uuid.UUID           `gorm:"column:booking_id;type:uuid;not null;index"`
	OpenedBy       uuid.UUID           `gorm:"column:opened_by;type:uuid;not null;index"`
	Reason         string              `gorm:"column:reason;not null"`
	Details        *string             `gorm:"column:details"`
	Status         enums.DisputeStatus `gorm:"column:status;type:text;not null;index"`
	ResolutionNote *string             `gorm:"column:resolution_note"`
	ResolvedAt     *time.Time          `gorm:"column:resolved_at"`
	Version        int64               `gorm:"column:version;not null;default:1"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
