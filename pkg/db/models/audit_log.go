package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/enums"
)

type AuditLog struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ActorID      uuid.UUID               `gorm:"column:actor_id;type:uuid;not null;index"`
	Action       enums.AuditAction       `gorm:"column:action;type:text;not null"`
	ResourceType enums.AuditResourceType `gorm:"column:resource_type;type:text;not null"`
	ResourceID   uuid.UUID               `gorm:"column:resource_id;type:uuid;not null;index"`
	Metadata     json.RawMessage         `gorm:"column:metadata;type:jsonb"`
	OccurredAt   time.Time               `gorm:"column:occurred_at;not null;index"`
}
