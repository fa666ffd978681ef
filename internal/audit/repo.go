package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	"github.com/eventloom/finance-backend/pkg/pagination"
)

// Repository persists audit rows. Rows are never updated.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.AuditLog, error)
	Recent(ctx context.Context, n int) ([]models.AuditLog, error)
}

// ListFilter narrows audit queries. Zero values are ignored.
type ListFilter struct {
	ActorID      uuid.UUID
	ResourceType enums.AuditResourceType
	ResourceID   uuid.UUID
	Action       enums.AuditAction
	Since        *time.Time
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.AuditLog, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.ActorID != uuid.Nil {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != uuid.Nil {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Since != nil {
		query = query.Where("occurred_at >= ?", *filter.Since)
	}

	var rows []models.AuditLog
	if err := pagination.Apply(query, "occurred_at", cursor, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Recent(ctx context.Context, n int) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	err := r.db.WithContext(ctx).
		Order("occurred_at DESC").
		Order("id DESC").
		Limit(pagination.NormalizeLimit(n)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
