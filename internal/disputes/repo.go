package disputes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/pkg/db"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	"github.com/eventloom/finance-backend/pkg/pagination"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, dispute *models.Dispute) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Dispute, error)
	Update(ctx context.Context, dispute *models.Dispute, updates map[string]any) error
	CountByStatus(ctx context.Context, statuses ...enums.DisputeStatus) (int64, error)
}

type ListFilter struct {
	Status    *enums.DisputeStatus
	BookingID *uuid.UUID
	OpenedBy  *uuid.UUID
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

func (r *repository) Create(ctx context.Context, dispute *models.Dispute) error {
	return r.db.WithContext(ctx).Create(dispute).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var dispute models.Dispute
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&dispute).Error; err != nil {
		return nil, err
	}
	return &dispute, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Dispute, error) {
	query := r.db.WithContext(ctx).Model(&models.Dispute{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.BookingID != nil {
		query = query.Where("booking_id = ?", *filter.BookingID)
	}
	if filter.OpenedBy != nil {
		query = query.Where("opened_by = ?", *filter.OpenedBy)
	}
	var rows []models.Dispute
	err := pagination.Apply(query, "created_at", cursor, limit).Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, dispute *models.Dispute, updates map[string]any) error {
	if err := db.UpdateVersioned(r.db.WithContext(ctx), &models.Dispute{}, dispute.ID, dispute.Version, updates); err != nil {
		return err
	}
	dispute.Version++
	return nil
}

func (r *repository) CountByStatus(ctx context.Context, statuses ...enums.DisputeStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Dispute{}).
		Where("status IN ?", statuses).
		Count(&count).Error
	return count, err
}
