package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/pkg/db"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	"github.com/eventloom/finance-backend/pkg/pagination"
)

// Repository persists payouts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payout *models.Payout) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Payout, error)
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Payout, error)
	ListDueForTransfer(ctx context.Context, now time.Time, maxAttempts, limit int) ([]models.Payout, error)
	Update(ctx context.Context, payout *models.Payout, updates map[string]any) error
	SumByStatus(ctx context.Context, statuses ...enums.PayoutStatus) (int64, error)
	CountByStatus(ctx context.Context, statuses ...enums.PayoutStatus) (int64, error)
}

// ListFilter narrows listPayouts. Nil fields are ignored.
type ListFilter struct {
	Status    *enums.PayoutStatus
	Type      *enums.PayoutType
	BookingID *uuid.UUID
	VendorID  *uuid.UUID
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

func (r *repository) Create(ctx context.Context, payout *models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Payout, error) {
	var rows []models.Payout
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("requested_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Payout, error) {
	query := r.db.WithContext(ctx).Model(&models.Payout{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.BookingID != nil {
		query = query.Where("booking_id = ?", *filter.BookingID)
	}
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	var rows []models.Payout
	err := pagination.Apply(query, "requested_at", cursor, limit).Find(&rows).Error
	return rows, err
}

// ListDueForTransfer returns approved payouts the transfer loop should try
// now: never transferred, due, and under the attempt ceiling.
func (r *repository) ListDueForTransfer(ctx context.Context, now time.Time, maxAttempts, limit int) ([]models.Payout, error) {
	var rows []models.Payout
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.PayoutStatusApproved).
		Where("provider_transfer_ref IS NULL").
		Where("next_transfer_at IS NULL OR next_transfer_at <= ?", now).
		Where("transfer_attempts < ?", maxAttempts).
		Order("requested_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Update applies updates under the payout's version and bumps the in-memory
// copy on success.
func (r *repository) Update(ctx context.Context, payout *models.Payout, updates map[string]any) error {
	if err := db.UpdateVersioned(r.db.WithContext(ctx), &models.Payout{}, payout.ID, payout.Version, updates); err != nil {
		return err
	}
	payout.Version++
	return nil
}

func (r *repository) SumByStatus(ctx context.Context, statuses ...enums.PayoutStatus) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("status IN ?", statuses).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&sum).Error
	return sum, err
}

func (r *repository) CountByStatus(ctx context.Context, statuses ...enums.PayoutStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payout{}).
		Where("status IN ?", statuses).
		Count(&count).Error
	return count, err
}
