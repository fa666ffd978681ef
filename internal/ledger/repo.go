package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/pkg/db/models"
)

// Repository appends and reads ledger entries. There is deliberately no
// update or delete path.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, entry *models.LedgerEntry) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.LedgerEntry, error)
	ListByPayout(ctx context.Context, payoutID uuid.UUID) ([]models.LedgerEntry, error)
	LastSeq(ctx context.Context, payoutID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("occurred_at ASC").
		Order("seq ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) ListByPayout(ctx context.Context, payoutID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("payout_id = ?", payoutID).
		Order("seq ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) LastSeq(ctx context.Context, payoutID uuid.UUID) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("payout_id = ?", payoutID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&seq).Error
	return seq, err
}
