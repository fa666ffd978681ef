package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventloom/finance-backend/pkg/db"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/pagination"
)

// Repository persists bookings and their milestone timeline.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindForShare(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindWithMilestones(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Booking, error)
	UpdateState(ctx context.Context, booking *models.Booking, updates map[string]any) error
	AppendMilestone(ctx context.Context, milestone *models.BookingMilestone) error
	BumpFundsVersion(ctx context.Context, booking *models.Booking) error
	CountActive(ctx context.Context) (int64, error)
}

// ListFilter narrows listBookings. Zero values are ignored.
type ListFilter struct {
	State       *enums.BookingState
	VendorID    *uuid.UUID
	OrganizerID *uuid.UUID
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a bookings repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(booking).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindForUpdate loads the booking and holds its row lock until the
// transaction ends. Payout commands take it before reading the booking's
// payouts and ledger so their reconcile window sees committed siblings only.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return r.findLocked(ctx, id, "UPDATE")
}

// FindForShare waits for in-flight payout commands on the booking.
func (r *repository) FindForShare(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return r.findLocked(ctx, id, "SHARE")
}

// findLocked only adds the locking clause on postgres; sqlite serializes
// writers on its own.
func (r *repository) findLocked(ctx context.Context, id uuid.UUID, strength string) (*models.Booking, error) {
	q := r.db.WithContext(ctx).Where("id = ?", id)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: strength})
	}
	var booking models.Booking
	if err := q.First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindWithMilestones(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at ASC").Order("id ASC")
		}).
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Booking, error) {
	query := r.db.WithContext(ctx).Model(&models.Booking{})
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.OrganizerID != nil {
		query = query.Where("organizer_id = ?", *filter.OrganizerID)
	}

	var rows []models.Booking
	err := pagination.Apply(query, "created_at", cursor, limit).Find(&rows).Error
	return rows, err
}

// UpdateState writes updates guarded by the booking's version and refreshes
// the in-memory copy on success.
func (r *repository) UpdateState(ctx context.Context, booking *models.Booking, updates map[string]any) error {
	if err := db.UpdateVersioned(r.db.WithContext(ctx), &models.Booking{}, booking.ID, booking.Version, updates); err != nil {
		return err
	}
	booking.Version++
	return nil
}

func (r *repository) AppendMilestone(ctx context.Context, milestone *models.BookingMilestone) error {
	return r.db.WithContext(ctx).Create(milestone).Error
}

// BumpFundsVersion claims the booking's funds slot. Two payouts of the same
// booking entering the active set concurrently cannot both succeed.
func (r *repository) BumpFundsVersion(ctx context.Context, booking *models.Booking) error {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND funds_version = ?", booking.ID, booking.FundsVersion).
		Updates(map[string]any{
			"funds_version": gorm.Expr("funds_version + 1"),
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "bump booking funds version")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConcurrentModification, "booking funds changed since they were read")
	}
	booking.FundsVersion++
	return nil
}

func (r *repository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("state NOT IN ?", []enums.BookingState{enums.BookingStateCompleted, enums.BookingStateCanceled}).
		Count(&count).Error
	return count, err
}
