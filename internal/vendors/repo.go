package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventloom/finance-backend/pkg/db"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	"github.com/eventloom/finance-backend/pkg/pagination"
)

// Repository persists one payout gate row per vendor.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, gate *models.VendorPayoutGate) error
	FindByVendorID(ctx context.Context, vendorID uuid.UUID) (*models.VendorPayoutGate, error)
	FindForShare(ctx context.Context, vendorID uuid.UUID) (*models.VendorPayoutGate, error)
	List(ctx context.Context, state *enums.VerificationState, limit int) ([]models.VendorPayoutGate, error)
	Update(ctx context.Context, gate *models.VendorPayoutGate, updates map[string]any) error
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

func (r *repository) Create(ctx context.Context, gate *models.VendorPayoutGate) error {
	return r.db.WithContext(ctx).Create(gate).Error
}

func (r *repository) FindByVendorID(ctx context.Context, vendorID uuid.UUID) (*models.VendorPayoutGate, error) {
	var gate models.VendorPayoutGate
	if err := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID).First(&gate).Error; err != nil {
		return nil, err
	}
	return &gate, nil
}

// FindForShare reads the gate with a shared row lock on Postgres, so a
// concurrent disable waits for in-flight approvals to commit and vice versa.
func (r *repository) FindForShare(ctx context.Context, vendorID uuid.UUID) (*models.VendorPayoutGate, error) {
	query := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "SHARE"})
	}
	var gate models.VendorPayoutGate
	if err := query.First(&gate).Error; err != nil {
		return nil, err
	}
	return &gate, nil
}

func (r *repository) List(ctx context.Context, state *enums.VerificationState, limit int) ([]models.VendorPayoutGate, error) {
	query := r.db.WithContext(ctx).Model(&models.VendorPayoutGate{})
	if state != nil {
		query = query.Where("verification_state = ?", *state)
	}
	var rows []models.VendorPayoutGate
	err := query.
		Order("updated_at DESC").
		Order("vendor_id ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, gate *models.VendorPayoutGate, updates map[string]any) error {
	if err := db.UpdateVersionedBy(r.db.WithContext(ctx), &models.VendorPayoutGate{}, "vendor_id", gate.VendorID, gate.Version, updates); err != nil {
		return err
	}
	gate.Version++
	return nil
}
