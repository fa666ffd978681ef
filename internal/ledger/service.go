package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

// Service records fund movements and exposes the per-booking read side.
type Service interface {
	// Record appends an entry. When tx is non-nil the entry joins that
	// transaction so it commits atomically with the state change it backs.
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.LedgerEntry, error)
	ListByBooking(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) ([]models.LedgerEntry, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// RecordInput captures the immutable data a ledger entry requires.
type RecordInput struct {
	BookingID   uuid.UUID
	PayoutID    *uuid.UUID
	PaymentID   *uuid.UUID
	Category    enums.LedgerCategory
	AmountCents int64
	Label       string
	ActorID     uuid.UUID
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.LedgerEntry, error) {
	if err := validateRecordInput(input); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)

	var seq int64
	if input.PayoutID != nil {
		last, err := repo.LastSeq(ctx, *input.PayoutID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read ledger sequence")
		}
		seq = last + 1
	}

	entry := &models.LedgerEntry{
		ID:          uuid.New(),
		BookingID:   input.BookingID,
		PayoutID:    input.PayoutID,
		PaymentID:   input.PaymentID,
		Category:    input.Category,
		AmountCents: input.AmountCents,
		Label:       strings.TrimSpace(input.Label),
		ActorID:     input.ActorID,
		OccurredAt:  s.now(),
		Seq:         seq,
	}
	if err := repo.Append(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
	}
	return entry, nil
}

func (s *service) ListByBooking(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) ([]models.LedgerEntry, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	entries, err := s.repo.WithTx(tx).ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return entries, nil
}

func validateRecordInput(input RecordInput) error {
	switch {
	case input.BookingID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	case input.ActorID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	case !input.Category.IsValid():
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid ledger category %q", input.Category)
	case input.AmountCents < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "ledger amounts are non-negative magnitudes")
	case input.Category != enums.LedgerCategoryPayment && (input.PayoutID == nil || *input.PayoutID == uuid.Nil):
		return pkgerrors.Newf(pkgerrors.CodeValidation, "%s entries require a payout id", input.Category)
	case strings.TrimSpace(input.Label) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "label is required")
	}
	return nil
}
