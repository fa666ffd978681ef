package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/internal/testdb"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

type fakeRepository struct {
	appendFn func(ctx context.Context, entry *models.LedgerEntry) error
	lastSeq  int64
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Append(ctx context.Context, entry *models.LedgerEntry) error {
	if f.appendFn != nil {
		return f.appendFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (f *fakeRepository) ListByPayout(ctx context.Context, payoutID uuid.UUID) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (f *fakeRepository) LastSeq(ctx context.Context, payoutID uuid.UUID) (int64, error) {
	return f.lastSeq, nil
}

func fixedNow() time.Time { return time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC) }

func TestService_RecordAssignsSequence(t *testing.T) {
	repo := &fakeRepository{lastSeq: 2}
	svc, err := NewService(repo, fixedNow)
	require.NoError(t, err)

	var stored *models.LedgerEntry
	repo.appendFn = func(ctx context.Context, entry *models.LedgerEntry) error {
		stored = entry
		return nil
	}

	payoutID := uuid.New()
	got, err := svc.Record(context.Background(), nil, RecordInput{
		BookingID:   uuid.New(),
		PayoutID:    &payoutID,
		Category:    enums.LedgerCategoryHeld,
		AmountCents: 350000,
		Label:       "  Payout held  ",
		ActorID:     uuid.New(),
	})
	require.NoError(t, err)
	assert.Same(t, stored, got)
	assert.Equal(t, int64(3), got.Seq)
	assert.Equal(t, "Payout held", got.Label)
	assert.Equal(t, fixedNow(), got.OccurredAt)
}

func TestService_RecordValidation(t *testing.T) {
	svc, err := NewService(&fakeRepository{}, fixedNow)
	require.NoError(t, err)
	payoutID := uuid.New()
	valid := RecordInput{
		BookingID:   uuid.New(),
		PayoutID:    &payoutID,
		Category:    enums.LedgerCategoryReleased,
		AmountCents: 100,
		Label:       "Released",
		ActorID:     uuid.New(),
	}

	tests := map[string]func(in RecordInput) RecordInput{
		"missing booking": func(in RecordInput) RecordInput { in.BookingID = uuid.Nil; return in },
		"missing actor":   func(in RecordInput) RecordInput { in.ActorID = uuid.Nil; return in },
		"bad category":    func(in RecordInput) RecordInput { in.Category = "PAID"; return in },
		"negative amount": func(in RecordInput) RecordInput { in.AmountCents = -1; return in },
		"missing payout":  func(in RecordInput) RecordInput { in.PayoutID = nil; return in },
		"missing label":   func(in RecordInput) RecordInput { in.Label = " "; return in },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), nil, mutate(valid))
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}

	payment := valid
	payment.PayoutID = nil
	payment.Category = enums.LedgerCategoryPayment
	_, err = svc.Record(context.Background(), nil, payment)
	require.NoError(t, err)
}

func TestService_RecordWrapsRepositoryErrors(t *testing.T) {
	repo := &fakeRepository{appendFn: func(context.Context, *models.LedgerEntry) error { return errors.New("disk full") }}
	svc, err := NewService(repo, fixedNow)
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), nil, RecordInput{
		BookingID: uuid.New(), Category: enums.LedgerCategoryPayment, AmountCents: 1, Label: "Payment", ActorID: uuid.New(),
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestRepository_AppendAndSequenceAgainstSQLite(t *testing.T) {
	client := testdb.New(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, fixedNow)
	require.NoError(t, err)
	ctx := context.Background()

	bookingID := uuid.New()
	payoutID := uuid.New()
	actor := uuid.New()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		for _, cat := range []enums.LedgerCategory{enums.LedgerCategoryHeld, enums.LedgerCategoryReleased} {
			if _, err := svc.Record(ctx, tx, RecordInput{
				BookingID: bookingID, PayoutID: &payoutID, Category: cat, AmountCents: 700, Label: string(cat), ActorID: actor,
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	entries, err := svc.ListByBooking(ctx, nil, bookingID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, int64(2), entries[1].Seq)

	last, err := repo.LastSeq(ctx, payoutID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), last)

	totals := Summarize(entries)
	assert.Equal(t, int64(700), totals.ReleasedCents)
	assert.Zero(t, totals.HeldCents)
}
