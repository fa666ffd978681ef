package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

func entry(bookingID uuid.UUID, payoutID *uuid.UUID, cat enums.LedgerCategory, amount, seq int64) models.LedgerEntry {
	return models.LedgerEntry{
		ID:          uuid.New(),
		BookingID:   bookingID,
		PayoutID:    payoutID,
		Category:    cat,
		AmountCents: amount,
		Label:       string(cat),
		ActorID:     uuid.New(),
		OccurredAt:  time.Now(),
		Seq:         seq,
	}
}

func TestSummarize_ReservationPaidFinalReversed(t *testing.T) {
	booking := uuid.New()
	reservation := uuid.New()
	final := uuid.New()

	entries := []models.LedgerEntry{
		entry(booking, &reservation, enums.LedgerCategoryReleased, 150000, 1),
		entry(booking, &final, enums.LedgerCategoryHeld, 350000, 1),
		entry(booking, &final, enums.LedgerCategoryReversal, 350000, 2),
	}

	totals := Summarize(entries)
	assert.Equal(t, int64(0), totals.HeldCents)
	assert.Equal(t, int64(150000), totals.ReleasedCents)
	assert.Equal(t, int64(350000), totals.ReversedCents)

	payouts := []models.Payout{
		{ID: reservation, BookingID: booking, AmountCents: 150000, Status: enums.PayoutStatusPaid},
		{ID: final, BookingID: booking, AmountCents: 350000, Status: enums.PayoutStatusReversed},
	}
	require.NoError(t, Reconcile(500000, payouts, entries))
}

func TestPositions_UsesSequenceNotSliceOrder(t *testing.T) {
	booking := uuid.New()
	payout := uuid.New()
	entries := []models.LedgerEntry{
		entry(booking, &payout, enums.LedgerCategoryReleased, 1000, 2),
		entry(booking, &payout, enums.LedgerCategoryHeld, 1000, 1),
	}
	pos := Positions(entries)
	assert.Equal(t, enums.LedgerCategoryReleased, pos[payout].Category)
}

func TestSummarize_PaymentEntriesDoNotCountAsPositions(t *testing.T) {
	booking := uuid.New()
	totals := Summarize([]models.LedgerEntry{entry(booking, nil, enums.LedgerCategoryPayment, 500000, 0)})
	assert.Equal(t, int64(500000), totals.PaymentCents)
	assert.Zero(t, totals.HeldCents+totals.ReleasedCents)
}

func TestCheckProjected(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	payouts := []models.Payout{
		{ID: a, AmountCents: 300000, Status: enums.PayoutStatusApproved},
		{ID: b, AmountCents: 250000, Status: enums.PayoutStatusPendingAdminApproval},
	}

	err := CheckProjected(500000, payouts, b, enums.PayoutStatusApproved)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConservationViolation))

	require.NoError(t, CheckProjected(550000, payouts, b, enums.PayoutStatusHeld))
	require.NoError(t, CheckProjected(500000, payouts, a, enums.PayoutStatusHeld))

	err = CheckProjected(500000, payouts, uuid.New(), enums.PayoutStatusApproved)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConservationViolation))
}

func TestReconcile_DetectsDrift(t *testing.T) {
	booking := uuid.New()
	p := uuid.New()
	orphan := uuid.New()

	payouts := []models.Payout{{ID: p, AmountCents: 1000, Status: enums.PayoutStatusApproved}}
	entries := []models.LedgerEntry{
		entry(booking, &p, enums.LedgerCategoryHeld, 1000, 1),
		entry(booking, &orphan, enums.LedgerCategoryReleased, 500, 1),
	}

	err := Reconcile(5000, payouts, entries)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConservationViolation, typed.Code())
	problems := typed.Details().(map[string]any)["problems"].([]string)
	assert.Len(t, problems, 3)
}

func TestReconcile_MissingEntriesForApprovedPayout(t *testing.T) {
	payouts := []models.Payout{{ID: uuid.New(), AmountCents: 1000, Status: enums.PayoutStatusPaid}}
	err := Reconcile(5000, payouts, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConservationViolation))
}

func TestReconcile_PendingPayoutsNeedNoEntries(t *testing.T) {
	payouts := []models.Payout{
		{ID: uuid.New(), AmountCents: 1000, Status: enums.PayoutStatusRequested},
		{ID: uuid.New(), AmountCents: 2000, Status: enums.PayoutStatusPendingAdminApproval},
	}
	assert.NoError(t, Reconcile(5000, payouts, nil))
}

func TestSamePayouts(t *testing.T) {
	a := models.Payout{ID: uuid.New(), Version: 2}
	b := models.Payout{ID: uuid.New(), Version: 1}

	assert.True(t, SamePayouts([]models.Payout{a, b}, []models.Payout{b, a}))

	bumped := b
	bumped.Version++
	assert.False(t, SamePayouts([]models.Payout{a, b}, []models.Payout{a, bumped}))
	assert.False(t, SamePayouts([]models.Payout{a}, []models.Payout{a, b}))
}
