package finance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/internal/audit"
	"github.com/eventloom/finance-backend/internal/bookings"
	"github.com/eventloom/finance-backend/internal/disputes"
	"github.com/eventloom/finance-backend/internal/ledger"
	"github.com/eventloom/finance-backend/internal/payments"
	"github.com/eventloom/finance-backend/internal/payouts"
	"github.com/eventloom/finance-backend/internal/testdb"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/outbox"
)

type nopCapturer struct{}

func (nopCapturer) Capture(ctx context.Context, ref string) error { return nil }

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	return newServiceWithLedger(t, nil)
}

func newServiceWithLedger(t *testing.T, wrap func(ledger.Service) ledger.Service) (Service, *gorm.DB) {
	t.Helper()
	client := testdb.New(t)
	conn := client.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), nil)
	require.NoError(t, err)
	bookingRepo := bookings.NewRepository(conn)
	paymentSvc, err := payments.NewService(payments.ServiceParams{
		Repo:     payments.NewRepository(conn),
		Bookings: bookingRepo,
		Ledger:   ledgerSvc,
		Provider: nopCapturer{},
		Tx:       client,
		Outbox:   emitter,
	})
	require.NoError(t, err)
	auditSvc, err := audit.NewService(audit.NewRepository(conn))
	require.NoError(t, err)

	var summaryLedger ledger.Service = ledgerSvc
	if wrap != nil {
		summaryLedger = wrap(ledgerSvc)
	}
	svc, err := NewService(ServiceParams{
		Bookings:       bookingRepo,
		Payouts:        payouts.NewRepository(conn),
		Disputes:       disputes.NewRepository(conn),
		Ledger:         summaryLedger,
		Payments:       paymentSvc,
		Audit:          auditSvc,
		Tx:             client,
		RecentActivity: 2,
	})
	require.NoError(t, err)
	return svc, conn
}

func seedBooking(t *testing.T, conn *gorm.DB, state enums.BookingState, total int64) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ID:          uuid.New(),
		OrganizerID: uuid.New(),
		VendorID:    uuid.New(),
		EventRef:    "wedding",
		TotalCents:  total,
		State:       state,
		Version:     1,
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
	require.NoError(t, conn.Omit("Milestones").Create(b).Error)
	return b
}

func seedPayout(t *testing.T, conn *gorm.DB, b *models.Booking, typ enums.PayoutType, amount int64, status enums.PayoutStatus, categories ...enums.LedgerCategory) *models.Payout {
	t.Helper()
	p := &models.Payout{
		ID:          uuid.New(),
		BookingID:   b.ID,
		VendorID:    b.VendorID,
		Type:        typ,
		AmountCents: amount,
		Status:      status,
		Version:     1,
		RequestedAt: t0,
	}
	require.NoError(t, conn.Create(p).Error)
	for i, category := range categories {
		payoutID := p.ID
		require.NoError(t, conn.Create(&models.LedgerEntry{
			ID:          uuid.New(),
			BookingID:   b.ID,
			PayoutID:    &payoutID,
			Category:    category,
			AmountCents: amount,
			Label:       string(category),
			ActorID:     uuid.New(),
			OccurredAt:  t0.Add(time.Duration(i) * time.Minute),
			Seq:         int64(i + 1),
		}).Error)
	}
	return p
}

func TestBookingSummary(t *testing.T) {
	svc, conn := newService(t)
	b := seedBooking(t, conn, enums.BookingStateActive, 500000)
	seedPayout(t, conn, b, enums.PayoutTypeReservation, 150000, enums.PayoutStatusApproved, enums.LedgerCategoryReleased)
	seedPayout(t, conn, b, enums.PayoutTypeFinal, 350000, enums.PayoutStatusHeld, enums.LedgerCategoryHeld)

	paymentID := uuid.New()
	require.NoError(t, conn.Create(&models.Payment{
		ID: paymentID, BookingID: b.ID, AmountCents: 500000, Status: enums.PaymentStatusSucceeded,
		ProviderRef: "pi_1", Version: 1, CreatedAt: t0, UpdatedAt: t0,
	}).Error)
	require.NoError(t, conn.Create(&models.Payment{
		ID: uuid.New(), BookingID: b.ID, AmountCents: 500000, Status: enums.PaymentStatusCanceled,
		ProviderRef: "pi_2", Version: 1, CreatedAt: t0.Add(time.Hour), UpdatedAt: t0.Add(time.Hour),
	}).Error)
	require.NoError(t, conn.Create(&models.LedgerEntry{
		ID: uuid.New(), BookingID: b.ID, PaymentID: &paymentID, Category: enums.LedgerCategoryPayment,
		AmountCents: 500000, Label: "Payment captured", ActorID: uuid.New(), OccurredAt: t0,
	}).Error)

	summary, err := svc.BookingSummary(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(350000), summary.Totals.HeldCents)
	assert.Equal(t, int64(150000), summary.Totals.ReleasedCents)
	assert.Equal(t, int64(0), summary.Totals.ReversedCents)
	assert.Equal(t, int64(500000), summary.Totals.PaymentCents)
	require.NotNil(t, summary.Payment)
	assert.Equal(t, paymentID, summary.Payment.ID)
	assert.Len(t, summary.Payments, 2)
	assert.Len(t, summary.Payouts, 2)
	assert.Len(t, summary.Ledger, 3)

	dto := FromSummary(summary)
	assert.Equal(t, int64(500000), dto.BookingTotalCents)
	assert.Equal(t, int64(350000), dto.HeldFundsCents)
}

func TestBookingSummaryReportsConservationViolation(t *testing.T) {
	svc, conn := newService(t)
	b := seedBooking(t, conn, enums.BookingStateActive, 100000)
	seedPayout(t, conn, b, enums.PayoutTypeReservation, 100000, enums.PayoutStatusApproved)

	_, err := svc.BookingSummary(context.Background(), b.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConservationViolation))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, b.ID.String(), details["booking_id"])
	assert.NotEmpty(t, details["problems"])
}

type racingLedger struct {
	ledger.Service
	races int
	race  func(tx *gorm.DB) error
}

func (l *racingLedger) ListByBooking(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) ([]models.LedgerEntry, error) {
	if l.races > 0 {
		l.races--
		if err := l.race(tx); err != nil {
			return nil, err
		}
	}
	return l.Service.ListByBooking(ctx, tx, bookingID)
}

func TestBookingSummaryRetriesWhenPayoutMovesMidRead(t *testing.T) {
	racing := &racingLedger{races: 1}
	svc, conn := newServiceWithLedger(t, func(l ledger.Service) ledger.Service {
		racing.Service = l
		return racing
	})
	b := seedBooking(t, conn, enums.BookingStateActive, 100000)
	approved := seedPayout(t, conn, b, enums.PayoutTypeReservation, 40000, enums.PayoutStatusApproved, enums.LedgerCategoryReleased)
	pending := seedPayout(t, conn, b, enums.PayoutTypeFinal, 60000, enums.PayoutStatusPendingAdminApproval)

	racing.race = func(tx *gorm.DB) error {
		if err := tx.Model(&models.Payout{}).Where("id = ?", pending.ID).Updates(map[string]any{
			"status":  enums.PayoutStatusApproved,
			"version": gorm.Expr("version + 1"),
		}).Error; err != nil {
			return err
		}
		payoutID := pending.ID
		return tx.Create(&models.LedgerEntry{
			ID: uuid.New(), BookingID: b.ID, PayoutID: &payoutID, Category: enums.LedgerCategoryReleased,
			AmountCents: pending.AmountCents, Label: "Payout approved", ActorID: uuid.New(), OccurredAt: t0.Add(time.Hour), Seq: 2,
		}).Error
	}

	summary, err := svc.BookingSummary(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Zero(t, racing.races)
	assert.Equal(t, int64(40000), summary.Totals.ReleasedCents)
	require.Len(t, summary.Payouts, 2)
	for _, p := range summary.Payouts {
		if p.ID == pending.ID {
			assert.Equal(t, enums.PayoutStatusPendingAdminApproval, p.Status)
		} else {
			assert.Equal(t, approved.ID, p.ID)
		}
	}
}

func TestBookingSummaryNotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.BookingSummary(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestOverview(t *testing.T) {
	svc, conn := newService(t)
	active := seedBooking(t, conn, enums.BookingStateActive, 900000)
	seedBooking(t, conn, enums.BookingStateCompleted, 1000)
	seedBooking(t, conn, enums.BookingStateCreated, 1000)

	seedPayout(t, conn, active, enums.PayoutTypeReservation, 100000, enums.PayoutStatusHeld, enums.LedgerCategoryHeld)
	seedPayout(t, conn, active, enums.PayoutTypeFinal, 200000, enums.PayoutStatusPaid, enums.LedgerCategoryReleased)
	seedPayout(t, conn, active, enums.PayoutTypeFinal, 50000, enums.PayoutStatusRequested)
	seedPayout(t, conn, active, enums.PayoutTypeReservation, 60000, enums.PayoutStatusPendingAdminApproval)

	require.NoError(t, conn.Create(&models.Dispute{
		ID: uuid.New(), BookingID: active.ID, OpenedBy: uuid.New(), Reason: "no-show",
		Status: enums.DisputeStatusOpen, Version: 1, CreatedAt: t0, UpdatedAt: t0,
	}).Error)

	for i := 0; i < 3; i++ {
		require.NoError(t, conn.Create(&models.AuditLog{
			ID: uuid.New(), ActorID: uuid.New(), Action: enums.AuditActionPayoutHeld,
			ResourceType: enums.AuditResourcePayout, ResourceID: uuid.New(), OccurredAt: t0.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	out, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100000), out.TotalHeldFundsCents)
	assert.Equal(t, int64(200000), out.TotalPaidOutCents)
	assert.Equal(t, int64(2), out.PendingPayoutsCount)
	assert.Equal(t, int64(2), out.ActiveBookingsCount)
	assert.Equal(t, int64(1), out.OpenDisputesCount)
	assert.Len(t, out.RecentActivity, 2)
	assert.True(t, t0.Add(2*time.Minute).Equal(out.RecentActivity[0].OccurredAt))
}
