package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/internal/audit"
	"github.com/eventloom/finance-backend/internal/bookings"
	"github.com/eventloom/finance-backend/internal/disputes"
	"github.com/eventloom/finance-backend/internal/ledger"
	"github.com/eventloom/finance-backend/internal/payments"
	"github.com/eventloom/finance-backend/internal/payouts"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

const (
	defaultRecentActivity = 10
	summaryRetries        = 2
	summaryRetryDelay     = 20 * time.Millisecond
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service builds the read models operators look at before acting.
type Service interface {
	BookingSummary(ctx context.Context, bookingID uuid.UUID) (*BookingSummary, error)
	Overview(ctx context.Context) (*Overview, error)
}

// BookingSummary is the full money picture of one booking. It is only
// returned when the ledger reconciles with the payout rows.
type BookingSummary struct {
	Booking  *models.Booking
	Payment  *models.Payment
	Payments []models.Payment
	Payouts  []models.Payout
	Ledger   []models.LedgerEntry
	Totals   ledger.Totals
}

type Overview struct {
	TotalHeldFundsCents int64
	TotalPaidOutCents   int64
	PendingPayoutsCount int64
	ActiveBookingsCount int64
	OpenDisputesCount   int64
	RecentActivity      []models.AuditLog
}

type ServiceParams struct {
	Bookings       bookings.Repository
	Payouts        payouts.Repository
	Disputes       disputes.Repository
	Ledger         ledger.Service
	Payments       payments.Service
	Audit          audit.Service
	Tx             txRunner
	RecentActivity int
}

type service struct {
	bookings bookings.Repository
	payouts  payouts.Repository
	disputes disputes.Repository
	ledger   ledger.Service
	payments payments.Service
	audit    audit.Service
	tx       txRunner
	recent   int
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Bookings == nil:
		return nil, fmt.Errorf("bookings repository required")
	case params.Payouts == nil:
		return nil, fmt.Errorf("payouts repository required")
	case params.Disputes == nil:
		return nil, fmt.Errorf("disputes repository required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case params.Payments == nil:
		return nil, fmt.Errorf("payments service required")
	case params.Audit == nil:
		return nil, fmt.Errorf("audit service required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	recent := params.RecentActivity
	if recent <= 0 {
		recent = defaultRecentActivity
	}
	return &service{
		bookings: params.Bookings,
		payouts:  params.Payouts,
		disputes: params.Disputes,
		ledger:   params.Ledger,
		payments: params.Payments,
		audit:    params.Audit,
		tx:       params.Tx,
		recent:   recent,
	}, nil
}

// BookingSummary reads the booking, its payments, payouts and ledger and
// reconciles them. The booking row is share-locked first so payout commands
// in flight finish before the reads. A mismatch is returned as
// CONSERVATION_VIOLATION instead of a summary.
func (s *service) BookingSummary(ctx context.Context, bookingID uuid.UUID) (*BookingSummary, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}

	var summary *BookingSummary
	backoff := retry.WithMaxRetries(summaryRetries, retry.NewConstant(summaryRetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		summary, err = s.readSummary(ctx, bookingID)
		if pkgerrors.IsCode(err, pkgerrors.CodeConcurrentModification) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if e := pkgerrors.As(err); e != nil && e.Code() == pkgerrors.CodeConservationViolation {
			return nil, e.WithDetails(map[string]any{
				"booking_id": bookingID.String(),
				"problems":   problemsOf(e),
			})
		}
		return nil, err
	}
	return summary, nil
}

func (s *service) readSummary(ctx context.Context, bookingID uuid.UUID) (*BookingSummary, error) {
	summary := &BookingSummary{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		booking, err := s.bookings.WithTx(tx).FindForShare(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		summary.Booking = booking

		if summary.Payments, err = s.payments.ListForBooking(ctx, tx, bookingID); err != nil {
			return err
		}
		payoutRepo := s.payouts.WithTx(tx)
		if summary.Payouts, err = payoutRepo.ListByBooking(ctx, bookingID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
		}
		if summary.Ledger, err = s.ledger.ListByBooking(ctx, tx, bookingID); err != nil {
			return err
		}

		rerr := ledger.Reconcile(booking.TotalCents, summary.Payouts, summary.Ledger)
		if rerr == nil {
			return nil
		}
		again, err := payoutRepo.ListByBooking(ctx, bookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
		}
		if !ledger.SamePayouts(summary.Payouts, again) {
			return pkgerrors.New(pkgerrors.CodeConcurrentModification, "booking payouts changed while reading")
		}
		return rerr
	})
	if err != nil {
		return nil, err
	}

	summary.Payment = primaryPayment(summary.Payments)
	summary.Totals = ledger.Summarize(summary.Ledger)
	return summary, nil
}

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	var (
		out Overview
		err error
	)
	if out.TotalHeldFundsCents, err = s.payouts.SumByStatus(ctx, enums.PayoutStatusHeld); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum held payouts")
	}
	if out.TotalPaidOutCents, err = s.payouts.SumByStatus(ctx, enums.PayoutStatusPaid); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum paid payouts")
	}
	if out.PendingPayoutsCount, err = s.payouts.CountByStatus(ctx, enums.PayoutStatusRequested, enums.PayoutStatusPendingAdminApproval); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending payouts")
	}
	if out.ActiveBookingsCount, err = s.bookings.CountActive(ctx); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active bookings")
	}
	if out.OpenDisputesCount, err = s.disputes.CountByStatus(ctx, enums.DisputeStatusOpen, enums.DisputeStatusUnderReview); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count open disputes")
	}
	if out.RecentActivity, err = s.audit.Recent(ctx, s.recent); err != nil {
		return nil, err
	}
	return &out, nil
}

// primaryPayment is the latest succeeded payment, falling back to the latest
// payment of any status. payments arrive newest first.
func primaryPayment(payments []models.Payment) *models.Payment {
	for i := range payments {
		if payments[i].Status == enums.PaymentStatusSucceeded {
			return &payments[i]
		}
	}
	if len(payments) > 0 {
		return &payments[0]
	}
	return nil
}

func problemsOf(e *pkgerrors.Error) any {
	if details, ok := e.Details().(map[string]any); ok {
		return details["problems"]
	}
	return nil
}
