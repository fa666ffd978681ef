package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/internal/bookings"
	"github.com/eventloom/finance-backend/internal/ledger"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Capturer is the provider side of a capture. pkg/stripe.Adapter satisfies it.
type Capturer interface {
	Capture(ctx context.Context, paymentIntentRef string) error
}

// Service tracks the organizer's payment for a booking.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.Payment, error)
	Capture(ctx context.Context, input CaptureInput) (*CaptureResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	ListForBooking(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) ([]models.Payment, error)
}

type ServiceParams struct {
	Repo     Repository
	Bookings bookings.Repository
	Ledger   ledger.Service
	Provider Capturer
	Tx       txRunner
	Outbox   outbox.Emitter
	Now      func() time.Time
}

type service struct {
	repo     Repository
	bookings bookings.Repository
	ledger   ledger.Service
	provider Capturer
	tx       txRunner
	outbox   outbox.Emitter
	now      func() time.Time
}

type RegisterInput struct {
	BookingID   uuid.UUID
	AmountCents int64
	ProviderRef string
	OperatorID  uuid.UUID
}

type CaptureInput struct {
	PaymentID  uuid.UUID
	OperatorID uuid.UUID
}

// CaptureResult reports the committed payment. Captured is false when the
// provider declined and the payment was canceled; that outcome is a normal
// result, not an error.
type CaptureResult struct {
	Payment  *models.Payment
	From     enums.PaymentStatus
	Captured bool
	Changed  bool
	Entry    *models.LedgerEntry
}

type StatusChangedEvent struct {
	PaymentID     uuid.UUID           `json:"payment_id"`
	BookingID     uuid.UUID           `json:"booking_id"`
	From          enums.PaymentStatus `json:"from,omitempty"`
	To            enums.PaymentStatus `json:"to"`
	AmountCents   int64               `json:"amount_cents"`
	FailureReason string              `json:"failure_reason,omitempty"`
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("payments repository required")
	case params.Bookings == nil:
		return nil, fmt.Errorf("bookings repository required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case params.Provider == nil:
		return nil, fmt.Errorf("payment provider required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:     params.Repo,
		bookings: params.Bookings,
		ledger:   params.Ledger,
		provider: params.Provider,
		tx:       params.Tx,
		outbox:   params.Outbox,
		now:      now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.Payment, error) {
	if input.OperatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator id required")
	}
	ref := strings.TrimSpace(input.ProviderRef)
	switch {
	case input.BookingID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	case input.AmountCents <= 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	case ref == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider reference required")
	}

	now := s.now()
	payment := &models.Payment{
		ID:          uuid.New(),
		BookingID:   input.BookingID,
		AmountCents: input.AmountCents,
		Status:      enums.PaymentStatusRequiresConfirmation,
		ProviderRef: ref,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		booking, err := s.bookings.WithTx(tx).FindByID(ctx, input.BookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if booking.State == enums.BookingStateCanceled {
			return pkgerrors.New(pkgerrors.CodeNotEligible, "booking is canceled")
		}
		if input.AmountCents > booking.TotalCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment exceeds booking total").
				WithDetails(map[string]any{"booking_total_cents": booking.TotalCents})
		}
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		return s.emit(ctx, tx, enums.EventPaymentRegistered, payment, "", "", input.OperatorID)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Capture calls the provider before opening a transaction; the status write
// that follows re-checks the version so a concurrent capture loses cleanly.
func (s *service) Capture(ctx context.Context, input CaptureInput) (*CaptureResult, error) {
	if input.OperatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator id required")
	}
	payment, err := s.Get(ctx, input.PaymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status == enums.PaymentStatusSucceeded {
		return &CaptureResult{Payment: payment, From: payment.Status, Captured: true}, nil
	}
	if !payment.Status.IsCapturable() {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotEligible, "payment is %s", payment.Status)
	}

	captureErr := s.provider.Capture(ctx, payment.ProviderRef)

	from := payment.Status
	result := &CaptureResult{From: from, Changed: true, Captured: captureErr == nil}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, payment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
		}
		if current.Version != payment.Version {
			return pkgerrors.New(pkgerrors.CodeConcurrentModification, "payment changed during capture")
		}

		now := s.now()
		to := enums.PaymentStatusSucceeded
		updates := map[string]any{"status": to, "captured_at": now}
		reason := ""
		if captureErr != nil {
			to = enums.PaymentStatusCanceled
			reason = captureErr.Error()
			updates = map[string]any{"status": to, "failure_reason": reason}
		}
		if err := CheckTransition(from, to); err != nil {
			return err
		}
		if err := repo.Update(ctx, current, updates); err != nil {
			return err
		}
		current.Status = to
		current.UpdatedAt = now
		if captureErr != nil {
			current.FailureReason = &reason
		} else {
			current.CapturedAt = &now
			paymentID := current.ID
			entry, err := s.ledger.Record(ctx, tx, ledger.RecordInput{
				BookingID:   current.BookingID,
				PaymentID:   &paymentID,
				Category:    enums.LedgerCategoryPayment,
				AmountCents: current.AmountCents,
				Label:       "Payment captured",
				ActorID:     input.OperatorID,
			})
			if err != nil {
				return err
			}
			result.Entry = entry
		}
		result.Payment = current
		return s.emit(ctx, tx, enums.EventPaymentStatusChanged, current, from, reason, input.OperatorID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

func (s *service) ListForBooking(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) ([]models.Payment, error) {
	rows, err := s.repo.WithTx(tx).ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	return rows, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, payment *models.Payment, from enums.PaymentStatus, reason string, operator uuid.UUID) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayment,
		AggregateID:   payment.ID,
		Actor:         outbox.Operator(operator),
		OccurredAt:    payment.UpdatedAt,
		Data: StatusChangedEvent{
			PaymentID:     payment.ID,
			BookingID:     payment.BookingID,
			From:          from,
			To:            payment.Status,
			AmountCents:   payment.AmountCents,
			FailureReason: reason,
		},
	})
}
