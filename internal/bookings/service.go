package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/outbox"
	"github.com/eventloom/finance-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the booking lifecycle. None of its operations write to the
// ledger.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error)
	Cancel(ctx context.Context, input CancelInput) (*TransitionResult, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	now    func() time.Time
}

type CreateInput struct {
	OrganizerID uuid.UUID
	VendorID    uuid.UUID
	EventRef    string
	TotalCents  int64
	OperatorID  uuid.UUID
}

type TransitionInput struct {
	BookingID  uuid.UUID
	Target     enums.BookingState
	Reason     string
	OperatorID uuid.UUID
}

type CancelInput struct {
	BookingID  uuid.UUID
	Reason     string
	OperatorID uuid.UUID
}

// TransitionResult carries the committed booking and the state it left.
type TransitionResult struct {
	Booking *models.Booking
	From    enums.BookingState
}

type ListParams struct {
	Filter ListFilter
	pagination.Params
}

type ListResult struct {
	Items  []models.Booking
	Cursor string
}

// BookingTransitionedEvent is the outbox payload for booking.transitioned
// and booking.canceled.
type BookingTransitionedEvent struct {
	BookingID uuid.UUID          `json:"booking_id"`
	VendorID  uuid.UUID          `json:"vendor_id"`
	From      enums.BookingState `json:"from"`
	To        enums.BookingState `json:"to"`
	Reason    string             `json:"reason,omitempty"`
}

type BookingCreatedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	OrganizerID uuid.UUID `json:"organizer_id"`
	VendorID    uuid.UUID `json:"vendor_id"`
	TotalCents  int64     `json:"total_cents"`
}

const defaultCancelReason = "canceled by operator"

// NewService builds the booking service.
func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: repo, tx: tx, outbox: emitter, now: now}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Booking, error) {
	switch {
	case input.OrganizerID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "organizer id required")
	case input.VendorID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	case strings.TrimSpace(input.EventRef) == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event reference required")
	case input.TotalCents <= 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total must be a positive amount of minor units")
	}

	now := s.now()
	booking := &models.Booking{
		ID:           uuid.New(),
		OrganizerID:  input.OrganizerID,
		VendorID:     input.VendorID,
		EventRef:     strings.TrimSpace(input.EventRef),
		TotalCents:   input.TotalCents,
		State:        enums.BookingStateCreated,
		Version:      1,
		FundsVersion: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, booking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
		}
		milestone := s.milestone(booking.ID, enums.BookingStateCreated, "Deal formed", now)
		if err := repo.AppendMilestone(ctx, &milestone); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append milestone")
		}
		booking.Milestones = []models.BookingMilestone{milestone}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingCreated,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Actor:         outbox.Operator(input.OperatorID),
			OccurredAt:    now,
			Data: BookingCreatedEvent{
				BookingID:   booking.ID,
				OrganizerID: booking.OrganizerID,
				VendorID:    booking.VendorID,
				TotalCents:  booking.TotalCents,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	booking, err := s.repo.FindWithMilestones(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return booking, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, params.Filter, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	items, next := pagination.Trim(rows, params.Limit, func(b models.Booking) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
	})
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error) {
	if input.Target == enums.BookingStateCanceled {
		reason := strings.TrimSpace(input.Reason)
		if reason == "" {
			reason = defaultCancelReason
		}
		return s.Cancel(ctx, CancelInput{BookingID: input.BookingID, Reason: reason, OperatorID: input.OperatorID})
	}
	if input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}

	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		booking, err := repo.FindByID(ctx, input.BookingID)
		if err != nil {
			return mapLoadError(err)
		}
		from := booking.State
		if err := CheckTransition(from, input.Target); err != nil {
			return err
		}

		now := s.now()
		if err := repo.UpdateState(ctx, booking, map[string]any{"state": input.Target}); err != nil {
			return err
		}
		booking.State = input.Target
		booking.UpdatedAt = now

		milestone := s.milestone(booking.ID, input.Target, fmt.Sprintf("Moved from %s to %s", from, input.Target), now)
		if err := repo.AppendMilestone(ctx, &milestone); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append milestone")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingTransitioned,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Actor:         outbox.Operator(input.OperatorID),
			OccurredAt:    now,
			Data:          BookingTransitionedEvent{BookingID: booking.ID, VendorID: booking.VendorID, From: from, To: input.Target},
		}); err != nil {
			return err
		}
		result = &TransitionResult{Booking: booking, From: from}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel marks the booking canceled. Approved or paid payouts are left as
// they are; refunds are an explicit payout reversal.
func (s *service) Cancel(ctx context.Context, input CancelInput) (*TransitionResult, error) {
	if input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}

	var result *TransitionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		booking, err := repo.FindByID(ctx, input.BookingID)
		if err != nil {
			return mapLoadError(err)
		}
		from := booking.State
		if err := CheckTransition(from, enums.BookingStateCanceled); err != nil {
			return err
		}

		now := s.now()
		if err := repo.UpdateState(ctx, booking, map[string]any{
			"state":               enums.BookingStateCanceled,
			"cancellation_reason": reason,
			"canceled_at":         now,
		}); err != nil {
			return err
		}
		booking.State = enums.BookingStateCanceled
		booking.CancellationReason = &reason
		booking.CanceledAt = &now
		booking.UpdatedAt = now

		milestone := s.milestone(booking.ID, enums.BookingStateCanceled, reason, now)
		if err := repo.AppendMilestone(ctx, &milestone); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append milestone")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingCanceled,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Actor:         outbox.Operator(input.OperatorID),
			OccurredAt:    now,
			Data: BookingTransitionedEvent{
				BookingID: booking.ID,
				VendorID:  booking.VendorID,
				From:      from,
				To:        enums.BookingStateCanceled,
				Reason:    reason,
			},
		}); err != nil {
			return err
		}
		result = &TransitionResult{Booking: booking, From: from}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) milestone(bookingID uuid.UUID, state enums.BookingState, description string, at time.Time) models.BookingMilestone {
	return models.BookingMilestone{
		ID:          uuid.New(),
		BookingID:   bookingID,
		Label:       milestoneLabels[state],
		Description: description,
		OccurredAt:  at,
	}
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
}
