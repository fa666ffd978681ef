package payouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/internal/bookings"
	"github.com/eventloom/finance-backend/internal/ledger"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/outbox"
	"github.com/eventloom/finance-backend/pkg/pagination"
)

const maxTransferBackoff = 6 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// VendorGate answers whether a vendor may currently receive money. A vendor
// without a gate row is treated as disabled.
type VendorGate interface {
	PayoutEnabled(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) (bool, error)
}

// Service is the payout state machine. Every operation validates all of its
// preconditions inside one transaction before the first write, so a
// rejection never leaves a partial mutation behind.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*Transition, error)
	Intake(ctx context.Context, input IntakeInput) (*Transition, error)
	Approve(ctx context.Context, input ApproveInput) (*Transition, error)
	Hold(ctx context.Context, input HoldInput) (*Transition, error)
	Reverse(ctx context.Context, input ReverseInput) (*Transition, error)
	MarkPaid(ctx context.Context, input MarkPaidInput) (*Transition, error)
	MarkFailed(ctx context.Context, input MarkFailedInput) (*Transition, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Payout, error)
	ListDueForTransfer(ctx context.Context, maxAttempts, limit int) ([]models.Payout, error)
}

// ServiceParams wires the payout service.
type ServiceParams struct {
	Repo         Repository
	Bookings     bookings.Repository
	Ledger       ledger.Service
	Gate         VendorGate
	Tx           txRunner
	Outbox       outbox.Emitter
	Now          func() time.Time
	RetryBackoff time.Duration
}

type service struct {
	repo         Repository
	bookings     bookings.Repository
	ledger       ledger.Service
	gate         VendorGate
	tx           txRunner
	outbox       outbox.Emitter
	now          func() time.Time
	retryBackoff time.Duration
}

// Transition is the committed outcome of a payout command. Changed is false
// when the command was an idempotent replay and nothing was written.
type Transition struct {
	Payout  *models.Payout
	From    enums.PayoutStatus
	To      enums.PayoutStatus
	Changed bool
	Entry   *models.LedgerEntry
}

type RequestInput struct {
	BookingID   uuid.UUID
	Type        enums.PayoutType
	AmountCents int64
	OperatorID  uuid.UUID
}

type IntakeInput struct {
	PayoutID   uuid.UUID
	OperatorID uuid.UUID
}

type ApproveInput struct {
	PayoutID   uuid.UUID
	Confirm    bool
	OperatorID uuid.UUID
}

type HoldInput struct {
	PayoutID   uuid.UUID
	Reason     string
	OperatorID uuid.UUID
}

type ReverseInput struct {
	PayoutID   uuid.UUID
	Reason     string
	OperatorID uuid.UUID
}

// MarkPaidInput is the provider's success callback.
type MarkPaidInput struct {
	PayoutID    uuid.UUID
	ProviderRef string
	OperatorID  uuid.UUID
}

// MarkFailedInput is the provider's failure callback. RetryAt overrides the
// default exponential schedule.
type MarkFailedInput struct {
	PayoutID   uuid.UUID
	Error      string
	RetryAt    *time.Time
	OperatorID uuid.UUID
}

type ListParams struct {
	Filter ListFilter
	pagination.Params
}

type ListResult struct {
	Items  []models.Payout
	Cursor string
}

// StatusChangedEvent is the outbox payload for payout.requested,
// payout.status_changed and payout.transfer_failed.
type StatusChangedEvent struct {
	PayoutID    uuid.UUID          `json:"payout_id"`
	BookingID   uuid.UUID          `json:"booking_id"`
	VendorID    uuid.UUID          `json:"vendor_id"`
	Type        enums.PayoutType   `json:"type"`
	AmountCents int64              `json:"amount_cents"`
	From        enums.PayoutStatus `json:"from,omitempty"`
	To          enums.PayoutStatus `json:"to"`
	Reason      string             `json:"reason,omitempty"`
	Attempts    int                `json:"transfer_attempts,omitempty"`
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("payouts repository required")
	case params.Bookings == nil:
		return nil, fmt.Errorf("bookings repository required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case params.Gate == nil:
		return nil, fmt.Errorf("vendor gate required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	backoff := params.RetryBackoff
	if backoff <= 0 {
		backoff = time.Minute
	}
	return &service{
		repo:         params.Repo,
		bookings:     params.Bookings,
		ledger:       params.Ledger,
		gate:         params.Gate,
		tx:           params.Tx,
		outbox:       params.Outbox,
		now:          now,
		retryBackoff: backoff,
	}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (*Transition, error) {
	if err := requireOperator(input.OperatorID); err != nil {
		return nil, err
	}
	switch {
	case input.BookingID == uuid.Nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	case !input.Type.IsValid():
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payout type %q", input.Type)
	case input.AmountCents <= 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a positive amount of minor units")
	}

	var result *Transition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		booking, err := s.bookings.WithTx(tx).FindByID(ctx, input.BookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		repo := s.repo.WithTx(tx)
		existing, err := repo.ListByBooking(ctx, booking.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list booking payouts")
		}

		if !bookings.AcceptsPayouts(booking.State, len(existing) > 0) {
			return pkgerrors.Newf(pkgerrors.CodeNotEligible, "booking in %s does not accept payouts", booking.State)
		}
		if input.AmountCents > booking.TotalCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "amount exceeds booking total").
				WithDetails(map[string]any{"booking_total_cents": booking.TotalCents, "amount_cents": input.AmountCents})
		}
		var committed int64
		for _, p := range existing {
			if p.Status == enums.PayoutStatusReversed {
				continue
			}
			if p.Type == input.Type {
				return pkgerrors.Newf(pkgerrors.CodeNotEligible, "booking already has a %s payout", input.Type).
					WithDetails(map[string]any{"payout_id": p.ID.String()})
			}
			committed += p.AmountCents
		}
		if committed+input.AmountCents > booking.TotalCents {
			return pkgerrors.New(pkgerrors.CodeNotEligible, "requested payouts would exceed booking total").
				WithDetails(map[string]any{
					"booking_total_cents": booking.TotalCents,
					"requested_cents":     committed,
					"amount_cents":        input.AmountCents,
				})
		}

		now := s.now()
		payout := &models.Payout{
			ID:          uuid.New(),
			BookingID:   booking.ID,
			VendorID:    booking.VendorID,
			Type:        input.Type,
			AmountCents: input.AmountCents,
			Status:      enums.PayoutStatusRequested,
			Version:     1,
			RequestedAt: now,
			UpdatedAt:   now,
		}
		if err := repo.Create(ctx, payout); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
		}
		if err := s.emit(ctx, tx, enums.EventPayoutRequested, payout, "", "", input.OperatorID, now); err != nil {
			return err
		}
		result = &Transition{Payout: payout, To: payout.Status, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Intake moves a freshly requested payout into the admin approval queue.
func (s *service) Intake(ctx context.Context, input IntakeInput) (*Transition, error) {
	if err := requireOperator(input.OperatorID); err != nil {
		return nil, err
	}
	var result *Transition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payout, err := s.load(ctx, tx, input.PayoutID)
		if err != nil {
			return err
		}
		if payout.Status == enums.PayoutStatusPendingAdminApproval {
			result = unchanged(payout)
			return nil
		}
		result, err = s.apply(ctx, tx, payout, change{
			path:     []enums.PayoutStatus{enums.PayoutStatusPendingAdminApproval},
			operator: input.OperatorID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Approve releases a payout. A repeat call on an already approved payout
// returns it unchanged, but the vendor gate is consulted first so a
// disabled vendor always yields VENDOR_PAYOUT_DISABLED.
func (s *service) Approve(ctx context.Context, input ApproveInput) (*Transition, error) {
	if err := requireOperator(input.OperatorID); err != nil {
		return nil, err
	}
	if !input.Confirm {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientAuthorization, "approval requires explicit confirmation")
	}

	var result *Transition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payout, err := s.load(ctx, tx, input.PayoutID)
		if err != nil {
			return err
		}
		if err := s.requireGate(ctx, tx, payout.VendorID); err != nil {
			return err
		}
		if payout.Status == enums.PayoutStatusApproved {
			result = unchanged(payout)
			return nil
		}
		path, ok := approvalPath(payout.Status)
		if !ok {
			return pkgerrors.Newf(pkgerrors.CodeNotEligible, "payout in %s cannot be approved", payout.Status).
				WithDetails(map[string]any{"current_status": payout.Status})
		}
		result, err = s.apply(ctx, tx, payout, change{
			path:      path,
			category:  enums.LedgerCategoryReleased,
			label:     "Payout approved",
			operator:  input.OperatorID,
			reconcile: true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Hold(ctx context.Context, input HoldInput) (*Transition, error) {
	if err := requireOperator(input.OperatorID); err != nil {
		return nil, err
	}
	var result *Transition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payout, err := s.load(ctx, tx, input.PayoutID)
		if err != nil {
			return err
		}
		result, err = s.apply(ctx, tx, payout, change{
			path:      []enums.PayoutStatus{enums.PayoutStatusHeld},
			category:  enums.LedgerCategoryHeld,
			label:     labelWithReason("Payout held", input.Reason),
			reason:    input.Reason,
			operator:  input.OperatorID,
			reconcile: true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reverse is only legal from HELD; the REVERSAL entry nets out the hold.
func (s *service) Reverse(ctx context.Context, input ReverseInput) (*Transition, error) {
	if err := requireOperator(input.OperatorID); err != nil {
		return nil, err
	}
	var result *Transition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payout, err := s.load(ctx, tx, input.PayoutID)
		if err != nil {
			return err
		}
		result, err = s.apply(ctx, tx, payout, change{
			path:      []enums.PayoutStatus{enums.PayoutStatusReversed},
			category:  enums.LedgerCategoryReversal,
			label:     labelWithReason("Payout reversed", input.Reason),
			reason:    input.Reason,
			operator:  input.OperatorID,
			reconcile: true,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) MarkPaid(ctx context.Context, input MarkPaidInput) (*Transition, error) {
	if err := requireOperator(input.OperatorID); err != nil {
		return nil, err
	}
	ref := strings.TrimSpace(input.ProviderRef)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider reference required")
	}

	var result *Transition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payout, err := s.load(ctx, tx, input.PayoutID)
		if err != nil {
			return err
		}
		if payout.Status == enums.PayoutStatusPaid && payout.ProviderTransferRef != nil && *payout.ProviderTransferRef == ref {
			result = unchanged(payout)
			return nil
		}
		if err := s.requireGate(ctx, tx, payout.VendorID); err != nil {
			return err
		}
		now := s.now()
		result, err = s.apply(ctx, tx, payout, change{
			path:      []enums.PayoutStatus{enums.PayoutStatusPaid},
			operator:  input.OperatorID,
			reconcile: true,
			updates: map[string]any{
				"provider_transfer_ref": ref,
				"paid_at":               now,
				"next_transfer_at":      nil,
			},
		})
		if err != nil {
			return err
		}
		result.Payout.ProviderTransferRef = &ref
		result.Payout.PaidAt = &now
		result.Payout.NextTransferAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkFailed records a failed provider transfer. The payout stays APPROVED
// and is rescheduled; it remains eligible for a manual hold.
func (s *service) MarkFailed(ctx context.Context, input MarkFailedInput) (*Transition, error) {
	if err := requireOperator(input.OperatorID); err != nil {
		return nil, err
	}
	message := strings.TrimSpace(input.Error)
	if message == "" {
		message = "transfer failed"
	}

	var result *Transition
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		payout, err := s.load(ctx, tx, input.PayoutID)
		if err != nil {
			return err
		}
		if payout.Status.IsTerminal() {
			return pkgerrors.Newf(pkgerrors.CodeTerminalState, "payout is %s", payout.Status)
		}
		if payout.Status != enums.PayoutStatusApproved {
			return pkgerrors.Newf(pkgerrors.CodeNotEligible, "payout in %s has no transfer in flight", payout.Status)
		}

		now := s.now()
		attempts := payout.TransferAttempts + 1
		next := now.Add(TransferBackoff(s.retryBackoff, attempts))
		if input.RetryAt != nil && input.RetryAt.After(now) {
			next = input.RetryAt.UTC()
		}
		if err := s.repo.WithTx(tx).Update(ctx, payout, map[string]any{
			"transfer_attempts":   attempts,
			"last_transfer_error": message,
			"next_transfer_at":    next,
		}); err != nil {
			return err
		}
		payout.TransferAttempts = attempts
		payout.LastTransferError = &message
		payout.NextTransferAt = &next
		payout.UpdatedAt = now

		if err := s.emit(ctx, tx, enums.EventPayoutTransferFailed, payout, payout.Status, message, input.OperatorID, now); err != nil {
			return err
		}
		result = &Transition{Payout: payout, From: payout.Status, To: payout.Status, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	return s.load(ctx, nil, id)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, params.Filter, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	items, next := pagination.Trim(rows, params.Limit, func(p models.Payout) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.RequestedAt, ID: p.ID}
	})
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) ListForBooking(ctx context.Context, bookingID uuid.UUID) ([]models.Payout, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	rows, err := s.repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list booking payouts")
	}
	return rows, nil
}

func (s *service) ListDueForTransfer(ctx context.Context, maxAttempts, limit int) ([]models.Payout, error) {
	rows, err := s.repo.ListDueForTransfer(ctx, s.now(), maxAttempts, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts due for transfer")
	}
	return rows, nil
}

type change struct {
	path      []enums.PayoutStatus
	category  enums.LedgerCategory
	label     string
	reason    string
	operator  uuid.UUID
	updates   map[string]any
	reconcile bool
}

// apply performs one guarded status change: validate the walk, check the
// funds invariant, then write the row, the ledger entry and the outbox event.
func (s *service) apply(ctx context.Context, tx *gorm.DB, payout *models.Payout, c change) (*Transition, error) {
	from := payout.Status
	if err := CheckPath(from, c.path...); err != nil {
		return nil, err
	}
	to := c.path[len(c.path)-1]

	if c.reconcile || entersActiveSet(from, to) {
		if err := s.checkFunds(ctx, tx, payout, to); err != nil {
			return nil, err
		}
	}

	updates := map[string]any{"status": to}
	for k, v := range c.updates {
		updates[k] = v
	}
	now := s.now()
	if err := s.repo.WithTx(tx).Update(ctx, payout, updates); err != nil {
		return nil, err
	}
	payout.Status = to
	payout.UpdatedAt = now

	result := &Transition{Payout: payout, From: from, To: to, Changed: true}
	if c.category != "" {
		payoutID := payout.ID
		entry, err := s.ledger.Record(ctx, tx, ledger.RecordInput{
			BookingID:   payout.BookingID,
			PayoutID:    &payoutID,
			Category:    c.category,
			AmountCents: payout.AmountCents,
			Label:       c.label,
			ActorID:     c.operator,
		})
		if err != nil {
			return nil, err
		}
		result.Entry = entry
	}

	if err := s.emit(ctx, tx, enums.EventPayoutStatusChanged, payout, from, c.reason, c.operator, now); err != nil {
		return nil, err
	}
	return result, nil
}

// checkFunds reconciles the booking's ledger against its payouts and, when
// the payout is about to start counting against the total, verifies the
// projected sum and claims the booking's funds version.
func (s *service) checkFunds(ctx context.Context, tx *gorm.DB, payout *models.Payout, to enums.PayoutStatus) error {
	bookingRepo := s.bookings.WithTx(tx)
	booking, err := bookingRepo.FindForUpdate(ctx, payout.BookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Newf(pkgerrors.CodeConservationViolation, "payout %s references missing booking %s", payout.ID, payout.BookingID)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	siblings, err := s.repo.WithTx(tx).ListByBooking(ctx, booking.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list booking payouts")
	}
	entries, err := s.ledger.ListByBooking(ctx, tx, booking.ID)
	if err != nil {
		return err
	}
	if err := s.reconcile(ctx, tx, booking, siblings, entries); err != nil {
		return err
	}
	if !entersActiveSet(payout.Status, to) {
		return nil
	}
	if err := ledger.CheckProjected(booking.TotalCents, siblings, payout.ID, to); err != nil {
		return err
	}
	return bookingRepo.BumpFundsVersion(ctx, booking)
}

// reconcile re-reads the payouts before reporting a violation. A sibling
// that committed between the payout and ledger reads is a concurrent
// modification, not a broken ledger.
func (s *service) reconcile(ctx context.Context, tx *gorm.DB, booking *models.Booking, siblings []models.Payout, entries []models.LedgerEntry) error {
	err := ledger.Reconcile(booking.TotalCents, siblings, entries)
	if err == nil {
		return nil
	}
	again, lerr := s.repo.WithTx(tx).ListByBooking(ctx, booking.ID)
	if lerr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, lerr, "list booking payouts")
	}
	if !ledger.SamePayouts(siblings, again) {
		return pkgerrors.New(pkgerrors.CodeConcurrentModification, "booking payouts changed while reconciling").
			WithDetails(map[string]any{"booking_id": booking.ID.String()})
	}
	return err
}

func (s *service) requireGate(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) error {
	enabled, err := s.gate.PayoutEnabled(ctx, tx, vendorID)
	if err != nil {
		return err
	}
	if !enabled {
		return pkgerrors.New(pkgerrors.CodeVendorPayoutDisabled, "vendor payouts are disabled").
			WithDetails(map[string]any{"vendor_id": vendorID.String()})
	}
	return nil
}

func (s *service) load(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Payout, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}
	payout, err := s.repo.WithTx(tx).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	return payout, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, payout *models.Payout, from enums.PayoutStatus, reason string, operator uuid.UUID, at time.Time) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayout,
		AggregateID:   payout.ID,
		Actor:         outbox.Operator(operator),
		OccurredAt:    at,
		Data: StatusChangedEvent{
			PayoutID:    payout.ID,
			BookingID:   payout.BookingID,
			VendorID:    payout.VendorID,
			Type:        payout.Type,
			AmountCents: payout.AmountCents,
			From:        from,
			To:          payout.Status,
			Reason:      reason,
			Attempts:    payout.TransferAttempts,
		},
	})
}

// TransferBackoff is the delay before transfer attempt n+1 after n failures:
// base doubled per failure, capped at six hours.
func TransferBackoff(base time.Duration, attempts int) time.Duration {
	if base <= 0 || attempts <= 0 {
		return 0
	}
	b := retry.WithCappedDuration(maxTransferBackoff, retry.NewExponential(base))
	var delay time.Duration
	for i := 0; i < attempts; i++ {
		next, stop := b.Next()
		if stop {
			break
		}
		delay = next
	}
	return delay
}

func entersActiveSet(from, to enums.PayoutStatus) bool {
	return !from.CountsAgainstTotal() && to.CountsAgainstTotal()
}

func unchanged(payout *models.Payout) *Transition {
	return &Transition{Payout: payout, From: payout.Status, To: payout.Status}
}

func requireOperator(id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "operator id required")
	}
	return nil
}

func labelWithReason(label, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return label
	}
	return label + ": " + reason
}
