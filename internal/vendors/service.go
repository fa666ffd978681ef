package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/pkg/db"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the vendor payout gate, the circuit breaker consulted by
// every payout approval and paid callback.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*GateChange, error)
	Get(ctx context.Context, vendorID uuid.UUID) (*models.VendorPayoutGate, error)
	List(ctx context.Context, state *enums.VerificationState, limit int) ([]models.VendorPayoutGate, error)
	Approve(ctx context.Context, input ReviewInput) (*GateChange, error)
	NeedsChanges(ctx context.Context, input ReviewInput) (*GateChange, error)
	DisablePayout(ctx context.Context, input ReviewInput) (*GateChange, error)
	PayoutEnabled(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) (bool, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outbox.Emitter
	now    func() time.Time
}

type RegisterInput struct {
	VendorID           uuid.UUID
	ProviderAccountRef string
	OperatorID         uuid.UUID
}

// ReviewInput carries a gate decision. Note is required for needs-changes
// and used as the disable reason for disable-payout.
type ReviewInput struct {
	VendorID   uuid.UUID
	Note       string
	OperatorID uuid.UUID
}

// GateChange is the committed outcome of a gate command.
type GateChange struct {
	Gate    *models.VendorPayoutGate
	From    enums.VerificationState
	Changed bool
}

type GateChangedEvent struct {
	VendorID          uuid.UUID               `json:"vendor_id"`
	From              enums.VerificationState `json:"from,omitempty"`
	VerificationState enums.VerificationState `json:"verification_state"`
	PayoutEnabled     bool                    `json:"payout_enabled"`
	Note              string                  `json:"note,omitempty"`
}

func NewService(repo Repository, tx txRunner, emitter outbox.Emitter, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendors repository required")
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

func (s *service) Register(ctx context.Context, input RegisterInput) (*GateChange, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if input.OperatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator id required")
	}

	now := s.now()
	gate := &models.VendorPayoutGate{
		VendorID:          input.VendorID,
		VerificationState: enums.VerificationStatePending,
		PayoutEnabled:     false,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if ref := strings.TrimSpace(input.ProviderAccountRef); ref != "" {
		gate.ProviderAccountRef = &ref
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByVendorID(ctx, input.VendorID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "vendor already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor gate")
		}
		if err := repo.Create(ctx, gate); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "vendor already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor gate")
		}
		return s.emit(ctx, tx, gate, "", "", input.OperatorID, now)
	})
	if err != nil {
		return nil, err
	}
	return &GateChange{Gate: gate, Changed: true}, nil
}

func (s *service) Get(ctx context.Context, vendorID uuid.UUID) (*models.VendorPayoutGate, error) {
	return s.load(ctx, s.repo, vendorID)
}

func (s *service) List(ctx context.Context, state *enums.VerificationState, limit int) ([]models.VendorPayoutGate, error) {
	rows, err := s.repo.List(ctx, state, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor gates")
	}
	return rows, nil
}

func (s *service) Approve(ctx context.Context, input ReviewInput) (*GateChange, error) {
	return s.review(ctx, input, enums.VerificationStateApproved, true, map[string]any{"disabled_reason": nil})
}

func (s *service) NeedsChanges(ctx context.Context, input ReviewInput) (*GateChange, error) {
	note := strings.TrimSpace(input.Note)
	if note == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientAuthorization, "a review note is required")
	}
	return s.review(ctx, input, enums.VerificationStateNeedsChanges, false, map[string]any{"review_note": note})
}

// DisablePayout is the emergency stop. It is legal from every verification
// state and never touches payouts that were already paid.
func (s *service) DisablePayout(ctx context.Context, input ReviewInput) (*GateChange, error) {
	updates := map[string]any{"disabled_reason": nil}
	if reason := strings.TrimSpace(input.Note); reason != "" {
		updates["disabled_reason"] = reason
	}
	return s.review(ctx, input, enums.VerificationStateDisabledPayout, false, updates)
}

// PayoutEnabled joins tx when one is given so approvals read the gate in the
// same transaction as the payout they change.
func (s *service) PayoutEnabled(ctx context.Context, tx *gorm.DB, vendorID uuid.UUID) (bool, error) {
	gate, err := s.repo.WithTx(tx).FindForShare(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor gate")
	}
	return gate.PayoutEnabled, nil
}

func (s *service) review(ctx context.Context, input ReviewInput, state enums.VerificationState, enabled bool, extra map[string]any) (*GateChange, error) {
	if input.OperatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator id required")
	}

	var result *GateChange
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		gate, err := s.load(ctx, repo, input.VendorID)
		if err != nil {
			return err
		}
		from := gate.VerificationState

		updates := map[string]any{
			"verification_state": state,
			"payout_enabled":     enabled,
		}
		for k, v := range extra {
			updates[k] = v
		}
		if err := repo.Update(ctx, gate, updates); err != nil {
			return err
		}
		gate.VerificationState = state
		gate.PayoutEnabled = enabled
		gate.UpdatedAt = s.now()
		if note, ok := extra["review_note"].(string); ok {
			gate.ReviewNote = &note
		}
		if _, ok := extra["disabled_reason"]; ok {
			gate.DisabledReason = nil
			if reason, ok := extra["disabled_reason"].(string); ok {
				gate.DisabledReason = &reason
			}
		}

		if err := s.emit(ctx, tx, gate, from, strings.TrimSpace(input.Note), input.OperatorID, gate.UpdatedAt); err != nil {
			return err
		}
		result = &GateChange{Gate: gate, From: from, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) load(ctx context.Context, repo Repository, vendorID uuid.UUID) (*models.VendorPayoutGate, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	gate, err := repo.FindByVendorID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor gate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor gate")
	}
	return gate, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, gate *models.VendorPayoutGate, from enums.VerificationState, note string, operator uuid.UUID, at time.Time) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventVendorGateChanged,
		AggregateType: enums.AggregateVendor,
		AggregateID:   gate.VendorID,
		Actor:         outbox.Operator(operator),
		OccurredAt:    at,
		Data: GateChangedEvent{
			VendorID:          gate.VendorID,
			From:              from,
			VerificationState: gate.VerificationState,
			PayoutEnabled:     gate.PayoutEnabled,
			Note:              note,
		},
	})
}
