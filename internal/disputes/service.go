package disputes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eventloom/finance-backend/internal/bookings"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/outbox"
	"github.com/eventloom/finance-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the dispute record. Disputes reference a booking by id only;
// they never change the booking's state or own its payouts.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*models.Dispute, error)
	UpdateStatus(ctx context.Context, input StatusInput) (*StatusChange, error)
	Resolve(ctx context.Context, input StatusInput) (*StatusChange, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo     Repository
	bookings bookings.Repository
	tx       txRunner
	outbox   outbox.Emitter
	now      func() time.Time
}

type OpenInput struct {
	BookingID  uuid.UUID
	Reason     string
	Details    *string
	OperatorID uuid.UUID
}

type StatusInput struct {
	DisputeID  uuid.UUID
	Status     enums.DisputeStatus
	Note       string
	OperatorID uuid.UUID
}

type StatusChange struct {
	Dispute *models.Dispute
	From    enums.DisputeStatus
}

type ListParams struct {
	Filter ListFilter
	pagination.Params
}

type ListResult struct {
	Items  []models.Dispute
	Cursor string
}

type DisputeEvent struct {
	DisputeID uuid.UUID           `json:"dispute_id"`
	BookingID uuid.UUID           `json:"booking_id"`
	From      enums.DisputeStatus `json:"from,omitempty"`
	Status    enums.DisputeStatus `json:"status"`
	Reason    string              `json:"reason,omitempty"`
	Note      string              `json:"note,omitempty"`
}

func NewService(repo Repository, bookingRepo bookings.Repository, tx txRunner, emitter outbox.Emitter, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("disputes repository required")
	}
	if bookingRepo == nil {
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
	return &service{repo: repo, bookings: bookingRepo, tx: tx, outbox: emitter, now: now}, nil
}

// Open records a dispute against any booking, whatever its state.
func (s *service) Open(ctx context.Context, input OpenInput) (*models.Dispute, error) {
	if input.OperatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator id required")
	}
	if input.BookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute reason required")
	}

	now := s.now()
	dispute := &models.Dispute{
		ID:        uuid.New(),
		BookingID: input.BookingID,
		OpenedBy:  input.OperatorID,
		Reason:    reason,
		Details:   trimmed(input.Details),
		Status:    enums.DisputeStatusOpen,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.bookings.WithTx(tx).FindByID(ctx, input.BookingID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if err := s.repo.WithTx(tx).Create(ctx, dispute); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create dispute")
		}
		return s.emit(ctx, tx, enums.EventDisputeOpened, dispute, "", "", input.OperatorID, now)
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

func (s *service) UpdateStatus(ctx context.Context, input StatusInput) (*StatusChange, error) {
	if input.OperatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator id required")
	}
	if input.DisputeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute id required")
	}

	var result *StatusChange
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		dispute, err := s.load(ctx, repo, input.DisputeID)
		if err != nil {
			return err
		}
		from := dispute.Status
		if err := CheckTransition(from, input.Status); err != nil {
			return err
		}

		now := s.now()
		note := strings.TrimSpace(input.Note)
		updates := map[string]any{"status": input.Status}
		if input.Status.IsTerminal() {
			updates["resolved_at"] = now
			dispute.ResolvedAt = &now
		}
		if note != "" {
			updates["resolution_note"] = note
			dispute.ResolutionNote = &note
		}
		if err := repo.Update(ctx, dispute, updates); err != nil {
			return err
		}
		dispute.Status = input.Status
		dispute.UpdatedAt = now

		if err := s.emit(ctx, tx, enums.EventDisputeStatusChanged, dispute, from, note, input.OperatorID, now); err != nil {
			return err
		}
		result = &StatusChange{Dispute: dispute, From: from}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Resolve closes a dispute with an outcome and a required note.
func (s *service) Resolve(ctx context.Context, input StatusInput) (*StatusChange, error) {
	if !input.Status.IsTerminal() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "resolution outcome must be %s or %s", enums.DisputeStatusResolved, enums.DisputeStatusRejected)
	}
	if strings.TrimSpace(input.Note) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resolution note required")
	}
	return s.UpdateStatus(ctx, input)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute id required")
	}
	return s.load(ctx, s.repo, id)
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, params.Filter, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list disputes")
	}
	items, next := pagination.Trim(rows, params.Limit, func(d models.Dispute) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.CreatedAt, ID: d.ID}
	})
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Dispute, error) {
	dispute, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
	}
	return dispute, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, d *models.Dispute, from enums.DisputeStatus, note string, operator uuid.UUID, at time.Time) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateDispute,
		AggregateID:   d.ID,
		Actor:         outbox.Operator(operator),
		OccurredAt:    at,
		Data: DisputeEvent{
			DisputeID: d.ID,
			BookingID: d.BookingID,
			From:      from,
			Status:    d.Status,
			Reason:    d.Reason,
			Note:      note,
		},
	})
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
