package disputes

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventloom/finance-backend/internal/bookings"
	"github.com/eventloom/finance-backend/internal/testdb"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
	"github.com/eventloom/finance-backend/pkg/outbox"
)

type harness struct {
	svc      Service
	bookings bookings.Service
	events   *outbox.Repository
	operator uuid.UUID
}

func newHarness(t *testing.T) harness {
	t.Helper()
	client := testdb.New(t)
	events := outbox.NewRepository(client.DB())
	emitter := outbox.NewService(events, nil)
	bookingRepo := bookings.NewRepository(client.DB())
	bookingSvc, err := bookings.NewService(bookingRepo, client, emitter, nil)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(client.DB()), bookingRepo, client, emitter, nil)
	require.NoError(t, err)
	return harness{svc: svc, bookings: bookingSvc, events: events, operator: uuid.New()}
}

func (h harness) booking(t *testing.T) uuid.UUID {
	t.Helper()
	b, err := h.bookings.Create(context.Background(), bookings.CreateInput{
		OrganizerID: uuid.New(), VendorID: uuid.New(), EventRef: "wedding", TotalCents: 1000, OperatorID: h.operator,
	})
	require.NoError(t, err)
	return b.ID
}

func TestCheckTransition_Closure(t *testing.T) {
	statuses := []enums.DisputeStatus{
		enums.DisputeStatusOpen,
		enums.DisputeStatusUnderReview,
		enums.DisputeStatusResolved,
		enums.DisputeStatusRejected,
	}
	legal := map[[2]enums.DisputeStatus]bool{
		{enums.DisputeStatusOpen, enums.DisputeStatusUnderReview}:     true,
		{enums.DisputeStatusOpen, enums.DisputeStatusRejected}:        true,
		{enums.DisputeStatusUnderReview, enums.DisputeStatusResolved}: true,
		{enums.DisputeStatusUnderReview, enums.DisputeStatusRejected}: true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			err := CheckTransition(from, to)
			switch {
			case legal[[2]enums.DisputeStatus{from, to}]:
				assert.NoError(t, err, "%s -> %s", from, to)
			case from.IsTerminal():
				assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTerminalState), "%s -> %s", from, to)
			default:
				assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition), "%s -> %s", from, to)
			}
		}
	}
}

func TestService_Lifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	bookingID := h.booking(t)

	details := "  vendor no-show  "
	dispute, err := h.svc.Open(ctx, OpenInput{BookingID: bookingID, Reason: "no show", Details: &details, OperatorID: h.operator})
	require.NoError(t, err)
	assert.Equal(t, enums.DisputeStatusOpen, dispute.Status)
	require.NotNil(t, dispute.Details)
	assert.Equal(t, "vendor no-show", *dispute.Details)

	review, err := h.svc.UpdateStatus(ctx, StatusInput{DisputeID: dispute.ID, Status: enums.DisputeStatusUnderReview, OperatorID: h.operator})
	require.NoError(t, err)
	assert.Equal(t, enums.DisputeStatusOpen, review.From)

	_, err = h.svc.Resolve(ctx, StatusInput{DisputeID: dispute.ID, Status: enums.DisputeStatusResolved, OperatorID: h.operator})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	resolved, err := h.svc.Resolve(ctx, StatusInput{DisputeID: dispute.ID, Status: enums.DisputeStatusResolved, Note: "refund issued", OperatorID: h.operator})
	require.NoError(t, err)
	require.NotNil(t, resolved.Dispute.ResolvedAt)

	got, err := h.svc.Get(ctx, dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DisputeStatusResolved, got.Status)
	require.NotNil(t, got.ResolutionNote)
	assert.Equal(t, "refund issued", *got.ResolutionNote)

	_, err = h.svc.UpdateStatus(ctx, StatusInput{DisputeID: dispute.ID, Status: enums.DisputeStatusRejected, OperatorID: h.operator})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTerminalState))

	events, err := h.events.ListByAggregate(dispute.ID)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestService_DisputeDoesNotTouchBooking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	bookingID := h.booking(t)

	dispute, err := h.svc.Open(ctx, OpenInput{BookingID: bookingID, Reason: "billing", OperatorID: h.operator})
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(ctx, StatusInput{DisputeID: dispute.ID, Status: enums.DisputeStatusRejected, OperatorID: h.operator})
	require.NoError(t, err)

	booking, err := h.bookings.Get(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStateCreated, booking.State)
}

func TestService_OpenValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Open(ctx, OpenInput{BookingID: uuid.New(), Reason: "x", OperatorID: h.operator})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = h.svc.Open(ctx, OpenInput{BookingID: h.booking(t), Reason: " ", OperatorID: h.operator})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.Open(ctx, OpenInput{BookingID: h.booking(t), Reason: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestService_ListByBooking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a, b := h.booking(t), h.booking(t)
	for _, id := range []uuid.UUID{a, a, b} {
		_, err := h.svc.Open(ctx, OpenInput{BookingID: id, Reason: "late", OperatorID: h.operator})
		require.NoError(t, err)
	}

	res, err := h.svc.List(ctx, ListParams{Filter: ListFilter{BookingID: &a}})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Empty(t, res.Cursor)
}
