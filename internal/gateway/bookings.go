package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/internal/audit"
	"github.com/eventloom/finance-backend/internal/bookings"
	"github.com/eventloom/finance-backend/internal/finance"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

func (g *Gateway) CreateBooking(ctx context.Context, input bookings.CreateInput) (*models.Booking, error) {
	cmd := command{name: "create_booking", resource: resourceBooking, operatorID: input.OperatorID}
	return execute(ctx, g, cmd, func(ctx context.Context) (*models.Booking, error) {
		return g.bookings.Create(ctx, input)
	}, func(b *models.Booking) []audit.Entry {
		return []audit.Entry{{
			ActorID:      input.OperatorID,
			Action:       enums.AuditActionBookingCreated,
			ResourceType: enums.AuditResourceBooking,
			ResourceID:   b.ID,
			OccurredAt:   b.CreatedAt,
			Metadata: map[string]any{
				"vendor_id":    b.VendorID,
				"organizer_id": b.OrganizerID,
				"total_cents":  b.TotalCents,
			},
		}}
	})
}

func (g *Gateway) TransitionBooking(ctx context.Context, input bookings.TransitionInput) (*bookings.TransitionResult, error) {
	cmd := command{name: "transition_booking", resource: resourceBooking, resourceID: input.BookingID, operatorID: input.OperatorID}
	return execute(ctx, g, cmd, func(ctx context.Context) (*bookings.TransitionResult, error) {
		return g.bookings.Transition(ctx, input)
	}, bookingEntries(input.OperatorID, input.Reason))
}

func (g *Gateway) CancelBooking(ctx context.Context, input bookings.CancelInput) (*bookings.TransitionResult, error) {
	cmd := command{name: "cancel_booking", resource: resourceBooking, resourceID: input.BookingID, operatorID: input.OperatorID}
	return execute(ctx, g, cmd, func(ctx context.Context) (*bookings.TransitionResult, error) {
		return g.bookings.Cancel(ctx, input)
	}, bookingEntries(input.OperatorID, input.Reason))
}

func bookingEntries(operator uuid.UUID, reason string) func(*bookings.TransitionResult) []audit.Entry {
	return func(r *bookings.TransitionResult) []audit.Entry {
		action := enums.AuditActionBookingTransitioned
		if r.Booking.State == enums.BookingStateCanceled {
			action = enums.AuditActionBookingCanceled
		}
		meta := map[string]any{"from": r.From, "to": r.Booking.State}
		if reason != "" {
			meta["reason"] = reason
		}
		return []audit.Entry{{
			ActorID:      operator,
			Action:       action,
			ResourceType: enums.AuditResourceBooking,
			ResourceID:   r.Booking.ID,
			OccurredAt:   r.Booking.UpdatedAt,
			Metadata:     meta,
		}}
	}
}

func (g *Gateway) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return g.bookings.Get(ctx, id)
}

func (g *Gateway) ListBookings(ctx context.Context, params bookings.ListParams) (*bookings.ListResult, error) {
	return g.bookings.List(ctx, params)
}

// BookingFinanceSummary escalates a reconciliation failure the same way a
// failed command does.
func (g *Gateway) BookingFinanceSummary(ctx context.Context, bookingID, operatorID uuid.UUID) (*finance.BookingSummary, error) {
	summary, err := g.finance.BookingSummary(ctx, bookingID)
	if err != nil && pkgerrors.IsCode(err, pkgerrors.CodeConservationViolation) {
		ctx = g.logg.WithResource(ctx, resourceBooking, bookingID.String())
		g.escalate(ctx, command{
			name:       "booking_finance_summary",
			resource:   resourceBooking,
			resourceID: bookingID,
			operatorID: operatorID,
		}, err)
	}
	return summary, err
}

func (g *Gateway) FinanceOverview(ctx context.Context) (*finance.Overview, error) {
	return g.finance.Overview(ctx)
}
