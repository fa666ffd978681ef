package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/internal/audit"
	"github.com/eventloom/finance-backend/internal/disputes"
	"github.com/eventloom/finance-backend/internal/payouts"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
)

// RequestPayout creates the payout and hands it to admin intake. Both steps
// run under the booking lock; a failed intake leaves a REQUESTED payout that
// a later approve walks forward.
func (g *Gateway) RequestPayout(ctx context.Context, input payouts.RequestInput) (*payouts.Transition, error) {
	cmd := command{name: "request_payout", resource: resourceBooking, resourceID: input.BookingID, operatorID: input.OperatorID}
	return execute(ctx, g, cmd, func(ctx context.Context) (*payouts.Transition, error) {
		requested, err := g.payouts.Request(ctx, input)
		if err != nil {
			return nil, err
		}
		intake, err := g.payouts.Intake(ctx, payouts.IntakeInput{PayoutID: requested.Payout.ID, OperatorID: input.OperatorID})
		if err != nil {
			g.logg.Warn(g.logg.WithResource(ctx, resourcePayout, requested.Payout.ID.String()), "payout intake failed: "+err.Error())
			return requested, nil
		}
		intake.From = requested.From
		return intake, nil
	}, func(t *payouts.Transition) []audit.Entry {
		return payoutEntries(enums.AuditActionPayoutRequested, input.OperatorID, map[string]any{
			"type":         t.Payout.Type,
			"amount_cents": t.Payout.AmountCents,
		})(t)
	})
}

func (g *Gateway) ApprovePayout(ctx context.Context, input payouts.ApproveInput) (*payouts.Transition, error) {
	return g.payoutCommand(ctx, "approve_payout", input.PayoutID, input.OperatorID, enums.AuditActionPayoutApproved, nil,
		func(ctx context.Context) (*payouts.Transition, error) { return g.payouts.Approve(ctx, input) })
}

func (g *Gateway) HoldPayout(ctx context.Context, input payouts.HoldInput) (*payouts.Transition, error) {
	return g.payoutCommand(ctx, "hold_payout", input.PayoutID, input.OperatorID, enums.AuditActionPayoutHeld, reasonMeta(input.Reason),
		func(ctx context.Context) (*payouts.Transition, error) { return g.payouts.Hold(ctx, input) })
}

func (g *Gateway) ReversePayout(ctx context.Context, input payouts.ReverseInput) (*payouts.Transition, error) {
	return g.payoutCommand(ctx, "reverse_payout", input.PayoutID, input.OperatorID, enums.AuditActionPayoutReversed, reasonMeta(input.Reason),
		func(ctx context.Context) (*payouts.Transition, error) { return g.payouts.Reverse(ctx, input) })
}

func (g *Gateway) MarkPayoutPaid(ctx context.Context, input payouts.MarkPaidInput) (*payouts.Transition, error) {
	t, err := g.payoutCommand(ctx, "mark_payout_paid", input.PayoutID, input.OperatorID, enums.AuditActionPayoutPaid,
		map[string]any{"provider_ref": input.ProviderRef},
		func(ctx context.Context) (*payouts.Transition, error) { return g.payouts.MarkPaid(ctx, input) })
	if err == nil && t.Changed {
		g.metrics.IncTransfer("paid")
	}
	return t, err
}

func (g *Gateway) MarkPayoutFailed(ctx context.Context, input payouts.MarkFailedInput) (*payouts.Transition, error) {
	t, err := g.payoutCommand(ctx, "mark_payout_failed", input.PayoutID, input.OperatorID, enums.AuditActionPayoutTransferFailed,
		map[string]any{"error": input.Error},
		func(ctx context.Context) (*payouts.Transition, error) { return g.payouts.MarkFailed(ctx, input) })
	if err == nil {
		g.metrics.IncTransfer("failed")
	}
	return t, err
}

// HoldPayoutsForBooking holds every payout of a booking, each under its own
// lock. Per-payout failures are reported, not returned.
func (g *Gateway) HoldPayoutsForBooking(ctx context.Context, bookingID uuid.UUID, reason string, operatorID uuid.UUID) (*disputes.HoldReport, error) {
	cmd := command{name: "hold_booking_payouts", resource: resourceBooking, resourceID: bookingID, operatorID: operatorID}
	list, err := execute(ctx, g, cmd, func(ctx context.Context) ([]models.Payout, error) {
		if _, err := g.bookings.Get(ctx, bookingID); err != nil {
			return nil, err
		}
		return g.payouts.ListForBooking(ctx, bookingID)
	}, nil)
	if err != nil {
		return nil, err
	}

	report := disputes.MassHold(ctx, bookingID, list, func(ctx context.Context, payoutID uuid.UUID) (enums.PayoutStatus, error) {
		t, err := g.HoldPayout(ctx, payouts.HoldInput{PayoutID: payoutID, Reason: reason, OperatorID: operatorID})
		if err != nil {
			return "", err
		}
		return t.From, nil
	})
	g.metrics.AddMassHold(len(report.Held), len(report.Skipped))
	if len(report.Skipped) > 0 {
		g.logg.Warn(g.logg.WithFields(ctx, map[string]any{
			"booking_id": bookingID.String(),
			"held":       len(report.Held),
			"skipped":    len(report.Skipped),
		}), "mass hold skipped payouts")
	}
	return &report, nil
}

func (g *Gateway) GetPayout(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	return g.payouts.Get(ctx, id)
}

func (g *Gateway) ListPayouts(ctx context.Context, params payouts.ListParams) (*payouts.ListResult, error) {
	return g.payouts.List(ctx, params)
}

func (g *Gateway) payoutCommand(ctx context.Context, name string, payoutID, operatorID uuid.UUID, action enums.AuditAction, meta map[string]any, fn func(ctx context.Context) (*payouts.Transition, error)) (*payouts.Transition, error) {
	cmd := command{name: name, resource: resourcePayout, resourceID: payoutID, operatorID: operatorID}
	return execute(ctx, g, cmd, fn, payoutEntries(action, operatorID, meta))
}

func payoutEntries(action enums.AuditAction, operator uuid.UUID, extra map[string]any) func(*payouts.Transition) []audit.Entry {
	return func(t *payouts.Transition) []audit.Entry {
		if !t.Changed {
			return nil
		}
		meta := map[string]any{
			"booking_id": t.Payout.BookingID,
			"from":       t.From,
			"to":         t.To,
		}
		for k, v := range extra {
			meta[k] = v
		}
		if t.Entry != nil {
			meta["ledger_entry_id"] = t.Entry.ID
			meta["ledger_category"] = t.Entry.Category
		}
		return []audit.Entry{{
			ActorID:      operator,
			Action:       action,
			ResourceType: enums.AuditResourcePayout,
			ResourceID:   t.Payout.ID,
			OccurredAt:   t.Payout.UpdatedAt,
			Metadata:     meta,
		}}
	}
}

func reasonMeta(reason string) map[string]any {
	if reason == "" {
		return nil
	}
	return map[string]any{"reason": reason}
}
