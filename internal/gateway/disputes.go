package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/internal/audit"
	"github.com/eventloom/finance-backend/internal/disputes"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
)

// OpenDisputeInput opens a dispute and, unless SkipHolds is set, freezes the
// booking's payouts right after the dispute commits.
type OpenDisputeInput struct {
	disputes.OpenInput
	SkipHolds bool
}

// DisputeOpened carries the committed dispute and the mass-hold outcome.
// Holds is nil when holds were skipped or could not start.
type DisputeOpened struct {
	Dispute *models.Dispute
	Holds   *disputes.HoldReport
}

func (g *Gateway) OpenDispute(ctx context.Context, input OpenDisputeInput) (*DisputeOpened, error) {
	cmd := command{name: "open_dispute", resource: resourceBooking, resourceID: input.BookingID, operatorID: input.OperatorID}
	dispute, err := execute(ctx, g, cmd, func(ctx context.Context) (*models.Dispute, error) {
		return g.disputes.Open(ctx, input.OpenInput)
	}, func(d *models.Dispute) []audit.Entry {
		return []audit.Entry{{
			ActorID:      input.OperatorID,
			Action:       enums.AuditActionDisputeOpened,
			ResourceType: enums.AuditResourceDispute,
			ResourceID:   d.ID,
			OccurredAt:   d.CreatedAt,
			Metadata: map[string]any{
				"booking_id": d.BookingID,
				"reason":     d.Reason,
			},
		}}
	})
	if err != nil {
		return nil, err
	}

	out := &DisputeOpened{Dispute: dispute}
	if input.SkipHolds {
		return out, nil
	}
	report, err := g.HoldPayoutsForBooking(ctx, dispute.BookingID, "Dispute opened: "+dispute.Reason, input.OperatorID)
	if err != nil {
		g.logg.Error(g.logg.WithResource(ctx, resourceDispute, dispute.ID.String()), "dispute mass hold did not start", err)
		return out, nil
	}
	out.Holds = report
	return out, nil
}

func (g *Gateway) UpdateDisputeStatus(ctx context.Context, input disputes.StatusInput) (*disputes.StatusChange, error) {
	cmd := command{name: "update_dispute_status", resource: resourceDispute, resourceID: input.DisputeID, operatorID: input.OperatorID}
	return execute(ctx, g, cmd, func(ctx context.Context) (*disputes.StatusChange, error) {
		return g.disputes.UpdateStatus(ctx, input)
	}, disputeEntries(input))
}

func (g *Gateway) ResolveDispute(ctx context.Context, input disputes.StatusInput) (*disputes.StatusChange, error) {
	cmd := command{name: "resolve_dispute", resource: resourceDispute, resourceID: input.DisputeID, operatorID: input.OperatorID}
	return execute(ctx, g, cmd, func(ctx context.Context) (*disputes.StatusChange, error) {
		return g.disputes.Resolve(ctx, input)
	}, disputeEntries(input))
}

func disputeEntries(input disputes.StatusInput) func(*disputes.StatusChange) []audit.Entry {
	return func(c *disputes.StatusChange) []audit.Entry {
		meta := map[string]any{
			"booking_id": c.Dispute.BookingID,
			"from":       c.From,
			"to":         c.Dispute.Status,
		}
		if input.Note != "" {
			meta["note"] = input.Note
		}
		return []audit.Entry{{
			ActorID:      input.OperatorID,
			Action:       enums.DisputeStatusAction(c.Dispute.Status),
			ResourceType: enums.AuditResourceDispute,
			ResourceID:   c.Dispute.ID,
			OccurredAt:   c.Dispute.UpdatedAt,
			Metadata:     meta,
		}}
	}
}

func (g *Gateway) GetDispute(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return g.disputes.Get(ctx, id)
}

func (g *Gateway) ListDisputes(ctx context.Context, params disputes.ListParams) (*disputes.ListResult, error) {
	return g.disputes.List(ctx, params)
}
