package gateway

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/internal/audit"
	"github.com/eventloom/finance-backend/internal/vendors"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
)

func (g *Gateway) RegisterVendor(ctx context.Context, input vendors.RegisterInput) (*vendors.GateChange, error) {
	cmd := command{name: "register_vendor", resource: resourceVendor, resourceID: input.VendorID, operatorID: input.OperatorID}
	return execute(ctx, g, cmd, func(ctx context.Context) (*vendors.GateChange, error) {
		return g.vendors.Register(ctx, input)
	}, gateEntries(enums.AuditActionVendorRegistered, input.OperatorID, ""))
}

func (g *Gateway) ApproveVendor(ctx context.Context, input vendors.ReviewInput) (*vendors.GateChange, error) {
	return g.gateCommand(ctx, "approve_vendor", enums.AuditActionVendorApproved, input, g.vendors.Approve)
}

func (g *Gateway) VendorNeedsChanges(ctx context.Context, input vendors.ReviewInput) (*vendors.GateChange, error) {
	return g.gateCommand(ctx, "vendor_needs_changes", enums.AuditActionVendorNeedsChanges, input, g.vendors.NeedsChanges)
}

// DisableVendorPayout is the emergency stop for a vendor. In-flight payouts
// are untouched, but no further approval or paid callback can pass the gate.
func (g *Gateway) DisableVendorPayout(ctx context.Context, input vendors.ReviewInput) (*vendors.GateChange, error) {
	return g.gateCommand(ctx, "disable_vendor_payout", enums.AuditActionVendorPayoutDisabled, input, g.vendors.DisablePayout)
}

func (g *Gateway) GetVendorGate(ctx context.Context, vendorID uuid.UUID) (*models.VendorPayoutGate, error) {
	return g.vendors.Get(ctx, vendorID)
}

func (g *Gateway) ListVendorGates(ctx context.Context, state *enums.VerificationState, limit int) ([]models.VendorPayoutGate, error) {
	return g.vendors.List(ctx, state, limit)
}

func (g *Gateway) gateCommand(ctx context.Context, name string, action enums.AuditAction, input vendors.ReviewInput, fn func(context.Context, vendors.ReviewInput) (*vendors.GateChange, error)) (*vendors.GateChange, error) {
	cmd := command{name: name, resource: resourceVendor, resourceID: input.VendorID, operatorID: input.OperatorID}
	return execute(ctx, g, cmd, func(ctx context.Context) (*vendors.GateChange, error) {
		return fn(ctx, input)
	}, gateEntries(action, input.OperatorID, input.Note))
}

func gateEntries(action enums.AuditAction, operator uuid.UUID, note string) func(*vendors.GateChange) []audit.Entry {
	return func(c *vendors.GateChange) []audit.Entry {
		if !c.Changed {
			return nil
		}
		meta := map[string]any{
			"from":           c.From,
			"to":             c.Gate.VerificationState,
			"payout_enabled": c.Gate.PayoutEnabled,
		}
		if note != "" {
			meta["note"] = note
		}
		return []audit.Entry{{
			ActorID:      operator,
			Action:       action,
			ResourceType: enums.AuditResourceVendor,
			ResourceID:   c.Gate.VendorID,
			OccurredAt:   c.Gate.UpdatedAt,
			Metadata:     meta,
		}}
	}
}
