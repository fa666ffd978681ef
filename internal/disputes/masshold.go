package disputes

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

// HoldFunc holds one payout and reports the status it left.
type HoldFunc func(ctx context.Context, payoutID uuid.UUID) (enums.PayoutStatus, error)

type HeldPayout struct {
	PayoutID uuid.UUID          `json:"payout_id"`
	From     enums.PayoutStatus `json:"from"`
}

type SkippedPayout struct {
	PayoutID uuid.UUID          `json:"payout_id"`
	Status   enums.PayoutStatus `json:"status"`
	Code     pkgerrors.Code     `json:"code"`
	Reason   string             `json:"reason"`
}

// HoldReport is the per-payout outcome of a mass hold.
type HoldReport struct {
	BookingID uuid.UUID       `json:"booking_id"`
	Held      []HeldPayout    `json:"held"`
	Skipped   []SkippedPayout `json:"skipped"`
}

// MassHold applies hold to every payout in order. Payouts that are already
// paid or reversed are reported as skipped without an attempt. A failed hold
// is recorded and the loop moves on; holds already applied stay applied.
func MassHold(ctx context.Context, bookingID uuid.UUID, payouts []models.Payout, hold HoldFunc) HoldReport {
	report := HoldReport{
		BookingID: bookingID,
		Held:      []HeldPayout{},
		Skipped:   []SkippedPayout{},
	}
	for _, p := range payouts {
		if p.Status.IsTerminal() {
			report.Skipped = append(report.Skipped, SkippedPayout{
				PayoutID: p.ID,
				Status:   p.Status,
				Code:     pkgerrors.CodeTerminalState,
				Reason:   "payout is " + string(p.Status),
			})
			continue
		}
		if err := ctx.Err(); err != nil {
			report.Skipped = append(report.Skipped, SkippedPayout{
				PayoutID: p.ID,
				Status:   p.Status,
				Code:     pkgerrors.CodeDependency,
				Reason:   err.Error(),
			})
			continue
		}

		from, err := hold(ctx, p.ID)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedPayout{
				PayoutID: p.ID,
				Status:   p.Status,
				Code:     pkgerrors.CodeOf(err),
				Reason:   err.Error(),
			})
			continue
		}
		report.Held = append(report.Held, HeldPayout{PayoutID: p.ID, From: from})
	}
	return report
}
