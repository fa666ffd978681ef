package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

// ActiveCents sums the payouts committed against the booking total.
func ActiveCents(payouts []models.Payout) int64 {
	var sum int64
	for _, p := range payouts {
		if p.Status.CountsAgainstTotal() {
			sum += p.AmountCents
		}
	}
	return sum
}

// CheckProjected verifies that moving payoutID to next keeps the active sum
// within totalCents. It runs before any write.
func CheckProjected(totalCents int64, payouts []models.Payout, payoutID uuid.UUID, next enums.PayoutStatus) error {
	var projected int64
	found := false
	for _, p := range payouts {
		status := p.Status
		if p.ID == payoutID {
			status = next
			found = true
		}
		if status.CountsAgainstTotal() {
			projected += p.AmountCents
		}
	}
	if !found {
		return pkgerrors.Newf(pkgerrors.CodeConservationViolation, "payout %s missing from its booking's payout set", payoutID)
	}
	if projected > totalCents {
		return pkgerrors.New(pkgerrors.CodeConservationViolation, "active payouts would exceed booking total").
			WithDetails(map[string]any{
				"booking_total_cents":    totalCents,
				"projected_active_cents": projected,
				"payout_id":              payoutID.String(),
			})
	}
	return nil
}

// Reconcile cross-checks the ledger against the payout rows of one booking.
// Every discrepancy is reported; any discrepancy is a CONSERVATION_VIOLATION.
func Reconcile(totalCents int64, payouts []models.Payout, entries []models.LedgerEntry) error {
	var errs error
	positions := Positions(entries)

	for _, p := range payouts {
		want, hasPosition := expectedCategory(p.Status)
		got, ok := positions[p.ID]
		delete(positions, p.ID)

		switch {
		case !hasPosition && ok:
			errs = multierr.Append(errs, fmt.Errorf("payout %s is %s but ledger places it in %s", p.ID, p.Status, got.Category))
		case hasPosition && !ok:
			errs = multierr.Append(errs, fmt.Errorf("payout %s is %s but has no ledger entries", p.ID, p.Status))
		case hasPosition && got.Category != want:
			errs = multierr.Append(errs, fmt.Errorf("payout %s is %s but ledger places it in %s", p.ID, p.Status, got.Category))
		case hasPosition && got.AmountCents != p.AmountCents:
			errs = multierr.Append(errs, fmt.Errorf("payout %s amount %d differs from ledger amount %d", p.ID, p.AmountCents, got.AmountCents))
		}
	}
	for id, pos := range positions {
		errs = multierr.Append(errs, fmt.Errorf("ledger has %s entries for unknown payout %s", pos.Category, id))
	}

	active := ActiveCents(payouts)
	if active > totalCents {
		errs = multierr.Append(errs, fmt.Errorf("active payouts %d exceed booking total %d", active, totalCents))
	}
	totals := Summarize(entries)
	if totals.HeldCents+totals.ReleasedCents != active {
		errs = multierr.Append(errs, fmt.Errorf("ledger held+released %d does not match active payouts %d", totals.HeldCents+totals.ReleasedCents, active))
	}

	if errs == nil {
		return nil
	}
	problems := []string{}
	for _, e := range multierr.Errors(errs) {
		problems = append(problems, e.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeConservationViolation, errs, "ledger does not reconcile with payouts").
		WithDetails(map[string]any{"problems": problems})
}

// SamePayouts reports whether two reads of a booking's payouts saw the same
// rows at the same versions.
func SamePayouts(a, b []models.Payout) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[uuid.UUID]int64, len(a))
	for _, p := range a {
		seen[p.ID] = p.Version
	}
	for _, p := range b {
		v, ok := seen[p.ID]
		if !ok || v != p.Version {
			return false
		}
	}
	return true
}

func expectedCategory(status enums.PayoutStatus) (enums.LedgerCategory, bool) {
	switch status {
	case enums.PayoutStatusHeld:
		return enums.LedgerCategoryHeld, true
	case enums.PayoutStatusApproved, enums.PayoutStatusPaid:
		return enums.LedgerCategoryReleased, true
	case enums.PayoutStatusReversed:
		return enums.LedgerCategoryReversal, true
	default:
		return "", false
	}
}
