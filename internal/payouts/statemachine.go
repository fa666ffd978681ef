package payouts

import (
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

// allowed is the complete payout transition table. Pairs not listed here
// are rejected.
var allowed = map[enums.PayoutStatus][]enums.PayoutStatus{
	enums.PayoutStatusRequested:            {enums.PayoutStatusPendingAdminApproval, enums.PayoutStatusHeld},
	enums.PayoutStatusPendingAdminApproval: {enums.PayoutStatusApproved, enums.PayoutStatusHeld},
	enums.PayoutStatusHeld:                 {enums.PayoutStatusApproved, enums.PayoutStatusReversed},
	enums.PayoutStatusApproved:             {enums.PayoutStatusPaid, enums.PayoutStatusHeld},
}

// CanTransition reports whether from -> to is a listed edge.
func CanTransition(from, to enums.PayoutStatus) bool {
	for _, candidate := range allowed[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// CheckTransition returns TERMINAL_STATE for paid or reversed payouts and
// INVALID_TRANSITION for any other unlisted edge.
func CheckTransition(from, to enums.PayoutStatus) error {
	if from.IsTerminal() {
		return pkgerrors.Newf(pkgerrors.CodeTerminalState, "payout is %s", from).
			WithDetails(map[string]any{"current_status": from, "target_status": to})
	}
	if !CanTransition(from, to) {
		return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "payout cannot move from %s to %s", from, to).
			WithDetails(map[string]any{"current_status": from, "target_status": to})
	}
	return nil
}

// CheckPath validates every edge of a multi-step walk starting at from.
func CheckPath(from enums.PayoutStatus, path ...enums.PayoutStatus) error {
	current := from
	for _, next := range path {
		if err := CheckTransition(current, next); err != nil {
			return err
		}
		current = next
	}
	return nil
}

// approvalPath is the walk approve performs from a given status. REQUESTED
// passes through intake so the table is never bypassed.
func approvalPath(from enums.PayoutStatus) ([]enums.PayoutStatus, bool) {
	switch from {
	case enums.PayoutStatusRequested:
		return []enums.PayoutStatus{enums.PayoutStatusPendingAdminApproval, enums.PayoutStatusApproved}, true
	case enums.PayoutStatusPendingAdminApproval, enums.PayoutStatusHeld:
		return []enums.PayoutStatus{enums.PayoutStatusApproved}, true
	default:
		return nil, false
	}
}
