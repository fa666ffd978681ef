package bookings

import (
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

// successor is the single legal forward path. CANCELED is reachable from
// every non-terminal state and is handled separately.
var successor = map[enums.BookingState]enums.BookingState{
	enums.BookingStateCreated:         enums.BookingStateVendorApproved,
	enums.BookingStateVendorApproved:  enums.BookingStateCountered,
	enums.BookingStateCountered:       enums.BookingStateReadyForPayment,
	enums.BookingStateReadyForPayment: enums.BookingStateActive,
	enums.BookingStateActive:          enums.BookingStateCompleted,
}

var milestoneLabels = map[enums.BookingState]string{
	enums.BookingStateCreated:         "Booking created",
	enums.BookingStateVendorApproved:  "Vendor approved",
	enums.BookingStateCountered:       "Countered",
	enums.BookingStateReadyForPayment: "Ready for payment",
	enums.BookingStateActive:          "Active",
	enums.BookingStateCompleted:       "Completed",
	enums.BookingStateCanceled:        "Canceled",
}

// Successor returns the next state on the forward path, if any.
func Successor(state enums.BookingState) (enums.BookingState, bool) {
	next, ok := successor[state]
	return next, ok
}

// CheckTransition reports whether from -> to is legal without touching any
// state. Terminal sources are rejected before adjacency is considered.
func CheckTransition(from, to enums.BookingState) error {
	if !to.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown booking state %q", to)
	}
	if from.IsTerminal() {
		return pkgerrors.Newf(pkgerrors.CodeTerminalState, "booking is %s", from).
			WithDetails(map[string]any{"current_state": from, "target_state": to})
	}
	if to == enums.BookingStateCanceled {
		return nil
	}
	if next, ok := successor[from]; !ok || next != to {
		return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "booking cannot move from %s to %s", from, to).
			WithDetails(map[string]any{"current_state": from, "target_state": to})
	}
	return nil
}

// AcceptsPayouts reports whether a payout may be requested against a
// booking in state. Canceled bookings only accept payouts when they already
// had some, which is how refund-style reversals are modeled.
func AcceptsPayouts(state enums.BookingState, hasPriorPayouts bool) bool {
	switch state {
	case enums.BookingStateReadyForPayment, enums.BookingStateActive:
		return true
	case enums.BookingStateCanceled:
		return hasPriorPayouts
	default:
		return false
	}
}
