package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

var allStates = []enums.BookingState{
	enums.BookingStateCreated,
	enums.BookingStateVendorApproved,
	enums.BookingStateCountered,
	enums.BookingStateReadyForPayment,
	enums.BookingStateActive,
	enums.BookingStateCompleted,
	enums.BookingStateCanceled,
}

func TestCheckTransition_Closure(t *testing.T) {
	for _, from := range allStates {
		for _, to := range allStates {
			err := CheckTransition(from, to)
			next, hasNext := successor[from]

			switch {
			case from.IsTerminal():
				assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTerminalState), "%s -> %s", from, to)
			case to == enums.BookingStateCanceled:
				assert.NoError(t, err, "%s -> %s", from, to)
			case hasNext && next == to:
				assert.NoError(t, err, "%s -> %s", from, to)
			default:
				assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition), "%s -> %s", from, to)
			}
		}
	}
}

func TestCheckTransition_NoSkipping(t *testing.T) {
	err := CheckTransition(enums.BookingStateCreated, enums.BookingStateReadyForPayment)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
}

func TestCheckTransition_UnknownTarget(t *testing.T) {
	err := CheckTransition(enums.BookingStateCreated, "ARCHIVED")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAcceptsPayouts(t *testing.T) {
	assert.False(t, AcceptsPayouts(enums.BookingStateCountered, false))
	assert.True(t, AcceptsPayouts(enums.BookingStateReadyForPayment, false))
	assert.True(t, AcceptsPayouts(enums.BookingStateActive, false))
	assert.False(t, AcceptsPayouts(enums.BookingStateCompleted, true))
	assert.False(t, AcceptsPayouts(enums.BookingStateCanceled, false))
	assert.True(t, AcceptsPayouts(enums.BookingStateCanceled, true))
}
