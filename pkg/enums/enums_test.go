package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBookingState(t *testing.T) {
	s, err := ParseBookingState("READY_FOR_PAYMENT")
	require.NoError(t, err)
	assert.Equal(t, BookingStateReadyForPayment, s)

	_, err = ParseBookingState("ready_for_payment")
	assert.Error(t, err)
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, BookingStateCompleted.IsTerminal())
	assert.True(t, BookingStateCanceled.IsTerminal())
	assert.False(t, BookingStateActive.IsTerminal())

	assert.True(t, PayoutStatusPaid.IsTerminal())
	assert.True(t, PayoutStatusReversed.IsTerminal())
	assert.False(t, PayoutStatusHeld.IsTerminal())

	assert.True(t, DisputeStatusRejected.IsTerminal())
	assert.False(t, DisputeStatusUnderReview.IsTerminal())
}

func TestPayoutStatusCountsAgainstTotal(t *testing.T) {
	counted := map[PayoutStatus]bool{
		PayoutStatusApproved: true,
		PayoutStatusPaid:     true,
		PayoutStatusHeld:     true,
	}
	for _, s := range AllPayoutStatuses() {
		assert.Equal(t, counted[s], s.CountsAgainstTotal(), s)
	}
}

func TestDisputeStatusAction(t *testing.T) {
	assert.Equal(t, AuditAction("DISPUTE_RESOLVED"), DisputeStatusAction(DisputeStatusResolved))
}

func TestParseMisc(t *testing.T) {
	_, err := ParsePayoutType("DEPOSIT")
	assert.Error(t, err)
	c, err := ParseLedgerCategory("REVERSAL")
	require.NoError(t, err)
	assert.Equal(t, LedgerCategoryReversal, c)
	v, err := ParseVerificationState("DISABLED_PAYOUT")
	require.NoError(t, err)
	assert.Equal(t, VerificationStateDisabledPayout, v)
	assert.True(t, PaymentStatusProcessing.IsCapturable())
	assert.False(t, PaymentStatusSucceeded.IsCapturable())
}
