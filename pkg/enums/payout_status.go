package enums

import "fmt"

// PayoutStatus is the lifecycle position of a single payout.
type PayoutStatus string

const (
	PayoutStatusRequested            PayoutStatus = "REQUESTED"
	PayoutStatusPendingAdminApproval PayoutStatus = "PENDING_ADMIN_APPROVAL"
	PayoutStatusHeld                 PayoutStatus = "HELD"
	PayoutStatusApproved             PayoutStatus = "APPROVED"
	PayoutStatusPaid                 PayoutStatus = "PAID"
	PayoutStatusReversed             PayoutStatus = "REVERSED"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusRequested,
	PayoutStatusPendingAdminApproval,
	PayoutStatusHeld,
	PayoutStatusApproved,
	PayoutStatusPaid,
	PayoutStatusReversed,
}

// AllPayoutStatuses returns every status in declaration order.
func AllPayoutStatuses() []PayoutStatus {
	out := make([]PayoutStatus, len(validPayoutStatuses))
	copy(out, validPayoutStatuses)
	return out
}

func (s PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusPaid || s == PayoutStatusReversed
}

// CountsAgainstTotal reports whether the payout amount is committed against
// the booking total (approved, paid or frozen).
func (s PayoutStatus) CountsAgainstTotal() bool {
	return s == PayoutStatusApproved || s == PayoutStatusPaid || s == PayoutStatusHeld
}

func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}

// PayoutType distinguishes the upfront reservation from the final balance.
type PayoutType string

const (
	PayoutTypeReservation PayoutType = "RESERVATION"
	PayoutTypeFinal       PayoutType = "FINAL"
)

func (t PayoutType) IsValid() bool {
	return t == PayoutTypeReservation || t == PayoutTypeFinal
}

func ParsePayoutType(value string) (PayoutType, error) {
	t := PayoutType(value)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid payout type %q", value)
	}
	return t, nil
}
