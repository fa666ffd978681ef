package enums

import "fmt"

// BookingState is the lifecycle position of a booking.
type BookingState string

const (
	BookingStateCreated         BookingState = "CREATED"
	BookingStateVendorApproved  BookingState = "VENDOR_APPROVED"
	BookingStateCountered       BookingState = "COUNTERED"
	BookingStateReadyForPayment BookingState = "READY_FOR_PAYMENT"
	BookingStateActive          BookingState = "ACTIVE"
	BookingStateCompleted       BookingState = "COMPLETED"
	BookingStateCanceled        BookingState = "CANCELED"
)

var validBookingStates = []BookingState{
	BookingStateCreated,
	BookingStateVendorApproved,
	BookingStateCountered,
	BookingStateReadyForPayment,
	BookingStateActive,
	BookingStateCompleted,
	BookingStateCanceled,
}

// IsValid reports whether the value matches a known booking state.
func (s BookingState) IsValid() bool {
	for _, candidate := range validBookingStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition may leave the state.
func (s BookingState) IsTerminal() bool {
	return s == BookingStateCompleted || s == BookingStateCanceled
}

// ParseBookingState converts raw input into BookingState.
func ParseBookingState(value string) (BookingState, error) {
	for _, candidate := range validBookingStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking state %q", value)
}
