package enums

import "fmt"

// PaymentStatus tracks the organizer's payment intent at the provider.
type PaymentStatus string

const (
	PaymentStatusRequiresPaymentMethod PaymentStatus = "REQUIRES_PAYMENT_METHOD"
	PaymentStatusRequiresConfirmation  PaymentStatus = "REQUIRES_CONFIRMATION"
	PaymentStatusProcessing            PaymentStatus = "PROCESSING"
	PaymentStatusSucceeded             PaymentStatus = "SUCCEEDED"
	PaymentStatusCanceled              PaymentStatus = "CANCELED"
	PaymentStatusCorrected             PaymentStatus = "CORRECTED"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusRequiresPaymentMethod,
	PaymentStatusRequiresConfirmation,
	PaymentStatusProcessing,
	PaymentStatusSucceeded,
	PaymentStatusCanceled,
	PaymentStatusCorrected,
}

func (s PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsCapturable reports whether the provider may still capture the intent.
func (s PaymentStatus) IsCapturable() bool {
	return s == PaymentStatusRequiresConfirmation || s == PaymentStatusProcessing
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
