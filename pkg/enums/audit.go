package enums

import "fmt"

type AuditResourceType string

const (
	AuditResourceVendor  AuditResourceType = "VENDOR"
	AuditResourceBooking AuditResourceType = "BOOKING"
	AuditResourcePayment AuditResourceType = "PAYMENT"
	AuditResourcePayout  AuditResourceType = "PAYOUT"
	AuditResourceDispute AuditResourceType = "DISPUTE"
)

var validAuditResourceTypes = []AuditResourceType{
	AuditResourceVendor,
	AuditResourceBooking,
	AuditResourcePayment,
	AuditResourcePayout,
	AuditResourceDispute,
}

func (t AuditResourceType) IsValid() bool {
	for _, candidate := range validAuditResourceTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseAuditResourceType(value string) (AuditResourceType, error) {
	for _, candidate := range validAuditResourceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit resource type %q", value)
}

// AuditAction names what an operator (or the transfer worker) did.
type AuditAction string

const (
	AuditActionBookingCreated       AuditAction = "BOOKING_CREATED"
	AuditActionBookingTransitioned  AuditAction = "BOOKING_TRANSITIONED"
	AuditActionBookingCanceled      AuditAction = "BOOKING_CANCELED"
	AuditActionPayoutRequested      AuditAction = "PAYOUT_REQUESTED"
	AuditActionPayoutApproved       AuditAction = "PAYOUT_APPROVED"
	AuditActionPayoutHeld           AuditAction = "PAYOUT_HELD"
	AuditActionPayoutReversed       AuditAction = "PAYOUT_REVERSED"
	AuditActionPayoutPaid           AuditAction = "PAYOUT_PAID"
	AuditActionPayoutTransferFailed AuditAction = "PAYOUT_TRANSFER_FAILED"
	AuditActionDisputeOpened        AuditAction = "DISPUTE_OPENED"
	AuditActionVendorRegistered     AuditAction = "VENDOR_REGISTERED"
	AuditActionVendorApproved       AuditAction = "VENDOR_APPROVED"
	AuditActionVendorNeedsChanges   AuditAction = "VENDOR_NEEDS_CHANGES"
	AuditActionVendorPayoutDisabled AuditAction = "VENDOR_PAYOUT_DISABLED"
	AuditActionPaymentRegistered    AuditAction = "PAYMENT_REGISTERED"
	AuditActionPaymentCaptured      AuditAction = "PAYMENT_CAPTURED"
	AuditActionPaymentCaptureFailed AuditAction = "PAYMENT_CAPTURE_FAILED"
)

// DisputeStatusAction yields DISPUTE_<STATUS>.
func DisputeStatusAction(status DisputeStatus) AuditAction {
	return AuditAction("DISPUTE_" + string(status))
}
