package enums

type OutboxEventType string

const (
	EventBookingCreated       OutboxEventType = "booking.created"
	EventBookingTransitioned  OutboxEventType = "booking.transitioned"
	EventBookingCanceled      OutboxEventType = "booking.canceled"
	EventPayoutRequested      OutboxEventType = "payout.requested"
	EventPayoutStatusChanged  OutboxEventType = "payout.status_changed"
	EventPayoutTransferFailed OutboxEventType = "payout.transfer_failed"
	EventDisputeOpened        OutboxEventType = "dispute.opened"
	EventDisputeStatusChanged OutboxEventType = "dispute.status_changed"
	EventVendorGateChanged    OutboxEventType = "vendor.payout_gate_changed"
	EventPaymentRegistered    OutboxEventType = "payment.registered"
	EventPaymentStatusChanged OutboxEventType = "payment.status_changed"
)

type OutboxAggregateType string

const (
	AggregateBooking OutboxAggregateType = "booking"
	AggregatePayout  OutboxAggregateType = "payout"
	AggregateDispute OutboxAggregateType = "dispute"
	AggregateVendor  OutboxAggregateType = "vendor"
	AggregatePayment OutboxAggregateType = "payment"
)
