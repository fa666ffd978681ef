package controllers

import (
	"context"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/internal/audit"
	"github.com/eventloom/finance-backend/internal/bookings"
	"github.com/eventloom/finance-backend/internal/disputes"
	"github.com/eventloom/finance-backend/internal/finance"
	"github.com/eventloom/finance-backend/internal/gateway"
	"github.com/eventloom/finance-backend/internal/payments"
	"github.com/eventloom/finance-backend/internal/payouts"
	"github.com/eventloom/finance-backend/internal/vendors"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
)

// The handler dependencies below are the slices of the admin gateway each
// resource needs. *gateway.Gateway satisfies all of them.

type BookingCommands interface {
	CreateBooking(ctx context.Context, input bookings.CreateInput) (*models.Booking, error)
	TransitionBooking(ctx context.Context, input bookings.TransitionInput) (*bookings.TransitionResult, error)
	CancelBooking(ctx context.Context, input bookings.CancelInput) (*bookings.TransitionResult, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListBookings(ctx context.Context, params bookings.ListParams) (*bookings.ListResult, error)
	BookingFinanceSummary(ctx context.Context, bookingID, operatorID uuid.UUID) (*finance.BookingSummary, error)
	HoldPayoutsForBooking(ctx context.Context, bookingID uuid.UUID, reason string, operatorID uuid.UUID) (*disputes.HoldReport, error)
}

type PayoutCommands interface {
	RequestPayout(ctx context.Context, input payouts.RequestInput) (*payouts.Transition, error)
	ApprovePayout(ctx context.Context, input payouts.ApproveInput) (*payouts.Transition, error)
	HoldPayout(ctx context.Context, input payouts.HoldInput) (*payouts.Transition, error)
	ReversePayout(ctx context.Context, input payouts.ReverseInput) (*payouts.Transition, error)
	MarkPayoutPaid(ctx context.Context, input payouts.MarkPaidInput) (*payouts.Transition, error)
	MarkPayoutFailed(ctx context.Context, input payouts.MarkFailedInput) (*payouts.Transition, error)
	GetPayout(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	ListPayouts(ctx context.Context, params payouts.ListParams) (*payouts.ListResult, error)
}

type PaymentCommands interface {
	RegisterPayment(ctx context.Context, input payments.RegisterInput) (*models.Payment, error)
	CapturePayment(ctx context.Context, input payments.CaptureInput) (*payments.CaptureResult, error)
}

type DisputeCommands interface {
	OpenDispute(ctx context.Context, input gateway.OpenDisputeInput) (*gateway.DisputeOpened, error)
	UpdateDisputeStatus(ctx context.Context, input disputes.StatusInput) (*disputes.StatusChange, error)
	ResolveDispute(ctx context.Context, input disputes.StatusInput) (*disputes.StatusChange, error)
	GetDispute(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	ListDisputes(ctx context.Context, params disputes.ListParams) (*disputes.ListResult, error)
}

type VendorCommands interface {
	RegisterVendor(ctx context.Context, input vendors.RegisterInput) (*vendors.GateChange, error)
	ApproveVendor(ctx context.Context, input vendors.ReviewInput) (*vendors.GateChange, error)
	VendorNeedsChanges(ctx context.Context, input vendors.ReviewInput) (*vendors.GateChange, error)
	DisableVendorPayout(ctx context.Context, input vendors.ReviewInput) (*vendors.GateChange, error)
	GetVendorGate(ctx context.Context, vendorID uuid.UUID) (*models.VendorPayoutGate, error)
	ListVendorGates(ctx context.Context, state *enums.VerificationState, limit int) ([]models.VendorPayoutGate, error)
}

type AuditReader interface {
	ListAuditLogs(ctx context.Context, params audit.ListParams) (*audit.ListResult, error)
}

type FinanceReader interface {
	FinanceOverview(ctx context.Context) (*finance.Overview, error)
}

var (
	_ BookingCommands = (*gateway.Gateway)(nil)
	_ PayoutCommands  = (*gateway.Gateway)(nil)
	_ PaymentCommands = (*gateway.Gateway)(nil)
	_ DisputeCommands = (*gateway.Gateway)(nil)
	_ VendorCommands  = (*gateway.Gateway)(nil)
	_ AuditReader     = (*gateway.Gateway)(nil)
	_ FinanceReader   = (*gateway.Gateway)(nil)
)
