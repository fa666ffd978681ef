package finance

import (
	"github.com/eventloom/finance-backend/internal/audit"
	"github.com/eventloom/finance-backend/internal/bookings"
	"github.com/eventloom/finance-backend/internal/ledger"
	"github.com/eventloom/finance-backend/internal/payments"
	"github.com/eventloom/finance-backend/internal/payouts"
)

type BookingSummaryDTO struct {
	Booking            bookings.BookingDTO   `json:"booking"`
	Payment            *payments.PaymentDTO  `json:"payment"`
	Payments           []payments.PaymentDTO `json:"payments"`
	Payouts            []payouts.PayoutDTO   `json:"payouts"`
	Ledger             []ledger.EntryDTO     `json:"ledger"`
	PaymentCents       int64                 `json:"payment_cents"`
	HeldFundsCents     int64                 `json:"held_funds_cents"`
	ReleasedFundsCents int64                 `json:"released_funds_cents"`
	ReversedFundsCents int64                 `json:"reversed_funds_cents"`
	BookingTotalCents  int64                 `json:"booking_total_cents"`
}

type OverviewDTO struct {
	TotalHeldFundsCents int64            `json:"total_held_funds_cents"`
	TotalPaidOutCents   int64            `json:"total_paid_out_cents"`
	PendingPayoutsCount int64            `json:"pending_payouts_count"`
	ActiveBookingsCount int64            `json:"active_bookings_count"`
	OpenDisputesCount   int64            `json:"open_disputes_count"`
	RecentActivity      []audit.EntryDTO `json:"recent_activity"`
}

func FromSummary(s *BookingSummary) BookingSummaryDTO {
	out := BookingSummaryDTO{
		Booking:            bookings.FromModel(s.Booking),
		Payments:           make([]payments.PaymentDTO, 0, len(s.Payments)),
		Payouts:            payouts.FromModels(s.Payouts),
		Ledger:             ledger.EntriesFromModels(s.Ledger),
		PaymentCents:       s.Totals.PaymentCents,
		HeldFundsCents:     s.Totals.HeldCents,
		ReleasedFundsCents: s.Totals.ReleasedCents,
		ReversedFundsCents: s.Totals.ReversedCents,
		BookingTotalCents:  s.Booking.TotalCents,
	}
	for i := range s.Payments {
		out.Payments = append(out.Payments, payments.FromModel(&s.Payments[i]))
	}
	if s.Payment != nil {
		p := payments.FromModel(s.Payment)
		out.Payment = &p
	}
	return out
}

func FromOverview(o *Overview) OverviewDTO {
	return OverviewDTO{
		TotalHeldFundsCents: o.TotalHeldFundsCents,
		TotalPaidOutCents:   o.TotalPaidOutCents,
		PendingPayoutsCount: o.PendingPayoutsCount,
		ActiveBookingsCount: o.ActiveBookingsCount,
		OpenDisputesCount:   o.OpenDisputesCount,
		RecentActivity:      audit.FromModels(o.RecentActivity),
	}
}
