package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/api/responses"
	"github.com/eventloom/finance-backend/api/validators"
	"github.com/eventloom/finance-backend/internal/bookings"
	"github.com/eventloom/finance-backend/internal/disputes"
	"github.com/eventloom/finance-backend/internal/finance"
	"github.com/eventloom/finance-backend/pkg/enums"
	"github.com/eventloom/finance-backend/pkg/logger"
)

type createBookingRequest struct {
	OrganizerID uuid.UUID `json:"organizer_id" validate:"required"`
	VendorID    uuid.UUID `json:"vendor_id" validate:"required"`
	EventRef    string    `json:"event_ref" validate:"required,max=200"`
	TotalCents  int64     `json:"total_cents" validate:"gt=0"`
}

type transitionBookingRequest struct {
	Target string `json:"target" validate:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func CreateBooking(svc BookingCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createBookingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.CreateBooking(r.Context(), bookings.CreateInput{
			OrganizerID: body.OrganizerID,
			VendorID:    body.VendorID,
			EventRef:    validators.SanitizeString(body.EventRef, 200),
			TotalCents:  body.TotalCents,
			OperatorID:  operatorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bookings.FromModel(booking))
	}
}

func ListBookings(svc BookingCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := enumQuery(r, "state", enums.ParseBookingState)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := validators.ParseQueryUUID(r, "vendor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		organizerID, err := validators.ParseQueryUUID(r, "organizer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListBookings(r.Context(), bookings.ListParams{
			Filter: bookings.ListFilter{State: state, VendorID: vendorID, OrganizerID: organizerID},
			Params: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bookings.FromList(result))
	}
}

func GetBooking(svc BookingCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		booking, err := svc.GetBooking(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bookings.FromModel(booking))
	}
}

func TransitionBooking(svc BookingCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body transitionBookingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enumField(body.Target, "target", enums.ParseBookingState)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.TransitionBooking(r.Context(), bookings.TransitionInput{
			BookingID:  id,
			Target:     target,
			Reason:     validators.SanitizeString(body.Reason, 500),
			OperatorID: operatorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bookings.FromTransition(result))
	}
}

func CancelBooking(svc BookingCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body reasonRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CancelBooking(r.Context(), bookings.CancelInput{
			BookingID:  id,
			Reason:     validators.SanitizeString(body.Reason, 500),
			OperatorID: operatorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bookings.FromTransition(result))
	}
}

// BookingFinance returns the reconciled money view of one booking.
func BookingFinance(svc BookingCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.BookingFinanceSummary(r.Context(), id, operatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, finance.FromSummary(summary))
	}
}

// HoldBookingPayouts freezes every open payout of a booking.
func HoldBookingPayouts(svc BookingCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body reasonRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.HoldPayoutsForBooking(r.Context(), id, validators.SanitizeString(body.Reason, 500), operatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, holdReport(report))
	}
}

func holdReport(report *disputes.HoldReport) *disputes.HoldReport {
	if report == nil {
		return &disputes.HoldReport{Held: []disputes.HeldPayout{}, Skipped: []disputes.SkippedPayout{}}
	}
	return report
}
