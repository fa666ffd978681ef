package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/api/responses"
	"github.com/eventloom/finance-backend/api/validators"
	"github.com/eventloom/finance-backend/internal/disputes"
	"github.com/eventloom/finance-backend/internal/gateway"
	"github.com/eventloom/finance-backend/pkg/enums"
	"github.com/eventloom/finance-backend/pkg/logger"
)

type openDisputeRequest struct {
	BookingID   uuid.UUID `json:"booking_id" validate:"required"`
	Reason      string    `json:"reason" validate:"required,max=500"`
	Details     *string   `json:"details" validate:"omitempty,max=4000"`
	HoldPayouts *bool     `json:"hold_payouts"`
}

type disputeStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=2000"`
}

// OpenDispute freezes the booking's payouts unless hold_payouts is false.
func OpenDispute(svc DisputeCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body openDisputeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var details *string
		if body.Details != nil {
			cleaned := validators.SanitizeString(*body.Details, 4000)
			details = &cleaned
		}

		opened, err := svc.OpenDispute(r.Context(), gateway.OpenDisputeInput{
			OpenInput: disputes.OpenInput{
				BookingID:  body.BookingID,
				Reason:     validators.SanitizeString(body.Reason, 500),
				Details:    details,
				OperatorID: operatorID,
			},
			SkipHolds: body.HoldPayouts != nil && !*body.HoldPayouts,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, disputes.OpenedDTO{
			Dispute: disputes.FromModel(opened.Dispute),
			Holds:   opened.Holds,
		})
	}
}

func ListDisputes(svc DisputeCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enumQuery(r, "status", enums.ParseDisputeStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := validators.ParseQueryUUID(r, "booking_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		openedBy, err := validators.ParseQueryUUID(r, "opened_by")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListDisputes(r.Context(), disputes.ListParams{
			Filter: disputes.ListFilter{Status: status, BookingID: bookingID, OpenedBy: openedBy},
			Params: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, disputes.FromList(result))
	}
}

func GetDispute(svc DisputeCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "disputeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispute, err := svc.GetDispute(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, disputes.FromModel(dispute))
	}
}

func UpdateDisputeStatus(svc DisputeCommands, logg *logger.Logger) http.HandlerFunc {
	return disputeStatusHandler(svc.UpdateDisputeStatus, logg)
}

func ResolveDispute(svc DisputeCommands, logg *logger.Logger) http.HandlerFunc {
	return disputeStatusHandler(svc.ResolveDispute, logg)
}

type disputeStatusChange func(ctx context.Context, input disputes.StatusInput) (*disputes.StatusChange, error)

func disputeStatusHandler(apply disputeStatusChange, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "disputeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body disputeStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enumField(body.Status, "status", enums.ParseDisputeStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		change, err := apply(r.Context(), disputes.StatusInput{
			DisputeID:  id,
			Status:     status,
			Note:       validators.SanitizeString(body.Note, 2000),
			OperatorID: operatorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, statusChangeDTO{
			Dispute: disputes.FromModel(change.Dispute),
			From:    change.From,
		})
	}
}

type statusChangeDTO struct {
	Dispute disputes.DisputeDTO `json:"dispute"`
	From    enums.DisputeStatus `json:"from"`
}
