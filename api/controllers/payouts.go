package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/eventloom/finance-backend/api/responses"
	"github.com/eventloom/finance-backend/api/validators"
	"github.com/eventloom/finance-backend/internal/payouts"
	"github.com/eventloom/finance-backend/pkg/enums"
	"github.com/eventloom/finance-backend/pkg/logger"
)

const confirmHeader = "X-Confirm-Action"

type requestPayoutRequest struct {
	Type        string `json:"type" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
}

type approvePayoutRequest struct {
	Confirm bool `json:"confirm"`
}

type markPaidRequest struct {
	ProviderRef string `json:"provider_ref" validate:"required,max=255"`
}

type markFailedRequest struct {
	Error   string     `json:"error" validate:"required,max=1000"`
	RetryAt *time.Time `json:"retry_at"`
}

func RequestPayout(svc PayoutCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := validators.ParsePathUUID(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body requestPayoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payoutType, err := enumField(body.Type, "type", enums.ParsePayoutType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RequestPayout(r.Context(), payouts.RequestInput{
			BookingID:   bookingID,
			Type:        payoutType,
			AmountCents: body.AmountCents,
			OperatorID:  operatorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payouts.FromTransition(result))
	}
}

func ListPayouts(svc PayoutCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enumQuery(r, "status", enums.ParsePayoutStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payoutType, err := enumQuery(r, "type", enums.ParsePayoutType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bookingID, err := validators.ParseQueryUUID(r, "booking_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := validators.ParseQueryUUID(r, "vendor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListPayouts(r.Context(), payouts.ListParams{
			Filter: payouts.ListFilter{Status: status, Type: payoutType, BookingID: bookingID, VendorID: vendorID},
			Params: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts.FromList(result))
	}
}

func GetPayout(svc PayoutCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payout, err := svc.GetPayout(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts.FromModel(payout))
	}
}

// ApprovePayout accepts the confirmation either in the body or through the
// X-Confirm-Action header.
func ApprovePayout(svc PayoutCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body approvePayoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirm := body.Confirm || strings.EqualFold(strings.TrimSpace(r.Header.Get(confirmHeader)), "true")

		result, err := svc.ApprovePayout(r.Context(), payouts.ApproveInput{
			PayoutID:   id,
			Confirm:    confirm,
			OperatorID: operatorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts.FromTransition(result))
	}
}

func HoldPayout(svc PayoutCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body reasonRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.HoldPayout(r.Context(), payouts.HoldInput{
			PayoutID:   id,
			Reason:     validators.SanitizeString(body.Reason, 500),
			OperatorID: operatorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts.FromTransition(result))
	}
}

func ReversePayout(svc PayoutCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body reasonRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ReversePayout(r.Context(), payouts.ReverseInput{
			PayoutID:   id,
			Reason:     validators.SanitizeString(body.Reason, 500),
			OperatorID: operatorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts.FromTransition(result))
	}
}

// MarkPayoutPaid is the provider's success callback.
func MarkPayoutPaid(svc PayoutCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body markPaidRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.MarkPayoutPaid(r.Context(), payouts.MarkPaidInput{
			PayoutID:    id,
			ProviderRef: strings.TrimSpace(body.ProviderRef),
			OperatorID:  operatorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts.FromTransition(result))
	}
}

// MarkPayoutFailed is the provider's failure callback.
func MarkPayoutFailed(svc PayoutCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "payoutId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body markFailedRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.MarkPayoutFailed(r.Context(), payouts.MarkFailedInput{
			PayoutID:   id,
			Error:      validators.SanitizeString(body.Error, 1000),
			RetryAt:    body.RetryAt,
			OperatorID: operatorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payouts.FromTransition(result))
	}
}
