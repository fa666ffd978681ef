package controllers

import (
	"net/http"
	"strings"

	"github.com/eventloom/finance-backend/api/responses"
	"github.com/eventloom/finance-backend/api/validators"
	"github.com/eventloom/finance-backend/internal/payments"
	"github.com/eventloom/finance-backend/pkg/logger"
)

type registerPaymentRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
	ProviderRef string `json:"provider_ref" validate:"required,max=255"`
}

func RegisterPayment(svc PaymentCommands, logg *logger.Logger) http.HandlerFunc {
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
		var body registerPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.RegisterPayment(r.Context(), payments.RegisterInput{
			BookingID:   bookingID,
			AmountCents: body.AmountCents,
			ProviderRef: strings.TrimSpace(body.ProviderRef),
			OperatorID:  operatorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payments.FromModel(payment))
	}
}

// CapturePayment reports a provider decline as a normal result with
// captured=false.
func CapturePayment(svc PaymentCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "paymentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CapturePayment(r.Context(), payments.CaptureInput{PaymentID: id, OperatorID: operatorID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payments.FromCapture(result))
	}
}
