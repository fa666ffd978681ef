package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/api/responses"
	"github.com/eventloom/finance-backend/api/validators"
	"github.com/eventloom/finance-backend/internal/vendors"
	"github.com/eventloom/finance-backend/pkg/enums"
	"github.com/eventloom/finance-backend/pkg/logger"
	"github.com/eventloom/finance-backend/pkg/pagination"
)

type registerVendorRequest struct {
	VendorID           uuid.UUID `json:"vendor_id" validate:"required"`
	ProviderAccountRef string    `json:"provider_account_ref" validate:"required,max=255"`
}

type reviewVendorRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

func RegisterVendor(svc VendorCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body registerVendorRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		change, err := svc.RegisterVendor(r.Context(), vendors.RegisterInput{
			VendorID:           body.VendorID,
			ProviderAccountRef: strings.TrimSpace(body.ProviderAccountRef),
			OperatorID:         operatorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if change.Changed {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, vendors.FromChange(change))
	}
}

func ListVendorGates(svc VendorCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := enumQuery(r, "verification_state", enums.ParseVerificationState)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gates, err := svc.ListVendorGates(r.Context(), state, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendors.FromModels(gates))
	}
}

func GetVendorGate(svc VendorCommands, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		gate, err := svc.GetVendorGate(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendors.FromModel(gate))
	}
}

func ApproveVendor(svc VendorCommands, logg *logger.Logger) http.HandlerFunc {
	return vendorReviewHandler(svc.ApproveVendor, logg)
}

// VendorNeedsChanges requires a note describing what the vendor must fix.
func VendorNeedsChanges(svc VendorCommands, logg *logger.Logger) http.HandlerFunc {
	return vendorReviewHandler(svc.VendorNeedsChanges, logg)
}

func DisableVendorPayout(svc VendorCommands, logg *logger.Logger) http.HandlerFunc {
	return vendorReviewHandler(svc.DisableVendorPayout, logg)
}

func vendorReviewHandler(apply func(context.Context, vendors.ReviewInput) (*vendors.GateChange, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operatorID, err := operatorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body reviewVendorRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		change, err := apply(r.Context(), vendors.ReviewInput{
			VendorID:   id,
			Note:       validators.SanitizeString(body.Note, 2000),
			OperatorID: operatorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendors.FromChange(change))
	}
}
