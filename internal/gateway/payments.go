package gateway

import (
	"context"

	"github.com/eventloom/finance-backend/internal/audit"
	"github.com/eventloom/finance-backend/internal/payments"
	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
)

func (g *Gateway) RegisterPayment(ctx context.Context, input payments.RegisterInput) (*models.Payment, error) {
	cmd := command{name: "register_payment", resource: resourceBooking, resourceID: input.BookingID, operatorID: input.OperatorID}
	return execute(ctx, g, cmd, func(ctx context.Context) (*models.Payment, error) {
		return g.payments.Register(ctx, input)
	}, func(p *models.Payment) []audit.Entry {
		return []audit.Entry{{
			ActorID:      input.OperatorID,
			Action:       enums.AuditActionPaymentRegistered,
			ResourceType: enums.AuditResourcePayment,
			ResourceID:   p.ID,
			OccurredAt:   p.CreatedAt,
			Metadata: map[string]any{
				"booking_id":   p.BookingID,
				"amount_cents": p.AmountCents,
				"provider_ref": p.ProviderRef,
			},
		}}
	})
}

func (g *Gateway) CapturePayment(ctx context.Context, input payments.CaptureInput) (*payments.CaptureResult, error) {
	cmd := command{name: "capture_payment", resource: resourcePayment, resourceID: input.PaymentID, operatorID: input.OperatorID}
	return execute(ctx, g, cmd, func(ctx context.Context) (*payments.CaptureResult, error) {
		return g.payments.Capture(ctx, input)
	}, func(r *payments.CaptureResult) []audit.Entry {
		if !r.Changed {
			return nil
		}
		action := enums.AuditActionPaymentCaptured
		meta := map[string]any{
			"booking_id": r.Payment.BookingID,
			"from":       r.From,
			"to":         r.Payment.Status,
		}
		if !r.Captured {
			action = enums.AuditActionPaymentCaptureFailed
			if r.Payment.FailureReason != nil {
				meta["failure_reason"] = *r.Payment.FailureReason
			}
		}
		return []audit.Entry{{
			ActorID:      input.OperatorID,
			Action:       action,
			ResourceType: enums.AuditResourcePayment,
			ResourceID:   r.Payment.ID,
			OccurredAt:   r.Payment.UpdatedAt,
			Metadata:     meta,
		}}
	})
}
