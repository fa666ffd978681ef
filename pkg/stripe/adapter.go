package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/transfer"
)

// TransferRequest moves an approved payout to the vendor's connected account.
type TransferRequest struct {
	PayoutID    uuid.UUID
	BookingID   uuid.UUID
	AmountCents int64
	Destination string
}

// Adapter is the payment-provider boundary. It captures organizer payments
// and pushes vendor transfers; it never reads or writes our database.
type Adapter struct {
	client *Client
}

func NewAdapter(client *Client) (*Adapter, error) {
	if client == nil {
		return nil, errors.New("stripe client required")
	}
	return &Adapter{client: client}, nil
}

// Capture captures a confirmed PaymentIntent.
func (a *Adapter) Capture(ctx context.Context, paymentIntentRef string) error {
	ref := strings.TrimSpace(paymentIntentRef)
	if ref == "" {
		return errors.New("payment intent reference required")
	}
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	intent, err := paymentintent.Capture(ref, params)
	if err != nil {
		return fmt.Errorf("capture payment intent: %w", describe(err))
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("payment intent %s ended in status %s", ref, intent.Status)
	}
	return nil
}

// Transfer creates a Stripe Transfer keyed by the payout id, so a retried
// attempt after a timeout cannot move the money twice. It returns the
// transfer id used as the provider reference.
func (a *Adapter) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if req.PayoutID == uuid.Nil {
		return "", errors.New("payout id required")
	}
	if req.AmountCents <= 0 {
		return "", errors.New("transfer amount must be positive")
	}
	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		return "", errors.New("vendor has no connected account")
	}

	params := &stripe.TransferParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(a.client.Currency()),
		Destination:   stripe.String(destination),
		TransferGroup: stripe.String(req.BookingID.String()),
	}
	params.Context = ctx
	params.SetIdempotencyKey("payout-" + req.PayoutID.String())
	params.AddMetadata("payout_id", req.PayoutID.String())
	params.AddMetadata("booking_id", req.BookingID.String())

	tr, err := transfer.New(params)
	if err != nil {
		return "", fmt.Errorf("create transfer: %w", describe(err))
	}
	return tr.ID, nil
}

func describe(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return fmt.Errorf("%s (%s): %w", stripeErr.Msg, stripeErr.Code, err)
	}
	return err
}
