package payments

import (
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

var allowed = map[enums.PaymentStatus][]enums.PaymentStatus{
	enums.PaymentStatusRequiresPaymentMethod: {enums.PaymentStatusRequiresConfirmation, enums.PaymentStatusCanceled},
	enums.PaymentStatusRequiresConfirmation:  {enums.PaymentStatusProcessing, enums.PaymentStatusSucceeded, enums.PaymentStatusCanceled},
	enums.PaymentStatusProcessing:            {enums.PaymentStatusSucceeded, enums.PaymentStatusCanceled},
	enums.PaymentStatusSucceeded:             {enums.PaymentStatusCorrected},
}

// CheckTransition rejects payment status changes the provider lifecycle
// does not allow.
func CheckTransition(from, to enums.PaymentStatus) error {
	for _, next := range allowed[from] {
		if next == to {
			return nil
		}
	}
	if len(allowed[from]) == 0 {
		return pkgerrors.Newf(pkgerrors.CodeTerminalState, "payment is %s", from)
	}
	return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "payment cannot move from %s to %s", from, to)
}
