package disputes

import (
	"github.com/eventloom/finance-backend/pkg/enums"
	pkgerrors "github.com/eventloom/finance-backend/pkg/errors"
)

var allowed = map[enums.DisputeStatus][]enums.DisputeStatus{
	enums.DisputeStatusOpen:        {enums.DisputeStatusUnderReview, enums.DisputeStatusRejected},
	enums.DisputeStatusUnderReview: {enums.DisputeStatusResolved, enums.DisputeStatusRejected},
}

func CheckTransition(from, to enums.DisputeStatus) error {
	if !to.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown dispute status %q", to)
	}
	if from.IsTerminal() {
		return pkgerrors.Newf(pkgerrors.CodeTerminalState, "dispute is %s", from)
	}
	for _, candidate := range allowed[from] {
		if candidate == to {
			return nil
		}
	}
	return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "dispute cannot move from %s to %s", from, to).
		WithDetails(map[string]any{"current_status": from, "target_status": to})
}
