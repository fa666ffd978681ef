package enums

import "fmt"

// VerificationState is the vendor-level review outcome backing the payout gate.
type VerificationState string

const (
	VerificationStatePending        VerificationState = "PENDING"
	VerificationStateApproved       VerificationState = "APPROVED"
	VerificationStateNeedsChanges   VerificationState = "NEEDS_CHANGES"
	VerificationStateDisabledPayout VerificationState = "DISABLED_PAYOUT"
)

var validVerificationStates = []VerificationState{
	VerificationStatePending,
	VerificationStateApproved,
	VerificationStateNeedsChanges,
	VerificationStateDisabledPayout,
}

func (s VerificationState) IsValid() bool {
	for _, candidate := range validVerificationStates {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseVerificationState(value string) (VerificationState, error) {
	for _, candidate := range validVerificationStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid verification state %q", value)
}
