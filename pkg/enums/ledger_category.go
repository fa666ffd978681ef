package enums

import "fmt"

// LedgerCategory implies the sign of a ledger entry's magnitude.
type LedgerCategory string

const (
	LedgerCategoryPayment  LedgerCategory = "PAYMENT"
	LedgerCategoryHeld     LedgerCategory = "HELD"
	LedgerCategoryReleased LedgerCategory = "RELEASED"
	LedgerCategoryReversal LedgerCategory = "REVERSAL"
)

var validLedgerCategories = []LedgerCategory{
	LedgerCategoryPayment,
	LedgerCategoryHeld,
	LedgerCategoryReleased,
	LedgerCategoryReversal,
}

func (c LedgerCategory) IsValid() bool {
	for _, candidate := range validLedgerCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseLedgerCategory(value string) (LedgerCategory, error) {
	for _, candidate := range validLedgerCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger category %q", value)
}
