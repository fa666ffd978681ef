package ledger

import (
	"sort"

	"github.com/google/uuid"

	"github.com/eventloom/finance-backend/pkg/db/models"
	"github.com/eventloom/finance-backend/pkg/enums"
)

// Totals are the net fund positions of one booking.
//
// A payout's position is the category of its latest fund entry: a payout
// whose last entry is HELD counts toward HeldCents, RELEASED toward
// ReleasedCents. A REVERSAL entry nets out the held amount it corrects, so
// reversed payouts only appear in ReversedCents.
type Totals struct {
	PaymentCents  int64 `json:"payment_cents"`
	HeldCents     int64 `json:"held_funds_cents"`
	ReleasedCents int64 `json:"released_funds_cents"`
	ReversedCents int64 `json:"reversed_funds_cents"`
}

// Position is where the ledger currently places one payout's funds.
type Position struct {
	Category    enums.LedgerCategory
	AmountCents int64
}

// Positions replays entries payout by payout and returns the latest
// position for every payout that has at least one entry.
func Positions(entries []models.LedgerEntry) map[uuid.UUID]Position {
	byPayout := map[uuid.UUID][]models.LedgerEntry{}
	for _, e := range entries {
		if e.PayoutID == nil {
			continue
		}
		byPayout[*e.PayoutID] = append(byPayout[*e.PayoutID], e)
	}

	positions := make(map[uuid.UUID]Position, len(byPayout))
	for id, list := range byPayout {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Seq < list[j].Seq })
		last := list[len(list)-1]
		positions[id] = Position{Category: last.Category, AmountCents: last.AmountCents}
	}
	return positions
}

// Summarize folds a booking's entries into net totals.
func Summarize(entries []models.LedgerEntry) Totals {
	var totals Totals
	for _, e := range entries {
		switch e.Category {
		case enums.LedgerCategoryPayment:
			totals.PaymentCents += e.AmountCents
		case enums.LedgerCategoryReversal:
			totals.ReversedCents += e.AmountCents
		}
	}
	for _, pos := range Positions(entries) {
		switch pos.Category {
		case enums.LedgerCategoryHeld:
			totals.HeldCents += pos.AmountCents
		case enums.LedgerCategoryReleased:
			totals.ReleasedCents += pos.AmountCents
		}
	}
	return totals
}
