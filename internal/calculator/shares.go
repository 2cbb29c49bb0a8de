package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Share is one member's part of an entry.
type Share struct {
	Name   string
	Amount decimal.Decimal
}

// RoundCents rounds d half away from zero to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// AggregateShares computes the total amount of an entry and each member's
// share of it.
//
// Algorithm:
//   - total = sum of item amounts
//   - each (member, weight) of an item contributes round(amount × weight, 2)
//   - contributions are merged by resolved display name, in order of first
//     appearance, and each merged sum is rounded to cents again
//
// Payments stored without items bypass the items: the whole amount goes to
// the entry's profiteer.
func AggregateShares(entry models.Entry, names models.NameLookup) (decimal.Decimal, []Share) {
	if entry.HasItemlessPayment() {
		if entry.Profiteer == "" {
			return entry.Amount, []Share{}
		}
		return entry.Amount, []Share{{
			Name:   names.Name(entry.Profiteer),
			Amount: RoundCents(entry.Amount),
		}}
	}

	total := decimal.Zero
	shares := []Share{}
	index := make(map[string]int)

	for _, item := range entry.Items {
		total = total.Add(item.Amount)

		for _, w := range item.Shares {
			name := names.Name(w.MemberID)
			contribution := RoundCents(item.Amount.Mul(w.Weight))

			if i, ok := index[name]; ok {
				shares[i].Amount = shares[i].Amount.Add(contribution)
				continue
			}
			index[name] = len(shares)
			shares = append(shares, Share{Name: name, Amount: contribution})
		}
	}

	for i := range shares {
		shares[i].Amount = RoundCents(shares[i].Amount)
	}

	return total, shares
}
