// Package presenter shapes ledger snapshots into the JSON documents the
// operations print. Member IDs are replaced by display names; unknown IDs
// are printed as-is so that no record is ever dropped.
package presenter

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

var cent = decimal.New(1, -2)

// MemberBalance is the presented balance of one member.
type MemberBalance struct {
	Name      string  `json:"name"`
	Balance   float64 `json:"balance"`
	TotalPaid float64 `json:"total_paid"`
	TotalOwed float64 `json:"total_owed"`
}

// Payment is a presented suggested transfer.
type Payment struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// Balances is the presented balance sheet of a group.
type Balances struct {
	MemberBalances    []MemberBalance
	SuggestedPayments []Payment
}

// PresentBalances relabels balance records and suggested transfers with
// member names. Both keep the order they were supplied in.
func PresentBalances(balances []models.BalanceRecord, transfers []models.SuggestedTransfer, names models.NameLookup) Balances {
	out := Balances{
		MemberBalances:    make([]MemberBalance, 0, len(balances)),
		SuggestedPayments: make([]Payment, 0, len(transfers)),
	}

	for _, b := range balances {
		if b.Paid.Sub(b.Owed).Sub(b.Net).Abs().GreaterThan(cent) {
			slog.Warn("Balance record does not add up",
				"member_id", b.MemberID,
				"paid", b.Paid.String(),
				"owed", b.Owed.String(),
				"net", b.Net.String(),
			)
		}
		out.MemberBalances = append(out.MemberBalances, MemberBalance{
			Name:      names.Name(b.MemberID),
			Balance:   b.Net.InexactFloat64(),
			TotalPaid: b.Paid.InexactFloat64(),
			TotalOwed: b.Owed.InexactFloat64(),
		})
	}

	for _, t := range transfers {
		out.SuggestedPayments = append(out.SuggestedPayments, Payment{
			From:   names.Name(t.From),
			To:     names.Name(t.To),
			Amount: t.Amount.InexactFloat64(),
		})
	}

	return out
}
