package calculator

import (
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

var cent = decimal.New(1, -2)

// CalculateGroupBalances computes paid, owed and net totals per member.
//
// Algorithm:
//   - every roster member gets a record, in roster order
//   - for each non-deleted entry: the payer paid the entry total, each
//     profiteer owes their rounded share
//   - amounts are converted into the group's default currency
//   - members missing from the roster get records appended in first-seen order
//   - net = paid - owed
func CalculateGroupBalances(roster []models.Member, entries []models.Entry, info *models.GroupInfo) []models.BalanceRecord {
	records := make([]models.BalanceRecord, 0, len(roster))
	index := make(map[string]int, len(roster))

	record := func(id string) *models.BalanceRecord {
		if i, ok := index[id]; ok {
			return &records[i]
		}
		index[id] = len(records)
		records = append(records, models.BalanceRecord{MemberID: id})
		return &records[len(records)-1]
	}

	for _, m := range roster {
		record(m.ID)
	}

	for _, entry := range entries {
		// Skip deleted entries and entries without payer
		if entry.Deleted || entry.PrimaryPayer == "" {
			continue
		}

		rate := info.Rate(entry.Currency)
		if info != nil && entry.Currency != "" && entry.Currency != info.DefaultCurrency {
			if _, ok := info.CurrencyRates[entry.Currency]; !ok {
				slog.Warn("No exchange rate for entry currency, using 1",
					"entry_id", entry.ID,
					"currency", entry.Currency,
				)
			}
		}

		if entry.HasItemlessPayment() {
			amount := RoundCents(entry.Amount.Mul(rate))
			payer := record(entry.PrimaryPayer)
			payer.Paid = payer.Paid.Add(amount)
			if entry.Profiteer != "" {
				profiteer := record(entry.Profiteer)
				profiteer.Owed = profiteer.Owed.Add(amount)
			}
			continue
		}

		total := decimal.Zero
		for _, item := range entry.Items {
			total = total.Add(item.Amount)
			for _, w := range item.Shares {
				share := RoundCents(item.Amount.Mul(w.Weight).Mul(rate))
				r := record(w.MemberID)
				r.Owed = r.Owed.Add(share)
			}
		}

		payer := record(entry.PrimaryPayer)
		payer.Paid = payer.Paid.Add(RoundCents(total.Mul(rate)))
	}

	for i := range records {
		records[i].Net = records[i].Paid.Sub(records[i].Owed)
	}

	return records
}

// SuggestTransfers turns net balances into a short list of payments that
// settles them.
//
// Greedy: the largest debtor pays the largest creditor until one of them is
// settled. Residues below one cent are ignored.
func SuggestTransfers(balances []models.BalanceRecord) []models.SuggestedTransfer {
	type party struct {
		id     string
		amount decimal.Decimal
	}

	var debtors, creditors []party
	for _, b := range balances {
		switch {
		case b.Net.IsPositive():
			creditors = append(creditors, party{id: b.MemberID, amount: b.Net})
		case b.Net.IsNegative():
			debtors = append(debtors, party{id: b.MemberID, amount: b.Net.Neg()})
		}
	}

	sort.SliceStable(debtors, func(a, b int) bool {
		return debtors[a].amount.GreaterThan(debtors[b].amount)
	})
	sort.SliceStable(creditors, func(a, b int) bool {
		return creditors[a].amount.GreaterThan(creditors[b].amount)
	})

	transfers := []models.SuggestedTransfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)

		if amount.GreaterThanOrEqual(cent) {
			transfers = append(transfers, models.SuggestedTransfer{
				From:   debtors[i].id,
				To:     creditors[j].id,
				Amount: RoundCents(amount),
			})
		}

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)

		if debtors[i].amount.LessThan(cent) {
			i++
		}
		if creditors[j].amount.LessThan(cent) {
			j++
		}
	}

	return transfers
}
