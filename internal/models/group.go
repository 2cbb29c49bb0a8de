package models

import "github.com/shopspring/decimal"

// GroupInfo holds the group-level settings of a ledger group.
type GroupInfo struct {
	// Name is the display name of the group (e.g., "Lisbon Trip").
	Name string

	// DefaultCurrency is the currency balances are expressed in.
	DefaultCurrency string

	// CurrencyRates converts one unit of a foreign currency into the default
	// currency. Missing codes are treated as 1.
	CurrencyRates map[string]decimal.Decimal
}

// Rate returns the conversion rate from currency into the default currency.
func (g *GroupInfo) Rate(currency string) decimal.Decimal {
	if g == nil || currency == "" || currency == g.DefaultCurrency {
		return decimal.NewFromInt(1)
	}
	if rate, ok := g.CurrencyRates[currency]; ok && rate.IsPositive() {
		return rate
	}
	return decimal.NewFromInt(1)
}
