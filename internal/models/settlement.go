package models

import "github.com/shopspring/decimal"

// BalanceRecord is the balance of one member across all entries of a group.
type BalanceRecord struct {
	// MemberID is the member this record belongs to.
	MemberID string

	// Paid is the total this member paid for others and themselves.
	Paid decimal.Decimal

	// Owed is the total of this member's shares.
	Owed decimal.Decimal

	// Net is Paid - Owed. Positive = is owed money, negative = owes money.
	Net decimal.Decimal
}

// SuggestedTransfer is a payment that would reduce outstanding balances.
type SuggestedTransfer struct {
	From   string // member who pays
	To     string // member who receives
	Amount decimal.Decimal
}
