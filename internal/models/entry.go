package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry represents one ledger record: an expense or a payment.
type Entry struct {
	// ID is the entry's GlobalId.
	ID string

	// Title is optional. Payments usually have none.
	Title string

	IsPayment bool

	// PrimaryPayer is the member ID of whoever paid.
	PrimaryPayer string

	// Currency is the ISO code the amounts are expressed in.
	Currency string

	// Items are the line items of the entry, in ledger order.
	Items []LineItem

	// Amount and Profiteer describe a payment stored without line items.
	// They are ignored whenever Items is non-empty.
	Amount    decimal.Decimal
	Profiteer string

	// CreatedAt is when the entry was created on the ledger.
	CreatedAt time.Time

	// Date is the optional effective date chosen by the user.
	Date *time.Time

	// DateText is the effective date exactly as the ledger sent it, empty
	// for entries that did not come from the wire.
	DateText string

	// Category is the category label, empty when the entry has none.
	Category string

	Deleted bool
}

// LineItem is one item of an entry with its own amount and share weights.
type LineItem struct {
	Amount decimal.Decimal

	// Shares attributes fractions of Amount to members. The order is the
	// order in which the ledger listed them.
	Shares []ShareWeight
}

// ShareWeight is the fraction (0..1) of a line item attributed to one member.
type ShareWeight struct {
	MemberID string
	Weight   decimal.Decimal
}

// HasItemlessPayment reports whether the entry is a payment that carries
// its amount directly instead of through line items.
func (e Entry) HasItemlessPayment() bool {
	return e.IsPayment && len(e.Items) == 0
}

// EffectiveDate returns Date when set and CreatedAt otherwise.
func (e Entry) EffectiveDate() time.Time {
	if e.Date != nil {
		return *e.Date
	}
	return e.CreatedAt
}

// ExpenseRequest describes a new expense to submit to the ledger.
type ExpenseRequest struct {
	GroupID    string
	PayerID    string
	Title      string
	Amount     decimal.Decimal
	Currency   string
	Profiteers []string // member IDs, duplicates allowed
}

// PaymentRequest describes a new payment between two members.
type PaymentRequest struct {
	GroupID     string
	PayerID     string
	ProfiteerID string
	Amount      decimal.Decimal
	Currency    string
}

// EqualShares splits a line item equally across ids. Every occurrence of an
// ID adds 1/len(ids) to its weight.
func EqualShares(ids []string) []ShareWeight {
	if len(ids) == 0 {
		return nil
	}
	w := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(ids))))
	shares := make([]ShareWeight, 0, len(ids))
	index := make(map[string]int, len(ids))
	for _, id := range ids {
		if i, ok := index[id]; ok {
			shares[i].Weight = shares[i].Weight.Add(w)
			continue
		}
		index[id] = len(shares)
		shares = append(shares, ShareWeight{MemberID: id, Weight: w})
	}
	return shares
}
