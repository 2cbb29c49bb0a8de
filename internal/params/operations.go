package params

import (
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// Expense holds the validated parameters of add-expense.
type Expense struct {
	Title  string
	Amount decimal.Decimal
	Payer  string

	// Profiteers is the trimmed, comma-separated name list. Nil means
	// the expense is split across all active members.
	Profiteers []string
}

// ParseExpense validates add-expense input.
func ParseExpense(r io.Reader) (*Expense, error) {
	obj, err := Decode(r, "title", "amount", "payer", "profiteers")
	if err != nil {
		return nil, err
	}

	p := &Expense{}
	if p.Title, err = obj.RequiredString("title"); err != nil {
		return nil, err
	}
	if p.Amount, err = obj.PositiveAmount("amount"); err != nil {
		return nil, err
	}
	if p.Payer, err = obj.RequiredString("payer"); err != nil {
		return nil, err
	}

	profiteers, err := obj.String("profiteers")
	if err != nil {
		return nil, err
	}
	if profiteers != "" {
		p.Profiteers = SplitNames(profiteers)
	}
	return p, nil
}

// Payment holds the validated parameters of add-payment.
type Payment struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// ParsePayment validates add-payment input.
func ParsePayment(r io.Reader) (*Payment, error) {
	obj, err := Decode(r, "from", "to", "amount")
	if err != nil {
		return nil, err
	}

	p := &Payment{}
	if p.From, err = obj.RequiredString("from"); err != nil {
		return nil, err
	}
	if p.To, err = obj.RequiredString("to"); err != nil {
		return nil, err
	}
	if p.Amount, err = obj.PositiveAmount("amount"); err != nil {
		return nil, err
	}
	return p, nil
}

// ExpensesQuery holds the validated parameters of get-expenses.
type ExpensesQuery struct {
	Limit int
}

// ParseExpensesQuery validates get-expenses input.
func ParseExpensesQuery(r io.Reader) (*ExpensesQuery, error) {
	obj, err := Decode(r, "limit")
	if err != nil {
		return nil, err
	}
	limit, err := obj.Limit("limit", DefaultLimit)
	if err != nil {
		return nil, err
	}
	return &ExpensesQuery{Limit: limit}, nil
}

// ParseNone validates input of operations without parameters
// (get-balance, get-members).
func ParseNone(r io.Reader) error {
	_, err := Decode(r)
	return err
}

// SplitNames splits a comma-separated name list and trims each token.
// Duplicates and empty tokens are preserved.
func SplitNames(list string) []string {
	parts := strings.Split(list, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
