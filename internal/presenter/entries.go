package presenter

import (
	"sort"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

// DateLayout is the ISO-8601 form used for entry dates (UTC, milliseconds).
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// PaymentTitle replaces the missing title of an entry.
const PaymentTitle = "(payment)"

// Split is one member's share of a presented entry.
type Split struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Entry is a presented ledger entry.
type Entry struct {
	Title        string  `json:"title"`
	Type         string  `json:"type"`
	Payer        string  `json:"payer"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	SplitBetween []Split `json:"split_between"`
	Date         string  `json:"date"`
	Category     string  `json:"category,omitempty"`
}

// PresentEntry formats one entry with its aggregated shares.
func PresentEntry(e models.Entry, names models.NameLookup) Entry {
	total, shares := calculator.AggregateShares(e, names)

	splits := make([]Split, len(shares))
	for i, s := range shares {
		splits[i] = Split{Name: s.Name, Amount: s.Amount.InexactFloat64()}
	}

	out := Entry{
		Title:        e.Title,
		Type:         "expense",
		Payer:        names.Name(e.PrimaryPayer),
		Amount:       total.InexactFloat64(),
		Currency:     e.Currency,
		SplitBetween: splits,
		Date:         e.DateText,
		Category:     e.Category,
	}
	if out.Date == "" {
		out.Date = FormatDate(e.EffectiveDate())
	}
	if out.Title == "" {
		out.Title = PaymentTitle
	}
	if e.IsPayment {
		out.Type = "payment"
	}
	return out
}

// RecentEntries drops deleted entries, orders the rest newest first by
// creation time and formats at most limit of them.
func RecentEntries(entries []models.Entry, names models.NameLookup, limit int) []Entry {
	live := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Deleted {
			live = append(live, e)
		}
	}

	sort.SliceStable(live, func(i, j int) bool {
		return live[i].CreatedAt.After(live[j].CreatedAt)
	})

	if limit >= 0 && len(live) > limit {
		live = live[:limit]
	}

	out := make([]Entry, len(live))
	for i, e := range live {
		out[i] = PresentEntry(e, names)
	}
	return out
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
