package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// isoLayout is the timestamp format Parse uses for Date values.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

var decimalOne = decimal.NewFromInt(1)

type pointer struct {
	Type      string `json:"__type"`
	ClassName string `json:"className"`
	ObjectID  string `json:"objectId"`
}

func groupPointer(groupID string) pointer {
	return pointer{Type: "Pointer", ClassName: "Group", ObjectID: groupID}
}

type dateValue struct {
	Type string `json:"__type,omitempty"`
	ISO  string `json:"iso"`
}

func newDate(t time.Time) *dateValue {
	return &dateValue{Type: "Date", ISO: t.UTC().Format(isoLayout)}
}

func (d *dateValue) time() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, d.ISO)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", d.ISO, err)
	}
	return t, nil
}

type personDoc struct {
	GlobalID  string `json:"GlobalId"`
	Name      string `json:"name"`
	IsDeleted bool   `json:"isDeleted"`
}

type groupInfoDoc struct {
	Name                string                 `json:"name"`
	DefaultCurrencyCode string                 `json:"defaultCurrencyCode"`
	CurrencyRates       map[string]json.Number `json:"currencyRates,omitempty"`
}

type categoryDoc struct {
	OriginalName string `json:"originalName"`
	Op           string `json:"__op,omitempty"`
}

type profiteersDoc struct {
	P weights `json:"P"`
}

type itemDoc struct {
	AM json.Number   `json:"AM"`
	P  profiteersDoc `json:"P"`
}

type entryDoc struct {
	GlobalID        string       `json:"GlobalId"`
	Group           *pointer     `json:"group,omitempty"`
	Title           string       `json:"title,omitempty"`
	IsPayment       bool         `json:"isPayment"`
	IsDeleted       bool         `json:"isDeleted"`
	PrimaryPayer    string       `json:"primaryPayer"`
	CurrencyCode    string       `json:"currencyCode,omitempty"`
	Items           []itemDoc    `json:"items"`
	Amount          json.Number  `json:"amount,omitempty"`
	Profiteer       string       `json:"profiteer,omitempty"`
	CreatedGlobally *dateValue   `json:"createdGlobally,omitempty"`
	Date            *dateValue   `json:"date,omitempty"`
	Category        *categoryDoc `json:"category,omitempty"`
}

type results[T any] struct {
	Results []T `json:"results"`
}

// weights is a share-weight object that keeps the key order of the wire
// document. A repeated key keeps its first position and its last value.
type weights []models.ShareWeight

func (w *weights) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*w = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("share weights: expected object, got %v", tok)
	}

	out := weights{}
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("share weight for %q: %w", key, err)
		}
		weight, err := decimal.NewFromString(n.String())
		if err != nil {
			return fmt.Errorf("share weight for %q: %w", key, err)
		}

		if i, ok := index[key]; ok {
			out[i].Weight = weight
			continue
		}
		index[key] = len(out)
		out = append(out, models.ShareWeight{MemberID: key, Weight: weight})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*w = out
	return nil
}

func (w weights) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range w {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.MemberID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(s.Weight.String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func toMember(p personDoc) models.Member {
	return models.Member{ID: p.GlobalID, Name: p.Name, Active: !p.IsDeleted}
}

func toGroupInfo(doc groupInfoDoc) (*models.GroupInfo, error) {
	info := &models.GroupInfo{
		Name:            doc.Name,
		DefaultCurrency: doc.DefaultCurrencyCode,
	}
	if len(doc.CurrencyRates) > 0 {
		info.CurrencyRates = make(map[string]decimal.Decimal, len(doc.CurrencyRates))
		for code, n := range doc.CurrencyRates {
			rate, err := decimal.NewFromString(n.String())
			if err != nil {
				return nil, fmt.Errorf("invalid rate for %s: %w", code, err)
			}
			info.CurrencyRates[code] = rate
		}
	}
	return info, nil
}

func parseAmount(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.String())
}

func toEntry(doc entryDoc) (models.Entry, error) {
	e := models.Entry{
		ID:           doc.GlobalID,
		Title:        doc.Title,
		IsPayment:    doc.IsPayment,
		PrimaryPayer: doc.PrimaryPayer,
		Currency:     doc.CurrencyCode,
		Profiteer:    doc.Profiteer,
		Deleted:      doc.IsDeleted,
	}

	var err error
	if e.Amount, err = parseAmount(doc.Amount); err != nil {
		return e, fmt.Errorf("entry %s: invalid amount: %w", doc.GlobalID, err)
	}

	for _, item := range doc.Items {
		amount, err := parseAmount(item.AM)
		if err != nil {
			return e, fmt.Errorf("entry %s: invalid item amount: %w", doc.GlobalID, err)
		}
		e.Items = append(e.Items, models.LineItem{Amount: amount, Shares: item.P.P})
	}

	// Dates only order and label entries; an unreadable one must not fail
	// the whole listing.
	if doc.CreatedGlobally != nil {
		e.DateText = doc.CreatedGlobally.ISO
		if e.CreatedAt, err = doc.CreatedGlobally.time(); err != nil {
			slog.Warn("Ignoring unreadable entry date", "entry_id", doc.GlobalID, "error", err)
		}
	}
	if doc.Date != nil && doc.Date.ISO != "" {
		e.DateText = doc.Date.ISO
		if date, err := doc.Date.time(); err != nil {
			slog.Warn("Ignoring unreadable entry date", "entry_id", doc.GlobalID, "error", err)
		} else {
			e.Date = &date
		}
	}

	// A category carrying a Parse operation (e.g. Delete) has been removed.
	if doc.Category != nil && doc.Category.Op == "" {
		e.Category = doc.Category.OriginalName
	}

	return e, nil
}
