// Package memory provides an in-memory storage.Ledger for tests and local
// experiments.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure Ledger implements storage.Ledger
var _ storage.Ledger = (*Ledger)(nil)

// Group is the state of one in-memory group.
type Group struct {
	ID         string
	InviteCode string
	Info       models.GroupInfo
	Members    []models.Member
	Entries    []models.Entry
}

// Ledger keeps groups in memory. Failures can be injected per operation.
type Ledger struct {
	mu     sync.Mutex
	groups map[string]*Group

	// Fail maps an operation name ("lookup group", "list members",
	// "list entries", "get group info", "create expense", "create payment")
	// to the error it should return.
	Fail map[string]error

	// Now stamps created entries. Defaults to time.Now.
	Now func() time.Time
}

// New creates a Ledger holding the given groups.
func New(groups ...*Group) *Ledger {
	l := &Ledger{groups: make(map[string]*Group), Fail: make(map[string]error)}
	for _, g := range groups {
		l.groups[g.ID] = g
	}
	return l
}

// Group returns the group with the given ID, or nil.
func (l *Ledger) Group(id string) *Group {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.groups[id]
}

func (l *Ledger) fail(op string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, ok := l.Fail[op]; ok {
		return &storage.RemoteError{Op: op, Err: err}
	}
	return nil
}

func (l *Ledger) group(op, id string) (*Group, error) {
	if err := l.fail(op); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.groups[id]
	if !ok {
		return nil, &storage.RemoteError{Op: op, Err: errors.New("group not found")}
	}
	return g, nil
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// LookupGroup implements storage.Ledger.
func (l *Ledger) LookupGroup(_ context.Context, inviteCode string) (string, error) {
	if err := l.fail("lookup group"); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, g := range l.groups {
		if g.InviteCode == inviteCode {
			return g.ID, nil
		}
	}
	return "", &storage.RemoteError{Op: "lookup group", Err: errors.New("no group for invite code")}
}

// ListMembers implements storage.Ledger.
func (l *Ledger) ListMembers(_ context.Context, groupID string) ([]models.Member, error) {
	g, err := l.group("list members", groupID)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Member(nil), g.Members...), nil
}

// ListEntries implements storage.Ledger.
func (l *Ledger) ListEntries(_ context.Context, groupID string) ([]models.Entry, error) {
	g, err := l.group("list entries", groupID)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Entry(nil), g.Entries...), nil
}

// GetGroupInfo implements storage.Ledger.
func (l *Ledger) GetGroupInfo(_ context.Context, groupID string) (*models.GroupInfo, error) {
	g, err := l.group("get group info", groupID)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	info := g.Info
	return &info, nil
}

// CreateExpense implements storage.Ledger.
func (l *Ledger) CreateExpense(_ context.Context, req *models.ExpenseRequest) error {
	g, err := l.group("create expense", req.GroupID)
	if err != nil {
		return err
	}

	item := models.LineItem{Amount: req.Amount, Shares: models.EqualShares(req.Profiteers)}

	l.mu.Lock()
	defer l.mu.Unlock()
	g.Entries = append(g.Entries, models.Entry{
		ID:           uuid.NewString(),
		Title:        req.Title,
		PrimaryPayer: req.PayerID,
		Currency:     req.Currency,
		Items:        []models.LineItem{item},
		CreatedAt:    l.now().UTC(),
	})
	return nil
}

// CreatePayment implements storage.Ledger.
func (l *Ledger) CreatePayment(_ context.Context, req *models.PaymentRequest) error {
	g, err := l.group("create payment", req.GroupID)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	g.Entries = append(g.Entries, models.Entry{
		ID:           uuid.NewString(),
		IsPayment:    true,
		PrimaryPayer: req.PayerID,
		Currency:     req.Currency,
		Items: []models.LineItem{{
			Amount: req.Amount,
			Shares: []models.ShareWeight{{MemberID: req.ProfiteerID, Weight: decimal.NewFromInt(1)}},
		}},
		CreatedAt: l.now().UTC(),
	})
	return nil
}
