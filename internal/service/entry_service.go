package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/members"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/params"
	"github.com/mmynk/splitledger/internal/presenter"
	"github.com/mmynk/splitledger/internal/storage"
)

// EntryService records and lists expenses and payments.
type EntryService struct {
	ledger     storage.Ledger
	inviteCode string
}

// NewEntryService creates an EntryService for the group behind inviteCode.
func NewEntryService(ledger storage.Ledger, inviteCode string) *EntryService {
	return &EntryService{ledger: ledger, inviteCode: inviteCode}
}

// AddExpenseResult is the output of add-expense.
type AddExpenseResult struct {
	Message      string `json:"message"`
	Payer        string `json:"payer"`
	SplitBetween string `json:"split_between"`
}

// AddPaymentResult is the output of add-payment.
type AddPaymentResult struct {
	Message string      `json:"message"`
	From    string      `json:"from"`
	To      string      `json:"to"`
	Amount  json.Number `json:"amount"`
}

// ExpensesResult is the output of get-expenses.
type ExpensesResult struct {
	Entries []presenter.Entry `json:"entries"`
}

// rosterAndInfo fetches the roster and group settings concurrently.
func (s *EntryService) rosterAndInfo(ctx context.Context, groupID string) ([]models.Member, *models.GroupInfo, error) {
	var (
		roster []models.Member
		info   *models.GroupInfo
		g      errgroup.Group
	)
	g.Go(func() (err error) {
		roster, err = s.ledger.ListMembers(ctx, groupID)
		return err
	})
	g.Go(func() (err error) {
		info, err = s.ledger.GetGroupInfo(ctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return roster, info, nil
}

// AddExpense records an expense paid by one member and split equally
// between the profiteers, or between all active members when none are given.
func (s *EntryService) AddExpense(ctx context.Context, p *params.Expense) (*AddExpenseResult, error) {
	slog.Info("AddExpense request received",
		"title", p.Title,
		"amount", p.Amount.String(),
		"profiteers_count", len(p.Profiteers),
	)

	groupID, err := lookupGroup(ctx, s.ledger, s.inviteCode)
	if err != nil {
		return nil, err
	}

	roster, info, err := s.rosterAndInfo(ctx, groupID)
	if err != nil {
		slog.Error("AddExpense failed", "group_id", groupID, "error", err)
		return nil, err
	}

	payer, err := members.Resolve(roster, p.Payer)
	if err != nil {
		return nil, err
	}
	profiteers, err := members.ResolveList(roster, p.Profiteers)
	if err != nil {
		return nil, err
	}

	req := &models.ExpenseRequest{
		GroupID:    groupID,
		PayerID:    payer.ID,
		Title:      p.Title,
		Amount:     p.Amount,
		Currency:   info.DefaultCurrency,
		Profiteers: members.IDs(profiteers),
	}
	if err := s.ledger.CreateExpense(ctx, req); err != nil {
		slog.Error("CreateExpense failed", "group_id", groupID, "error", err)
		return nil, err
	}

	slog.Info("Expense created", "group_id", groupID, "payer_id", payer.ID)

	return &AddExpenseResult{
		Message:      fmt.Sprintf("Expense \"%s\" for %s added successfully.", p.Title, p.Amount.String()),
		Payer:        payer.Name,
		SplitBetween: fmt.Sprintf("%d members", len(profiteers)),
	}, nil
}

// AddPayment records a payment from one member to another.
func (s *EntryService) AddPayment(ctx context.Context, p *params.Payment) (*AddPaymentResult, error) {
	slog.Info("AddPayment request received", "amount", p.Amount.String())

	groupID, err := lookupGroup(ctx, s.ledger, s.inviteCode)
	if err != nil {
		return nil, err
	}

	roster, info, err := s.rosterAndInfo(ctx, groupID)
	if err != nil {
		slog.Error("AddPayment failed", "group_id", groupID, "error", err)
		return nil, err
	}

	sender, err := members.Resolve(roster, p.From)
	if err != nil {
		return nil, err
	}
	recipient, err := members.Resolve(roster, p.To)
	if err != nil {
		return nil, err
	}

	req := &models.PaymentRequest{
		GroupID:     groupID,
		PayerID:     sender.ID,
		ProfiteerID: recipient.ID,
		Amount:      p.Amount,
		Currency:    info.DefaultCurrency,
	}
	if err := s.ledger.CreatePayment(ctx, req); err != nil {
		slog.Error("CreatePayment failed", "group_id", groupID, "error", err)
		return nil, err
	}

	slog.Info("Payment created", "group_id", groupID, "from_id", sender.ID, "to_id", recipient.ID)

	amount := p.Amount.String()
	return &AddPaymentResult{
		Message: fmt.Sprintf("Payment of %s from %s to %s recorded.", amount, sender.Name, recipient.Name),
		From:    sender.Name,
		To:      recipient.Name,
		Amount:  json.Number(amount),
	}, nil
}

// GetExpenses lists the most recent entries of the group, newest first.
func (s *EntryService) GetExpenses(ctx context.Context, q *params.ExpensesQuery) (*ExpensesResult, error) {
	groupID, err := lookupGroup(ctx, s.ledger, s.inviteCode)
	if err != nil {
		return nil, err
	}

	var (
		roster  []models.Member
		entries []models.Entry
		g       errgroup.Group
	)
	g.Go(func() (err error) {
		roster, err = s.ledger.ListMembers(ctx, groupID)
		return err
	})
	g.Go(func() (err error) {
		entries, err = s.ledger.ListEntries(ctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("GetExpenses failed", "group_id", groupID, "error", err)
		return nil, err
	}

	// Deleted members still label the entries they took part in.
	names := models.NewNameLookup(roster)
	recent := presenter.RecentEntries(entries, names, q.Limit)

	slog.Info("GetExpenses successful",
		"group_id", groupID,
		"entries_count", len(entries),
		"returned", len(recent),
	)

	return &ExpensesResult{Entries: recent}, nil
}
