package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/members"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/params"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

const inviteCode = "ABCDEF"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// setupLedger creates an in-memory ledger with one group.
func setupLedger(t *testing.T, roster ...models.Member) (*memory.Ledger, *memory.Group) {
	t.Helper()
	if roster == nil {
		roster = []models.Member{
			{ID: "m-alice", Name: "Alice", Active: true},
			{ID: "m-bob", Name: "Bob", Active: true},
			{ID: "m-carol", Name: "Carol", Active: true},
		}
	}
	group := &memory.Group{
		ID:         "g1",
		InviteCode: inviteCode,
		Info:       models.GroupInfo{Name: "Roommates", DefaultCurrency: "EUR"},
		Members:    roster,
	}
	ledger := memory.New(group)
	ledger.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return ledger, group
}

func TestAddPayment(t *testing.T) {
	ledger, group := setupLedger(t,
		models.Member{ID: "m-alice", Name: "Alice", Active: true},
		models.Member{ID: "m-bob", Name: "Bob", Active: true},
	)
	svc := NewEntryService(ledger, inviteCode)

	res, err := svc.AddPayment(context.Background(), &params.Payment{From: "Alice", To: "Bob", Amount: d("10")})
	require.NoError(t, err)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Payment of 10 from Alice to Bob recorded.","from":"Alice","to":"Bob","amount":10}`, string(out))

	require.Len(t, group.Entries, 1)
	entry := group.Entries[0]
	assert.True(t, entry.IsPayment)
	assert.Equal(t, "m-alice", entry.PrimaryPayer)
	assert.Equal(t, "EUR", entry.Currency)
	require.Len(t, entry.Items, 1)
	assert.Equal(t, "m-bob", entry.Items[0].Shares[0].MemberID)
}

func TestAddPayment_UnknownRecipient(t *testing.T) {
	ledger, group := setupLedger(t)
	svc := NewEntryService(ledger, inviteCode)

	_, err := svc.AddPayment(context.Background(), &params.Payment{From: "alice", To: "Dave", Amount: d("5")})
	var nf *members.MemberNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, `Member "Dave" not found. Available members: Alice, Bob, Carol`, err.Error())
	assert.Empty(t, group.Entries, "nothing is created when resolution fails")
}

func TestAddExpense_SplitsAcrossAllActiveMembers(t *testing.T) {
	ledger, group := setupLedger(t)
	svc := NewEntryService(ledger, inviteCode)

	res, err := svc.AddExpense(context.Background(), &params.Expense{Title: "Dinner", Amount: d("30"), Payer: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, &AddExpenseResult{
		Message:      `Expense "Dinner" for 30 added successfully.`,
		Payer:        "Alice",
		SplitBetween: "3 members",
	}, res)

	require.Len(t, group.Entries, 1)
	shares := group.Entries[0].Items[0].Shares
	require.Len(t, shares, 3)
	assert.Equal(t, []string{"m-alice", "m-bob", "m-carol"}, []string{shares[0].MemberID, shares[1].MemberID, shares[2].MemberID})
}

func TestAddExpense_NamedProfiteers(t *testing.T) {
	ledger, group := setupLedger(t,
		models.Member{ID: "m-alice", Name: "Alice", Active: true},
		models.Member{ID: "m-bob", Name: "Bob", Active: false},
		models.Member{ID: "m-carol", Name: "Carol", Active: true},
	)
	svc := NewEntryService(ledger, inviteCode)

	res, err := svc.AddExpense(context.Background(), &params.Expense{
		Title:      "Taxi",
		Amount:     d("12.5"),
		Payer:      " carol ",
		Profiteers: []string{"Alice", "CAROL", "alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Carol", res.Payer)
	assert.Equal(t, "3 members", res.SplitBetween)

	entry := group.Entries[0]
	assert.Equal(t, "Taxi", entry.Title)
	assert.Equal(t, "m-carol", entry.PrimaryPayer)

	_, err = svc.AddExpense(context.Background(), &params.Expense{Title: "X", Amount: d("1"), Payer: "Alice", Profiteers: []string{"Bob"}})
	var nf *members.MemberNotFoundError
	require.ErrorAs(t, err, &nf, "inactive members cannot be profiteers")
	assert.Equal(t, []string{"Alice", "Carol"}, nf.Available)
}

func TestGetBalance(t *testing.T) {
	ledger, group := setupLedger(t,
		models.Member{ID: "m-alice", Name: "Alice", Active: true},
		models.Member{ID: "m-bob", Name: "Bob", Active: true},
		models.Member{ID: "m-carol", Name: "Carol", Active: true},
		models.Member{ID: "m-dan", Name: "Dan", Active: false},
	)
	group.Entries = []models.Entry{
		{PrimaryPayer: "m-alice", Currency: "EUR", Items: []models.LineItem{{Amount: d("30"), Shares: models.EqualShares([]string{"m-alice", "m-bob", "m-carol"})}}},
		{PrimaryPayer: "m-dan", Currency: "EUR", Items: []models.LineItem{{Amount: d("6"), Shares: models.EqualShares([]string{"m-carol"})}}},
		{PrimaryPayer: "m-bob", Currency: "EUR", Deleted: true, Items: []models.LineItem{{Amount: d("100"), Shares: models.EqualShares([]string{"m-alice"})}}},
	}
	svc := NewGroupService(ledger, inviteCode)

	res, err := svc.GetBalance(context.Background())
	require.NoError(t, err)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"group_name": "Roommates",
		"currency": "EUR",
		"member_balances": [
			{"name":"Alice","balance":20,"total_paid":30,"total_owed":10},
			{"name":"Bob","balance":-10,"total_paid":0,"total_owed":10},
			{"name":"Carol","balance":-16,"total_paid":0,"total_owed":16},
			{"name":"m-dan","balance":6,"total_paid":6,"total_owed":0}
		],
		"suggested_payments": [
			{"from":"Carol","to":"Alice","amount":16},
			{"from":"Bob","to":"Alice","amount":4},
			{"from":"Bob","to":"m-dan","amount":6}
		]
	}`, string(out))
}

func TestGetExpenses(t *testing.T) {
	ledger, group := setupLedger(t,
		models.Member{ID: "m-alice", Name: "Alice", Active: true},
		models.Member{ID: "m-bob", Name: "Bob", Active: false},
	)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	group.Entries = []models.Entry{
		{Title: "Groceries", PrimaryPayer: "m-alice", Currency: "EUR", CreatedAt: base, Category: "Food", Items: []models.LineItem{
			{Amount: d("10"), Shares: []models.ShareWeight{{MemberID: "m-alice", Weight: d("0.5")}, {MemberID: "m-bob", Weight: d("0.5")}}},
			{Amount: d("5"), Shares: []models.ShareWeight{{MemberID: "m-alice", Weight: d("1")}}},
		}},
		{IsPayment: true, PrimaryPayer: "m-bob", Currency: "EUR", CreatedAt: base.Add(time.Hour), Amount: d("5"), Profiteer: "m-alice"},
		{Title: "Gone", PrimaryPayer: "m-alice", CreatedAt: base.Add(2 * time.Hour), Deleted: true},
	}
	svc := NewEntryService(ledger, inviteCode)

	res, err := svc.GetExpenses(context.Background(), &params.ExpensesQuery{Limit: 20})
	require.NoError(t, err)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"entries":[
		{"title":"(payment)","type":"payment","payer":"Bob","amount":5,"currency":"EUR",
		 "split_between":[{"name":"Alice","amount":5}],"date":"2024-05-01T11:00:00.000Z"},
		{"title":"Groceries","type":"expense","payer":"Alice","amount":15,"currency":"EUR",
		 "split_between":[{"name":"Alice","amount":10},{"name":"Bob","amount":5}],
		 "date":"2024-05-01T10:00:00.000Z","category":"Food"}
	]}`, string(out))

	limited, err := svc.GetExpenses(context.Background(), &params.ExpensesQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited.Entries, 1)
	assert.Equal(t, "payment", limited.Entries[0].Type)
}

func TestGetMembers(t *testing.T) {
	ledger, _ := setupLedger(t,
		models.Member{ID: "m-alice", Name: "Alice", Active: true},
		models.Member{ID: "m-bob", Name: "Bob", Active: false},
		models.Member{ID: "m-carol", Name: "Carol", Active: true},
	)
	svc := NewGroupService(ledger, inviteCode)

	res, err := svc.GetMembers(context.Background())
	require.NoError(t, err)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"members":[{"name":"Alice","id":"m-alice"},{"name":"Carol","id":"m-carol"}]}`, string(out))
}

func TestRemoteFailuresPropagate(t *testing.T) {
	boom := errors.New("503 upstream")

	tests := []struct {
		name string
		op   string
		run  func(l storage.Ledger) error
	}{
		{name: "lookup", op: "lookup group", run: func(l storage.Ledger) error {
			_, err := NewGroupService(l, inviteCode).GetMembers(context.Background())
			return err
		}},
		{name: "entries", op: "list entries", run: func(l storage.Ledger) error {
			_, err := NewGroupService(l, inviteCode).GetBalance(context.Background())
			return err
		}},
		{name: "info", op: "get group info", run: func(l storage.Ledger) error {
			_, err := NewEntryService(l, inviteCode).AddExpense(context.Background(), &params.Expense{Title: "T", Amount: d("1"), Payer: "Alice"})
			return err
		}},
		{name: "create payment", op: "create payment", run: func(l storage.Ledger) error {
			_, err := NewEntryService(l, inviteCode).AddPayment(context.Background(), &params.Payment{From: "Alice", To: "Bob", Amount: d("1")})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, _ := setupLedger(t)
			ledger.Fail[tt.op] = boom

			err := tt.run(ledger)
			var remote *storage.RemoteError
			require.ErrorAs(t, err, &remote)
			assert.Equal(t, tt.op, remote.Op)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestUnknownInviteCode(t *testing.T) {
	ledger, _ := setupLedger(t)
	_, err := NewEntryService(ledger, "WRONG").GetExpenses(context.Background(), &params.ExpensesQuery{Limit: 20})
	var remote *storage.RemoteError
	require.ErrorAs(t, err, &remote)
}
