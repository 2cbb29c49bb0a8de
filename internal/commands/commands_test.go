package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/members"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/params"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

const inviteCode = "ABCDEF"

type harness struct {
	ledger  *memory.Ledger
	group   *memory.Group
	metrics *metrics.Metrics
	stdout  *bytes.Buffer
	opened  int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	group := &memory.Group{
		ID:         "g1",
		InviteCode: inviteCode,
		Info:       models.GroupInfo{Name: "Trip", DefaultCurrency: "USD"},
		Members: []models.Member{
			{ID: "m-alice", Name: "Alice", Active: true},
			{ID: "m-bob", Name: "Bob", Active: true},
		},
	}
	ledger := memory.New(group)
	ledger.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return &harness{
		ledger:  ledger,
		group:   group,
		metrics: metrics.New(),
		stdout:  &bytes.Buffer{},
	}
}

// run executes one command with input on stdin.
func (h *harness) run(command, input string) error {
	rt := &Runtime{
		Stdin:   strings.NewReader(input),
		Stdout:  h.stdout,
		Metrics: h.metrics,
		Open: func() (*Session, error) {
			h.opened++
			return &Session{
				Groups:  service.NewGroupService(h.ledger, inviteCode),
				Entries: service.NewEntryService(h.ledger, inviteCode),
			}, nil
		},
	}
	return rt.NewApp().Run([]string{"splitledger", command})
}

func TestAddPaymentCommand(t *testing.T) {
	h := newHarness(t)

	err := h.run("add-payment", `{"from":"Alice","to":"Bob","amount":10}`)
	require.NoError(t, err)

	assert.Equal(t,
		`{"message":"Payment of 10 from Alice to Bob recorded.","from":"Alice","to":"Bob","amount":10}`,
		h.stdout.String())
	assert.Len(t, h.group.Entries, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Invocations.WithLabelValues("add-payment", "ok")))
}

func TestAddExpenseThenListCommand(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("add-expense", `{"title":"Fish & Chips","amount":12.50,"payer":"bob"}`))
	assert.Equal(t,
		`{"message":"Expense \"Fish & Chips\" for 12.5 added successfully.","payer":"Bob","split_between":"2 members"}`,
		h.stdout.String())

	h.stdout.Reset()
	require.NoError(t, h.run("get-expenses", `{}`))
	assert.JSONEq(t, `{"entries":[{
		"title":"Fish & Chips","type":"expense","payer":"Bob","amount":12.5,"currency":"USD",
		"split_between":[{"name":"Alice","amount":6.25},{"name":"Bob","amount":6.25}],
		"date":"2024-01-02T03:04:05.000Z"
	}]}`, h.stdout.String())
}

func TestReadCommands(t *testing.T) {
	h := newHarness(t)
	h.group.Entries = []models.Entry{{
		PrimaryPayer: "m-alice",
		Currency:     "USD",
		Items: []models.LineItem{{
			Amount: decimal.NewFromInt(20),
			Shares: models.EqualShares([]string{"m-alice", "m-bob"}),
		}},
	}}

	require.NoError(t, h.run("get-balance", `{}`))
	assert.JSONEq(t, `{
		"group_name":"Trip","currency":"USD",
		"member_balances":[
			{"name":"Alice","balance":10,"total_paid":20,"total_owed":10},
			{"name":"Bob","balance":-10,"total_paid":0,"total_owed":10}
		],
		"suggested_payments":[{"from":"Bob","to":"Alice","amount":10}]
	}`, h.stdout.String())

	h.stdout.Reset()
	require.NoError(t, h.run("get-members", ` { } `))
	assert.Equal(t, `{"members":[{"name":"Alice","id":"m-alice"},{"name":"Bob","id":"m-bob"}]}`, h.stdout.String())
}

func TestValidationFailsBeforeOpen(t *testing.T) {
	tests := []struct {
		command string
		input   string
		wantErr string
	}{
		{command: "add-expense", input: `{"amount":5,"payer":"Alice"}`, wantErr: "Missing required parameter: title"},
		{command: "add-payment", input: `{"from":"Alice","to":"Bob","amount":-1}`, wantErr: "Parameter 'amount' must be a positive number"},
		{command: "get-expenses", input: `{"limit":2.5}`, wantErr: "Parameter 'limit' must be a positive integer"},
		{command: "get-members", input: `{"verbose":true}`, wantErr: "Unknown parameters: verbose"},
		{command: "get-balance", input: `[]`, wantErr: "Input must be a JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			h := newHarness(t)

			err := h.run(tt.command, tt.input)
			var verr *params.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantErr, err.Error())
			assert.Zero(t, h.opened)
			assert.Empty(t, h.stdout.String())
			assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Invocations.WithLabelValues(tt.command, "error")))
		})
	}
}

func TestFailuresWriteNothing(t *testing.T) {
	t.Run("unknown member", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("add-payment", `{"from":"Alice","to":"Zoe","amount":1}`)
		var nf *members.MemberNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Empty(t, h.stdout.String())
		assert.Empty(t, h.group.Entries)
	})

	t.Run("remote error", func(t *testing.T) {
		h := newHarness(t)
		h.ledger.Fail["list entries"] = errors.New("connection reset")
		err := h.run("get-balance", `{}`)
		var remote *storage.RemoteError
		require.ErrorAs(t, err, &remote)
		assert.Empty(t, h.stdout.String())
	})

	t.Run("open error", func(t *testing.T) {
		h := newHarness(t)
		rt := &Runtime{
			Stdin:  strings.NewReader(`{}`),
			Stdout: h.stdout,
			Open:   func() (*Session, error) { return nil, errors.New("no invite_code configured") },
		}
		err := rt.NewApp().Run([]string{"splitledger", "get-members"})
		require.EqualError(t, err, "no invite_code configured")
		assert.Empty(t, h.stdout.String())
	})
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]string{"title": "<a & b>"}))
	assert.Equal(t, `{"title":"<a & b>"}`, buf.String())
}

func TestMissingOrUnknownCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "no command",
			args:    []string{"splitledger"},
			wantErr: "Missing command. Expected one of: add-expense, add-payment, get-balance, get-expenses, get-members",
		},
		{
			name:    "unknown command",
			args:    []string{"splitledger", "delete-expense"},
			wantErr: "Unknown command: delete-expense. Expected one of: add-expense, add-payment, get-balance, get-expenses, get-members",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rt := &Runtime{
				Stdin:  strings.NewReader(`{}`),
				Stdout: h.stdout,
				Open: func() (*Session, error) {
					h.opened++
					return nil, errors.New("unexpected open")
				},
			}

			err := rt.NewApp().Run(tt.args)
			require.EqualError(t, err, tt.wantErr)
			assert.Empty(t, h.stdout.String())
			assert.Zero(t, h.opened)
		})
	}
}
