// Package commands wires the operations into a urfave/cli command table.
// Every command reads one JSON object from stdin and writes one JSON
// object to stdout.
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/params"
	"github.com/mmynk/splitledger/internal/service"
)

// pushTimeout bounds the Pushgateway push at exit.
const pushTimeout = 5 * time.Second

// Session is what an operation needs once its input has been validated.
type Session struct {
	Groups  *service.GroupService
	Entries *service.EntryService

	// PushgatewayURL enables pushing metrics at exit when set.
	PushgatewayURL string
}

// Runtime connects the command table to the process.
type Runtime struct {
	Stdin   io.Reader
	Stdout  io.Writer
	Metrics *metrics.Metrics

	// Open loads configuration and connects to the ledger. It runs only
	// after the input has been validated.
	Open func() (*Session, error)
}

// Commands returns the command table.
func (rt *Runtime) Commands() []cli.Command {
	return []cli.Command{
		{
			Name:   "add-expense",
			Usage:  `record an expense: {"title", "amount", "payer", "profiteers"?}`,
			Action: action(rt, "add-expense", params.ParseExpense, addExpense),
		},
		{
			Name:   "add-payment",
			Usage:  `record a payment between two members: {"from", "to", "amount"}`,
			Action: action(rt, "add-payment", params.ParsePayment, addPayment),
		},
		{
			Name:   "get-balance",
			Usage:  "show member balances and suggested payments: {}",
			Action: action(rt, "get-balance", parseNone, getBalance),
		},
		{
			Name:   "get-expenses",
			Usage:  `list recent entries, newest first: {"limit"?}`,
			Action: action(rt, "get-expenses", params.ParseExpensesQuery, getExpenses),
		},
		{
			Name:   "get-members",
			Usage:  "list active members: {}",
			Action: action(rt, "get-members", parseNone, getMembers),
		},
	}
}

// NewApp returns the cli application.
func (rt *Runtime) NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "splitledger"
	app.Usage = "Record and inspect shared expenses of a group ledger. Input is one JSON object on stdin."
	app.Commands = rt.Commands()
	app.Writer = rt.Stdout
	app.HideVersion = true
	// Without a known subcommand there is no result document to print.
	app.Action = func(c *cli.Context) error {
		names := make([]string, len(app.Commands))
		for i, cmd := range app.Commands {
			names[i] = cmd.Name
		}
		if c.NArg() == 0 {
			return fmt.Errorf("Missing command. Expected one of: %s", strings.Join(names, ", "))
		}
		return fmt.Errorf("Unknown command: %s. Expected one of: %s", c.Args().First(), strings.Join(names, ", "))
	}
	return app
}

// parseNone adapts params.ParseNone to the parser shape action expects.
// Operations without parameters carry an empty struct through to run.
func parseNone(r io.Reader) (struct{}, error) {
	return struct{}{}, params.ParseNone(r)
}

func addExpense(ctx context.Context, s *Session, p *params.Expense) (any, error) {
	return s.Entries.AddExpense(ctx, p)
}

func addPayment(ctx context.Context, s *Session, p *params.Payment) (any, error) {
	return s.Entries.AddPayment(ctx, p)
}

func getBalance(ctx context.Context, s *Session, _ struct{}) (any, error) {
	return s.Groups.GetBalance(ctx)
}

func getExpenses(ctx context.Context, s *Session, q *params.ExpensesQuery) (any, error) {
	return s.Entries.GetExpenses(ctx, q)
}

func getMembers(ctx context.Context, s *Session, _ struct{}) (any, error) {
	return s.Groups.GetMembers(ctx)
}

// action builds the cli action of one operation: validate stdin, open the
// session, run, and print the result. Output is written only on success.
func action[P any](
	rt *Runtime,
	name string,
	parse func(io.Reader) (P, error),
	run func(context.Context, *Session, P) (any, error),
) cli.ActionFunc {
	return func(_ *cli.Context) error {
		start := time.Now()
		var session *Session

		err := func() error {
			p, err := parse(rt.Stdin)
			if err != nil {
				return err
			}

			session, err = rt.Open()
			if err != nil {
				return err
			}

			result, err := run(context.Background(), session, p)
			if err != nil {
				return err
			}
			return writeJSON(rt.Stdout, result)
		}()

		slog.Debug("Command finished",
			"command", name,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)

		if rt.Metrics != nil {
			rt.Metrics.CountInvocation(name, err)
			if session != nil && session.PushgatewayURL != "" {
				ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
				if pushErr := rt.Metrics.Push(ctx, session.PushgatewayURL); pushErr != nil {
					slog.Warn("Metrics push failed", "error", pushErr)
				}
				cancel()
			}
		}

		return err
	}
}

// writeJSON encodes v compactly, without a trailing newline, and writes it
// in a single call.
func writeJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return err
}
