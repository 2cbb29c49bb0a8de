package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/mmynk/splitledger/internal/commands"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/parse"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	logging.Setup()

	m := metrics.New()
	rt := &commands.Runtime{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Metrics: m,
		Open:    func() (*commands.Session, error) { return open(m) },
	}

	if err := rt.NewApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, oneLine(err.Error()))
		os.Exit(1)
	}
}

// open loads the configuration and connects to the ledger service.
func open(m *metrics.Metrics) (*commands.Session, error) {
	path := config.Path()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("Config loaded", "path", path, "ledger_url", cfg.LedgerURL, "timeout", cfg.Timeout)

	transport, err := parse.NewTransport()
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{
		Transport: middleware.LoggingTransport(transport, m),
		Timeout:   cfg.Timeout,
	}
	ledger := parse.New(cfg.LedgerURL, cfg.AppID, httpClient)

	return &commands.Session{
		Groups:         service.NewGroupService(ledger, cfg.InviteCode),
		Entries:        service.NewEntryService(ledger, cfg.InviteCode),
		PushgatewayURL: cfg.PushgatewayURL,
	}, nil
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// oneLine collapses a message onto a single line.
func oneLine(msg string) string {
	return strings.TrimSpace(newlines.Replace(msg))
}
