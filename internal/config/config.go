// Package config loads the settings of a splitledger invocation.
//
// Settings come from, in increasing precedence: built-in defaults, the JSON
// config file, an optional .env file and the process environment.
//
// Environment variables:
//
//	SPLITLEDGER_CONFIG:          config file path (default: ../config.json)
//	SPLITLEDGER_INVITE_CODE:     invite code of the target group
//	SPLITLEDGER_URL:             base URL of the ledger API
//	SPLITLEDGER_APP_ID:          application id sent to the ledger API
//	SPLITLEDGER_TIMEOUT:         HTTP timeout, e.g. "30s"
//	SPLITLEDGER_PUSHGATEWAY_URL: Pushgateway to push metrics to (optional)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPath    = "../config.json"
	DefaultURL     = "https://splid.herokuapp.com/parse"
	DefaultAppID   = "splid"
	DefaultTimeout = 30 * time.Second
)

// Config holds the settings of one invocation.
type Config struct {
	InviteCode     string
	LedgerURL      string
	AppID          string
	Timeout        time.Duration
	PushgatewayURL string
}

// file is the on-disk form of Config.
type file struct {
	InviteCode     string `json:"invite_code"`
	LedgerURL      string `json:"ledger_url"`
	AppID          string `json:"app_id"`
	Timeout        string `json:"timeout"`
	PushgatewayURL string `json:"pushgateway_url"`
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// Path returns the config file path, honoring SPLITLEDGER_CONFIG.
func Path() string {
	return getEnv("SPLITLEDGER_CONFIG", DefaultPath)
}

// Load reads the config file at path and applies .env and environment
// overrides. A missing file is not an error as long as the environment
// supplies the invite code.
func Load(path string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var f file
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{
		InviteCode:     getEnv("SPLITLEDGER_INVITE_CODE", f.InviteCode),
		LedgerURL:      getEnv("SPLITLEDGER_URL", orDefault(f.LedgerURL, DefaultURL)),
		AppID:          getEnv("SPLITLEDGER_APP_ID", orDefault(f.AppID, DefaultAppID)),
		PushgatewayURL: getEnv("SPLITLEDGER_PUSHGATEWAY_URL", f.PushgatewayURL),
		Timeout:        DefaultTimeout,
	}

	if raw := getEnv("SPLITLEDGER_TIMEOUT", f.Timeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid timeout %q", raw)
		}
		cfg.Timeout = d
	}

	if cfg.InviteCode == "" {
		return nil, fmt.Errorf("no invite_code configured (checked %s and SPLITLEDGER_INVITE_CODE)", path)
	}

	return cfg, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
