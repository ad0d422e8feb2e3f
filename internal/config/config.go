// Package config loads the sync pipeline's settings from the environment.
// Validation runs before any network activity so a missing or
// placeholder-valued credential fails fast with a configuration error.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dvloznov/cardsync/internal/syncerr"
)

// Defaults applied when the environment leaves a knob unset.
const (
	DefaultLookbackDays = 60
	DefaultListenAddr   = ":8080"
)

// Config holds every setting a run needs.
type Config struct {
	// Bank portal.
	BankUsername string
	BankPassword string
	BankBaseURL  string // origin of the portal's internal API
	LoginURL     string // login entry point

	// Optional explicit account. Empty means auto-detect.
	AccountID string

	// Downstream ledger.
	LedgerBaseURL string
	LedgerToken   string

	LookbackDays int
	Headless     bool
	ListenAddr   string
	LogLevel     string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in when present; real environment variables win.
func Load() (*Config, error) {
	// Best effort: absence of a .env file is the normal deployed case.
	_ = godotenv.Load()

	cfg := &Config{
		BankUsername:  os.Getenv("CARDSYNC_BANK_USERNAME"),
		BankPassword:  os.Getenv("CARDSYNC_BANK_PASSWORD"),
		BankBaseURL:   os.Getenv("CARDSYNC_BANK_BASE_URL"),
		LoginURL:      os.Getenv("CARDSYNC_BANK_LOGIN_URL"),
		AccountID:     os.Getenv("CARDSYNC_ACCOUNT_ID"),
		LedgerBaseURL: os.Getenv("CARDSYNC_LEDGER_BASE_URL"),
		LedgerToken:   os.Getenv("CARDSYNC_LEDGER_TOKEN"),
		LookbackDays:  DefaultLookbackDays,
		Headless:      true,
		ListenAddr:    DefaultListenAddr,
		LogLevel:      os.Getenv("CARDSYNC_LOG_LEVEL"),
	}

	if v := os.Getenv("CARDSYNC_LOOKBACK_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return nil, syncerr.New(syncerr.KindConfiguration, "config",
				fmt.Errorf("CARDSYNC_LOOKBACK_DAYS: %w", err))
		}
		cfg.LookbackDays = days
	}
	if v := os.Getenv("CARDSYNC_HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return nil, syncerr.New(syncerr.KindConfiguration, "config",
				fmt.Errorf("CARDSYNC_HEADLESS: %w", err))
		}
		cfg.Headless = headless
	}
	if v := os.Getenv("CARDSYNC_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// placeholders are values copied from a template that were never filled in.
var placeholders = map[string]bool{
	"changeme":      true,
	"change-me":     true,
	"replace_me":    true,
	"your-username": true,
	"your-password": true,
	"your-token":    true,
	"xxx":           true,
	"todo":          true,
}

// Validate checks required settings and rejects placeholder values.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"CARDSYNC_BANK_USERNAME", c.BankUsername},
		{"CARDSYNC_BANK_PASSWORD", c.BankPassword},
		{"CARDSYNC_BANK_BASE_URL", c.BankBaseURL},
		{"CARDSYNC_BANK_LOGIN_URL", c.LoginURL},
		{"CARDSYNC_LEDGER_BASE_URL", c.LedgerBaseURL},
		{"CARDSYNC_LEDGER_TOKEN", c.LedgerToken},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return syncerr.New(syncerr.KindConfiguration, "config",
				fmt.Errorf("%s is required", r.name))
		}
		if placeholders[strings.ToLower(strings.TrimSpace(r.value))] {
			return syncerr.New(syncerr.KindConfiguration, "config",
				fmt.Errorf("%s still has a placeholder value", r.name))
		}
	}
	if c.LookbackDays <= 0 {
		return syncerr.New(syncerr.KindConfiguration, "config",
			fmt.Errorf("lookback days must be positive, got %d", c.LookbackDays))
	}
	return nil
}
