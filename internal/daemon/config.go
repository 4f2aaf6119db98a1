// Package daemon holds the ecopool runtime configuration: a TOML file under
// the ecopool home directory, with defaults that work out of the box for a
// local dry-run setup.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ecopool-network/ecopool/internal/domain"
)

// Config is the full daemon configuration.
type Config struct {
	Ledger      LedgerConfig      `toml:"ledger"`
	Fees        FeesConfig        `toml:"fees"`
	Market      MarketConfig      `toml:"market"`
	Signer      SignerConfig      `toml:"signer"`
	Confirm     ConfirmConfig     `toml:"confirm"`
	Acquisition AcquisitionConfig `toml:"acquisition"`
	Burn        BurnConfig        `toml:"burn"`
	API         APIConfig         `toml:"api"`
	Tiers       map[string]int64  `toml:"tiers"` // tier id → USD cents
}

// LedgerConfig selects the persistence backend and its location.
type LedgerConfig struct {
	DataDir string `toml:"data_dir"` // empty means <home>/data
	Backend string `toml:"backend"`  // "json" or "sqlite"
}

type FeesConfig struct {
	FeeBps              int64  `toml:"fee_bps"`
	DefaultJurisdiction string `toml:"default_jurisdiction"`
	DefaultReason       string `toml:"default_reason"`
}

type MarketConfig struct {
	OrdersFile   string   `toml:"orders_file"` // empty means <home>/orders.json
	PaymentDenom string   `toml:"payment_denom"`
	CreditTypes  []string `toml:"credit_types"` // the two balanced-mix candidates
}

type SignerConfig struct {
	Mode    string `toml:"mode"` // "none" or "simulated"
	Address string `toml:"address"`
}

type ConfirmConfig struct {
	Attempts int    `toml:"attempts"`
	Interval string `toml:"interval"` // Go duration string
}

type AcquisitionConfig struct {
	Provider         string `toml:"provider"` // "disabled", "simulated", or "live"
	Denom            string `toml:"denom"`
	RateMicroPerCent int64  `toml:"rate_micro_per_cent"`
}

type BurnConfig struct {
	Provider    string `toml:"provider"` // "disabled", "simulated", or "live"
	BurnAddress string `toml:"burn_address"`
}

type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// Home returns the ecopool home directory, honoring ECOPOOL_HOME.
func Home() string {
	if home := os.Getenv("ECOPOOL_HOME"); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ".ecopool"
	}
	return filepath.Join(userHome, ".ecopool")
}

// DefaultConfig returns a configuration suitable for local dry runs:
// JSON ledgers under the home directory, simulated signer, fee conversion
// disabled.
func DefaultConfig() Config {
	return Config{
		Ledger: LedgerConfig{Backend: "json"},
		Fees: FeesConfig{
			FeeBps:              1000,
			DefaultJurisdiction: "US",
			DefaultReason:       "ecopool monthly pooled retirement",
		},
		Market: MarketConfig{
			PaymentDenom: "uusd",
			CreditTypes:  []string{"C", "BT"},
		},
		Signer:  SignerConfig{Mode: "simulated", Address: "ecopool1simaddr"},
		Confirm: ConfirmConfig{Attempts: 10, Interval: "3s"},
		Acquisition: AcquisitionConfig{
			Provider:         "disabled",
			Denom:            "uregen",
			RateMicroPerCent: 10_000,
		},
		Burn: BurnConfig{Provider: "disabled"},
		API:  APIConfig{Host: "127.0.0.1", Port: 8737, Metrics: true},
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error;
// the defaults apply unchanged. Empty path loads <home>/config.toml.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = filepath.Join(Home(), "config.toml")
	}
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, cfg.Validate()
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// DataDir resolves the ledger data directory.
func (c Config) DataDir() string {
	if c.Ledger.DataDir != "" {
		return c.Ledger.DataDir
	}
	return filepath.Join(Home(), "data")
}

// OrdersFile resolves the sell-order book file.
func (c Config) OrdersFile() string {
	if c.Market.OrdersFile != "" {
		return c.Market.OrdersFile
	}
	return filepath.Join(Home(), "orders.json")
}

// ConfirmInterval parses the confirmation polling interval.
func (c Config) ConfirmInterval() time.Duration {
	d, err := time.ParseDuration(c.Confirm.Interval)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

// Validate rejects configurations the daemon cannot safely run with.
func (c Config) Validate() error {
	if c.Fees.FeeBps < 0 || c.Fees.FeeBps > domain.MaxFeeBps {
		return fmt.Errorf("fees.fee_bps %d out of range [0, %d]", c.Fees.FeeBps, domain.MaxFeeBps)
	}
	switch c.Ledger.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("ledger.backend %q unknown (want json or sqlite)", c.Ledger.Backend)
	}
	switch c.Signer.Mode {
	case "none", "simulated":
	default:
		return fmt.Errorf("signer.mode %q unknown (want none or simulated)", c.Signer.Mode)
	}
	switch c.Acquisition.Provider {
	case "disabled", "simulated", "live":
	default:
		return fmt.Errorf("acquisition.provider %q unknown", c.Acquisition.Provider)
	}
	switch c.Burn.Provider {
	case "disabled", "simulated":
	case "live":
		if c.Burn.BurnAddress == "" {
			return fmt.Errorf("burn.provider live requires burn.burn_address")
		}
	default:
		return fmt.Errorf("burn.provider %q unknown", c.Burn.Provider)
	}
	if len(c.Market.CreditTypes) != 2 {
		return fmt.Errorf("market.credit_types must list exactly two types, got %d", len(c.Market.CreditTypes))
	}
	for id, cents := range c.Tiers {
		if cents <= 0 {
			return fmt.Errorf("tiers.%s must be a positive cent amount, got %d", id, cents)
		}
	}
	return nil
}

// WriteDefault writes a commented default config to path if none exists.
func WriteDefault(path string) error {
	if path == "" {
		path = filepath.Join(Home(), "config.toml")
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(DefaultConfig()); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
