package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8737 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8737)
	}
	if cfg.Fees.FeeBps != 1000 {
		t.Errorf("Fees.FeeBps = %d, want 1000", cfg.Fees.FeeBps)
	}
	if cfg.Ledger.Backend != "json" {
		t.Errorf("Ledger.Backend = %q, want json", cfg.Ledger.Backend)
	}
	if cfg.Signer.Mode != "simulated" {
		t.Errorf("Signer.Mode = %q, want simulated", cfg.Signer.Mode)
	}
	if cfg.Acquisition.Provider != "disabled" {
		t.Errorf("Acquisition.Provider = %q, want disabled (opt-in)", cfg.Acquisition.Provider)
	}
	if len(cfg.Market.CreditTypes) != 2 {
		t.Errorf("Market.CreditTypes = %v, want two types", cfg.Market.CreditTypes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[ledger]
backend = "sqlite"
data_dir = "/var/lib/ecopool"

[fees]
fee_bps = 250
default_jurisdiction = "DE"

[signer]
mode = "none"

[tiers]
starter = 500
pro = 2000
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Ledger.Backend != "sqlite" {
		t.Errorf("Ledger.Backend = %q, want sqlite", cfg.Ledger.Backend)
	}
	if cfg.DataDir() != "/var/lib/ecopool" {
		t.Errorf("DataDir() = %q, want /var/lib/ecopool", cfg.DataDir())
	}
	if cfg.Fees.FeeBps != 250 {
		t.Errorf("Fees.FeeBps = %d, want 250", cfg.Fees.FeeBps)
	}
	// Sections the file omits keep their defaults.
	if cfg.API.Port != 8737 {
		t.Errorf("API.Port = %d, want default 8737", cfg.API.Port)
	}
	if cfg.Acquisition.RateMicroPerCent != 10_000 {
		t.Errorf("Acquisition.RateMicroPerCent = %d, want default 10_000", cfg.Acquisition.RateMicroPerCent)
	}
	if got := cfg.Tiers["pro"]; got != 2000 {
		t.Errorf("Tiers[pro] = %d, want 2000", got)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Fees.FeeBps != 1000 {
		t.Errorf("Fees.FeeBps = %d, want default 1000", cfg.Fees.FeeBps)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fee bps over max", func(c *Config) { c.Fees.FeeBps = 10_001 }},
		{"negative fee bps", func(c *Config) { c.Fees.FeeBps = -1 }},
		{"unknown backend", func(c *Config) { c.Ledger.Backend = "postgres" }},
		{"unknown signer mode", func(c *Config) { c.Signer.Mode = "ledger-nano" }},
		{"unknown acquisition provider", func(c *Config) { c.Acquisition.Provider = "osmosis" }},
		{"live burn without address", func(c *Config) { c.Burn.Provider = "live" }},
		{"one credit type", func(c *Config) { c.Market.CreditTypes = []string{"C"} }},
		{"zero tier amount", func(c *Config) { c.Tiers = map[string]int64{"free": 0} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestConfirmInterval(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ConfirmInterval(); got != 3*time.Second {
		t.Errorf("ConfirmInterval() = %v, want 3s", got)
	}
	cfg.Confirm.Interval = "250ms"
	if got := cfg.ConfirmInterval(); got != 250*time.Millisecond {
		t.Errorf("ConfirmInterval() = %v, want 250ms", got)
	}
	cfg.Confirm.Interval = "garbage"
	if got := cfg.ConfirmInterval(); got != 3*time.Second {
		t.Errorf("ConfirmInterval() = %v, want fallback 3s", got)
	}
}

func TestHomeHonorsEnv(t *testing.T) {
	t.Setenv("ECOPOOL_HOME", "/tmp/ecopool-home")
	if got := Home(); got != "/tmp/ecopool-home" {
		t.Errorf("Home() = %q, want env override", got)
	}
}
