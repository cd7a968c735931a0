package config

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
)

func TestLoad_Defaults(t *testing.T) {
	fee := solana.NewWallet().PublicKey()
	t.Setenv("FEE_ACCOUNT", fee.String())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.ProgramID.String() != DefaultProgramID {
		t.Errorf("Expected default program id, got: %s", cfg.ProgramID)
	}
	if !cfg.FeeAccount.Equals(fee) {
		t.Errorf("Expected fee account %s, got: %s", fee, cfg.FeeAccount)
	}
	if cfg.StoreDriver != DriverMemory || cfg.APIPort != 8080 || cfg.LogLevel != "info" {
		t.Errorf("Expected memory/8080/info defaults, got: %s/%d/%s", cfg.StoreDriver, cfg.APIPort, cfg.LogLevel)
	}
	if cfg.OracleEnabled || cfg.OracleInterval != time.Hour {
		t.Errorf("Expected oracle off with hourly interval, got: %v/%v", cfg.OracleEnabled, cfg.OracleInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FEE_ACCOUNT", solana.NewWallet().PublicKey().String())
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/p.db")
	t.Setenv("ORACLE_ENABLED", "true")
	t.Setenv("ORACLE_INTERVAL_SEC", "60")
	t.Setenv("RETRY_MAX_RETRIES", "2")
	t.Setenv("RETRY_INITIAL_DELAY_MS", "50")
	t.Setenv("API_PORT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.StoreDriver != DriverSQLite || cfg.SQLitePath != "/tmp/p.db" {
		t.Errorf("Expected sqlite at /tmp/p.db, got: %s %s", cfg.StoreDriver, cfg.SQLitePath)
	}
	if !cfg.OracleEnabled || cfg.OracleInterval != time.Minute {
		t.Errorf("Expected oracle every minute, got: %v/%v", cfg.OracleEnabled, cfg.OracleInterval)
	}
	if cfg.Retry.MaxRetries != 2 || cfg.Retry.InitialDelay != 50*time.Millisecond {
		t.Errorf("Expected retry overrides, got: %+v", cfg.Retry)
	}
	if cfg.APIPort != 8080 {
		t.Errorf("Expected malformed port to fall back to 8080, got: %d", cfg.APIPort)
	}
}

func TestLoad_InvalidKey(t *testing.T) {
	t.Setenv("FEE_ACCOUNT", "not-base58-0OIl")
	if _, err := Load(); err == nil {
		t.Error("Expected error for malformed FEE_ACCOUNT, got: nil")
	}
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		t.Setenv("FEE_ACCOUNT", solana.NewWallet().PublicKey().String())
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		return cfg
	}

	// Derived addresses are off-curve and cannot collect fees
	pda, _, _ := solana.FindProgramAddress([][]byte{[]byte("pact_vault")}, solana.MustPublicKeyFromBase58(DefaultProgramID))

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing fee account", func(c *Config) { c.FeeAccount = solana.PublicKey{} }},
		{"program owned fee account", func(c *Config) { c.FeeAccount = pda }},
		{"missing program", func(c *Config) { c.ProgramID = solana.PublicKey{} }},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }},
		{"postgres without url", func(c *Config) { c.StoreDriver = DriverPostgres; c.DatabaseURL = "" }},
		{"bad port", func(c *Config) { c.APIPort = 70000 }},
		{"oracle without workers", func(c *Config) { c.OracleEnabled = true; c.OracleWorkers = 0 }},
		{"bad retry", func(c *Config) { c.Retry.MaxDelay = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got: nil")
			}
		})
	}
}
