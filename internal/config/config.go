package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/custody"
	"github.com/rohit0110/pact/internal/retry"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultProgramID is the deployment the derivations default to
const DefaultProgramID = "HBSRo9sKjWmqTteMRPjVF2xcqratjhF5Hu5GozqctNA4"

type Config struct {
	// Program that owns every derived address
	ProgramID solana.PublicKey

	// Wallet that collects settlement fees
	FeeAccount solana.PublicKey

	// Storage backend: memory, postgres or sqlite
	StoreDriver string
	DatabaseURL string
	SQLitePath  string
	DBMaxConns  int32

	// HTTP API
	APIPort int

	// debug, info, warn or error
	LogLevel string

	// Elimination sweep
	OracleEnabled   bool
	OracleInterval  time.Duration
	OracleWorkers   int
	OracleVerifyRPS float64

	// Follow-up queue between the engine and the services
	EventQueueSize int

	// Retries for follow-ups and startup connections
	Retry retry.Config
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	programID, err := getEnvAsKey("PROGRAM_ID", DefaultProgramID)
	if err != nil {
		return nil, err
	}
	feeAccount, err := getEnvAsKey("FEE_ACCOUNT", "")
	if err != nil {
		return nil, err
	}

	defaults := retry.DefaultConfig()
	return &Config{
		ProgramID:       programID,
		FeeAccount:      feeAccount,
		StoreDriver:     strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		SQLitePath:      getEnv("SQLITE_PATH", "data/pact.db"),
		DBMaxConns:      int32(getEnvAsInt("DB_MAX_CONNS", 10)),
		APIPort:         getEnvAsInt("API_PORT", 8080),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		OracleEnabled:   getEnvAsBool("ORACLE_ENABLED", false),
		OracleInterval:  time.Duration(getEnvAsInt("ORACLE_INTERVAL_SEC", 3600)) * time.Second,
		OracleWorkers:   getEnvAsInt("ORACLE_WORKERS", 4),
		OracleVerifyRPS: getEnvAsFloat("ORACLE_VERIFY_RPS", 0),
		EventQueueSize:  getEnvAsInt("EVENT_QUEUE_SIZE", 1024),
		Retry: retry.Config{
			Enabled:      getEnvAsBool("RETRY_ENABLED", defaults.Enabled),
			MaxRetries:   getEnvAsInt("RETRY_MAX_RETRIES", defaults.MaxRetries),
			InitialDelay: time.Duration(getEnvAsInt("RETRY_INITIAL_DELAY_MS", int(defaults.InitialDelay/time.Millisecond))) * time.Millisecond,
			MaxDelay:     time.Duration(getEnvAsInt("RETRY_MAX_DELAY_MS", int(defaults.MaxDelay/time.Millisecond))) * time.Millisecond,
		},
	}, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ProgramID.IsZero() {
		return fmt.Errorf("PROGRAM_ID is required")
	}
	if c.FeeAccount.IsZero() {
		return fmt.Errorf("FEE_ACCOUNT is required")
	}
	if custody.IsProgramOwned(c.FeeAccount) {
		return fmt.Errorf("FEE_ACCOUNT must be a wallet address, %s is program owned", c.FeeAccount)
	}

	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
		if c.DBMaxConns <= 0 {
			return fmt.Errorf("DB_MAX_CONNS must be > 0")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API_PORT out of range: %d", c.APIPort)
	}
	if c.OracleEnabled {
		if c.OracleInterval <= 0 {
			return fmt.Errorf("ORACLE_INTERVAL_SEC must be > 0")
		}
		if c.OracleWorkers <= 0 {
			return fmt.Errorf("ORACLE_WORKERS must be > 0")
		}
		if c.OracleVerifyRPS < 0 {
			return fmt.Errorf("ORACLE_VERIFY_RPS must be >= 0")
		}
	}
	return c.Retry.Validate()
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// Helper: get bool from env
func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// Helper: get int from env
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// Helper: get float from env
func getEnvAsFloat(key string, defaultVal float64) float64 {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return defaultVal
	}
	return val
}

// Helper: get base58 key from env. An empty value yields the zero key
func getEnvAsKey(key, defaultVal string) (solana.PublicKey, error) {
	valStr := getEnv(key, defaultVal)
	if valStr == "" {
		return solana.PublicKey{}, nil
	}
	val, err := solana.PublicKeyFromBase58(valStr)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return val, nil
}
