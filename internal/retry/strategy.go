package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Strategy defines how a follow-up operation is retried
type Strategy interface {
	// Execute runs op under the strategy. name labels log lines.
	Execute(ctx context.Context, name string, op Operation) error

	// Name returns the name of the strategy for logging
	Name() string
}

// Operation is a unit of work that can be attempted more than once
type Operation func(ctx context.Context) error

// Config holds retry configuration
type Config struct {
	Enabled      bool          // Enable/disable retries
	MaxRetries   int           // Attempts after the first one
	InitialDelay time.Duration // Delay before the first retry
	MaxDelay     time.Duration // Cap on the doubled delay
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		MaxRetries:   5,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     10 * time.Second,
	}
}

// Validate checks the configuration is usable
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("RETRY_MAX_RETRIES must be >= 0, got %d", c.MaxRetries)
	}
	if c.InitialDelay <= 0 {
		return fmt.Errorf("RETRY_INITIAL_DELAY_MS must be > 0")
	}
	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("RETRY_MAX_DELAY_MS must be >= RETRY_INITIAL_DELAY_MS")
	}
	return nil
}

// NewStrategy creates a retry strategy based on configuration
func NewStrategy(config Config) Strategy {
	if !config.Enabled {
		slog.Info("Retry disabled, using NoRetryStrategy")
		return NewNoRetryStrategy()
	}

	slog.Info("Retry enabled, using ExponentialBackoffStrategy",
		"max_retries", config.MaxRetries,
		"initial_delay", config.InitialDelay,
		"max_delay", config.MaxDelay,
	)

	return NewExponentialBackoffStrategy(config.MaxRetries, config.InitialDelay, config.MaxDelay)
}
