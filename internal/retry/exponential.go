package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExponentialBackoffStrategy retries recoverable failures, doubling the
// delay after every attempt up to maxDelay
type ExponentialBackoffStrategy struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
	recoverable  func(error) bool
}

// NewExponentialBackoffStrategy creates a new ExponentialBackoffStrategy
func NewExponentialBackoffStrategy(maxRetries int, initialDelay, maxDelay time.Duration) *ExponentialBackoffStrategy {
	return &ExponentialBackoffStrategy{
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		recoverable:  IsRecoverable,
	}
}

// WithClassifier replaces the recoverable-error test
func (s *ExponentialBackoffStrategy) WithClassifier(recoverable func(error) bool) *ExponentialBackoffStrategy {
	s.recoverable = recoverable
	return s
}

// Execute runs op with exponential backoff retry logic
func (s *ExponentialBackoffStrategy) Execute(ctx context.Context, name string, op Operation) error {
	var lastErr error
	delay := s.initialDelay

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 0 {
				slog.Info("Operation succeeded after retry",
					"operation", name,
					"attempt", attempt+1)
			}
			return nil
		}
		lastErr = err

		if !s.recoverable(err) {
			slog.Debug("Non-recoverable error, failing immediately",
				"operation", name,
				"error", err,
				"attempt", attempt+1)
			return err
		}

		if attempt >= s.maxRetries {
			break
		}

		slog.Warn("Operation failed, retrying with exponential backoff",
			"operation", name,
			"attempt", attempt+1,
			"max_attempts", s.maxRetries+1,
			"retry_in", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-timer.C:
			delay *= 2
			if delay > s.maxDelay {
				delay = s.maxDelay
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, s.maxRetries+1, lastErr)
}

// Name returns the strategy name
func (s *ExponentialBackoffStrategy) Name() string {
	return "ExponentialBackoff"
}
