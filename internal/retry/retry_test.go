package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestExponentialBackoffStrategy_Success(t *testing.T) {
	strategy := NewExponentialBackoffStrategy(3, 10*time.Millisecond, 100*time.Millisecond)

	err := strategy.Execute(context.Background(), "test", func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

func TestExponentialBackoffStrategy_SuccessAfterRetries(t *testing.T) {
	strategy := NewExponentialBackoffStrategy(5, time.Millisecond, 10*time.Millisecond)

	attempts := 0
	err := strategy.Execute(context.Background(), "test", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Expected no error after retries, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestExponentialBackoffStrategy_NonRecoverableError(t *testing.T) {
	strategy := NewExponentialBackoffStrategy(5, time.Millisecond, 10*time.Millisecond)

	attempts := 0
	sentinel := errors.New("profile name exceeds 32 bytes")
	err := strategy.Execute(context.Background(), "test", func(ctx context.Context) error {
		attempts++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Expected the original error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected only 1 attempt for non-recoverable error, got: %d", attempts)
	}
}

func TestExponentialBackoffStrategy_MaxRetriesExceeded(t *testing.T) {
	strategy := NewExponentialBackoffStrategy(3, time.Millisecond, 10*time.Millisecond)

	attempts := 0
	err := strategy.Execute(context.Background(), "test", func(ctx context.Context) error {
		attempts++
		return errors.New("connection refused")
	})
	if err == nil {
		t.Error("Expected error after max retries exceeded")
	}

	expectedAttempts := 4 // 1 initial + 3 retries
	if attempts != expectedAttempts {
		t.Errorf("Expected %d attempts, got: %d", expectedAttempts, attempts)
	}
}

func TestExponentialBackoffStrategy_ContextCancellation(t *testing.T) {
	strategy := NewExponentialBackoffStrategy(10, 100*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	attempts := 0
	err := strategy.Execute(ctx, "test", func(ctx context.Context) error {
		attempts++
		return errors.New("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
	if attempts < 1 {
		t.Errorf("Expected at least 1 attempt, got: %d", attempts)
	}
}

func TestExponentialBackoffStrategy_CustomClassifier(t *testing.T) {
	strategy := NewExponentialBackoffStrategy(2, time.Millisecond, time.Millisecond).
		WithClassifier(func(error) bool { return true })

	attempts := 0
	_ = strategy.Execute(context.Background(), "test", func(ctx context.Context) error {
		attempts++
		return errors.New("anything")
	})
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestNoRetryStrategy(t *testing.T) {
	attempts := 0
	err := NewNoRetryStrategy().Execute(context.Background(), "test", func(ctx context.Context) error {
		attempts++
		return errors.New("connection refused")
	})
	if err == nil || attempts != 1 {
		t.Errorf("Expected one failing attempt, got: %d (%v)", attempts, err)
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection reset", errors.New("connection reset by peer"), true},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"wrapped timeout", fmt.Errorf("failed to save: %w", errors.New("i/o timeout")), true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", fmt.Errorf("failed to commit: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"invalid data", errors.New("invalid data format"), false},
		{"permission denied", errors.New("permission denied"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecoverable(tt.err); got != tt.expected {
				t.Errorf("IsRecoverable(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"disabled ignores values", Config{Enabled: false, MaxRetries: -1}, false},
		{"negative retries", Config{Enabled: true, MaxRetries: -1, InitialDelay: time.Second, MaxDelay: time.Second}, true},
		{"zero delay", Config{Enabled: true, MaxRetries: 1, MaxDelay: time.Second}, true},
		{"max below initial", Config{Enabled: true, MaxRetries: 1, InitialDelay: time.Second, MaxDelay: time.Millisecond}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got: %v", tt.wantErr, err)
			}
		})
	}
}
