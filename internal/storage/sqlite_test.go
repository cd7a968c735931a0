package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) backend {
		path := filepath.Join(t.TempDir(), "pact.db")
		s, err := OpenSQLite(context.Background(), path)
		if err != nil {
			t.Fatalf("Expected no error opening sqlite, got: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOpenSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "pact.db")
	account := newKey()

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := s.Update(ctx, account, func(tx Tx) error { return tx.SetBalance(ctx, account, 42) }); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	_ = s.Close()

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("Expected no error on reopen, got: %v", err)
	}
	defer s.Close()
	_ = s.View(ctx, func(tx Tx) error {
		if balance, _ := tx.Balance(ctx, account); balance != 42 {
			t.Errorf("Expected persisted balance 42, got: %d", balance)
		}
		return nil
	})
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(context.Background(), ""); err == nil {
		t.Error("Expected error for empty path, got: nil")
	}
}

func TestSQLiteStore_RejectsOversizedAmounts(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "pact.db"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer s.Close()

	account := newKey()
	err = s.Update(ctx, account, func(tx Tx) error { return tx.SetBalance(ctx, account, 1<<63) })
	if err == nil {
		t.Error("Expected out of range error, got: nil")
	}
}
