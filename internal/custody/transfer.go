package custody

import (
	"context"
	"errors"
	"fmt"
	"math"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
	ErrProgramOwned      = errors.New("account is program owned")
	ErrSelfTransfer      = errors.New("source and destination are the same account")
)

// Accounts is the balance view a transfer runs against.
// Storage transactions implement it; unknown accounts read as zero.
type Accounts interface {
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)
	SetBalance(ctx context.Context, account solana.PublicKey, amount uint64) error
}

// IsProgramOwned reports whether key lies off the ed25519 curve,
// which is true for every derived address.
func IsProgramOwned(key solana.PublicKey) bool {
	_, err := new(edwards25519.Point).SetBytes(key.Bytes())
	return err != nil
}

// Transfer moves amount from a wallet account to any account.
// The wallet signature is verified by the caller; program-owned sources
// are refused and can only be spent through a VaultSigner.
func Transfer(ctx context.Context, accounts Accounts, from, to solana.PublicKey, amount uint64) error {
	if IsProgramOwned(from) {
		return fmt.Errorf("%w: %s", ErrProgramOwned, from)
	}
	return move(ctx, accounts, from, to, amount)
}

// Deposit credits a wallet account from outside the custody layer.
// Program-owned accounts only receive funds through Transfer.
func Deposit(ctx context.Context, accounts Accounts, to solana.PublicKey, amount uint64) error {
	if IsProgramOwned(to) {
		return fmt.Errorf("%w: %s", ErrProgramOwned, to)
	}
	return credit(ctx, accounts, to, amount)
}

// move reads both balances before writing either, so a failure leaves
// both accounts untouched.
func move(ctx context.Context, accounts Accounts, from, to solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from.Equals(to) {
		return ErrSelfTransfer
	}

	fromBalance, err := accounts.Balance(ctx, from)
	if err != nil {
		return fmt.Errorf("failed to read balance of %s: %w", from, err)
	}
	if fromBalance < amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, from, fromBalance, amount)
	}

	toBalance, err := accounts.Balance(ctx, to)
	if err != nil {
		return fmt.Errorf("failed to read balance of %s: %w", to, err)
	}
	if toBalance > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, to)
	}

	if err := accounts.SetBalance(ctx, from, fromBalance-amount); err != nil {
		return fmt.Errorf("failed to debit %s: %w", from, err)
	}
	if err := accounts.SetBalance(ctx, to, toBalance+amount); err != nil {
		return fmt.Errorf("failed to credit %s: %w", to, err)
	}
	return nil
}

func credit(ctx context.Context, accounts Accounts, to solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	balance, err := accounts.Balance(ctx, to)
	if err != nil {
		return fmt.Errorf("failed to read balance of %s: %w", to, err)
	}
	if balance > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, to)
	}
	return accounts.SetBalance(ctx, to, balance+amount)
}
