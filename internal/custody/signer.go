package custody

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// VaultSigner is the capability to spend from one pact vault.
// The zero value authorizes nothing; obtain one from Deriver.VaultSigner.
type VaultSigner struct {
	pact  solana.PublicKey
	vault solana.PublicKey
	bump  uint8
	valid bool
}

// Pact returns the pact the vault is bound to
func (s VaultSigner) Pact() solana.PublicKey { return s.pact }

// Vault returns the vault address
func (s VaultSigner) Vault() solana.PublicKey { return s.vault }

// Bump returns the derivation proof
func (s VaultSigner) Bump() uint8 { return s.bump }

// Balance reads the vault balance
func (s VaultSigner) Balance(ctx context.Context, accounts Accounts) (uint64, error) {
	if !s.valid {
		return 0, ErrInvalidBump
	}
	return accounts.Balance(ctx, s.vault)
}

// Transfer debits the vault in favour of to
func (s VaultSigner) Transfer(ctx context.Context, accounts Accounts, to solana.PublicKey, amount uint64) error {
	if !s.valid {
		return ErrInvalidBump
	}
	return move(ctx, accounts, s.vault, to, amount)
}
