package custody

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
)

var testProgramID = solana.MustPublicKeyFromBase58("HBSRo9sKjWmqTteMRPjVF2xcqratjhF5Hu5GozqctNA4")

type mapAccounts map[solana.PublicKey]uint64

func (m mapAccounts) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	return m[account], nil
}

func (m mapAccounts) SetBalance(ctx context.Context, account solana.PublicKey, amount uint64) error {
	m[account] = amount
	return nil
}

func newTestDeriver(t *testing.T) Deriver {
	t.Helper()
	d, err := NewDeriver(testProgramID)
	if err != nil {
		t.Fatalf("NewDeriver: %v", err)
	}
	return d
}

func TestDeriver_Deterministic(t *testing.T) {
	d := newTestDeriver(t)
	creator := solana.NewWallet().PublicKey()

	first, err := d.Pact("Morning Run", creator)
	if err != nil {
		t.Fatalf("Pact: %v", err)
	}
	second, err := d.Pact("Morning Run", creator)
	if err != nil {
		t.Fatalf("Pact: %v", err)
	}
	if !first.Address.Equals(second.Address) || first.Bump != second.Bump {
		t.Errorf("Expected identical derivations, got %s/%d and %s/%d",
			first.Address, first.Bump, second.Address, second.Bump)
	}

	other, err := d.Pact("Evening Run", creator)
	if err != nil {
		t.Fatalf("Pact: %v", err)
	}
	if other.Address.Equals(first.Address) {
		t.Error("Expected different names to derive different addresses")
	}
}

func TestDeriver_LabelsNamespaceAddresses(t *testing.T) {
	d := newTestDeriver(t)
	key := solana.NewWallet().PublicKey()

	vault, err := d.Vault(key)
	if err != nil {
		t.Fatalf("Vault: %v", err)
	}
	profile, err := d.Profile(key)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if vault.Address.Equals(profile.Address) {
		t.Error("Expected vault and profile derivations of the same key to differ")
	}
}

func TestDeriver_ProgramScoped(t *testing.T) {
	d := newTestDeriver(t)
	other, err := NewDeriver(solana.NewWallet().PublicKey())
	if err != nil {
		t.Fatalf("NewDeriver: %v", err)
	}
	pact := solana.NewWallet().PublicKey()

	a, _ := d.Vault(pact)
	b, _ := other.Vault(pact)
	if a.Address.Equals(b.Address) {
		t.Error("Expected different programs to derive different vaults")
	}
}

func TestDeriver_SeedBounds(t *testing.T) {
	d := newTestDeriver(t)
	creator := solana.NewWallet().PublicKey()

	if _, err := d.Pact(strings.Repeat("a", 32), creator); err != nil {
		t.Errorf("Expected 32 byte name to derive, got: %v", err)
	}
	if _, err := d.Pact(strings.Repeat("a", 33), creator); !errors.Is(err, ErrSeedTooLong) {
		t.Errorf("Expected ErrSeedTooLong, got: %v", err)
	}
	if _, err := d.Pact("", creator); !errors.Is(err, ErrEmptySeed) {
		t.Errorf("Expected ErrEmptySeed, got: %v", err)
	}
}

func TestNewDeriver_RequiresProgramID(t *testing.T) {
	if _, err := NewDeriver(solana.PublicKey{}); !errors.Is(err, ErrZeroProgramID) {
		t.Errorf("Expected ErrZeroProgramID, got: %v", err)
	}
}

func TestIsProgramOwned(t *testing.T) {
	d := newTestDeriver(t)
	wallet := solana.NewWallet().PublicKey()
	vault, _ := d.Vault(wallet)

	if IsProgramOwned(wallet) {
		t.Error("Expected wallet key to be on curve")
	}
	if !IsProgramOwned(vault.Address) {
		t.Error("Expected derived vault to be off curve")
	}
}

func TestVaultSigner_RequiresExactProof(t *testing.T) {
	d := newTestDeriver(t)
	pact := solana.NewWallet().PublicKey()
	vault, err := d.Vault(pact)
	if err != nil {
		t.Fatalf("Vault: %v", err)
	}

	signer, err := d.VaultSigner(pact, vault.Address, vault.Bump)
	if err != nil {
		t.Fatalf("VaultSigner: %v", err)
	}
	if !signer.Vault().Equals(vault.Address) || signer.Bump() != vault.Bump {
		t.Errorf("Expected signer for %s, got %s", vault.Address, signer.Vault())
	}

	if _, err := d.VaultSigner(pact, vault.Address, vault.Bump-1); !errors.Is(err, ErrInvalidBump) {
		t.Errorf("Expected ErrInvalidBump for wrong bump, got: %v", err)
	}
	otherPact := solana.NewWallet().PublicKey()
	if _, err := d.VaultSigner(otherPact, vault.Address, vault.Bump); !errors.Is(err, ErrInvalidBump) {
		t.Errorf("Expected ErrInvalidBump for foreign pact, got: %v", err)
	}
}

func TestVaultSigner_ZeroValueAuthorizesNothing(t *testing.T) {
	accounts := mapAccounts{}
	var signer VaultSigner
	err := signer.Transfer(context.Background(), accounts, solana.NewWallet().PublicKey(), 1)
	if !errors.Is(err, ErrInvalidBump) {
		t.Errorf("Expected ErrInvalidBump, got: %v", err)
	}
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	d := newTestDeriver(t)
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()
	pact := solana.NewWallet().PublicKey()
	vault, _ := d.Vault(pact)

	tests := []struct {
		name     string
		from, to solana.PublicKey
		balances mapAccounts
		amount   uint64
		wantErr  error
		wantFrom uint64
		wantTo   uint64
	}{
		{"wallet to wallet", alice, bob, mapAccounts{alice: 100}, 40, nil, 60, 40},
		{"wallet to vault", alice, vault.Address, mapAccounts{alice: 100}, 100, nil, 0, 100},
		{"zero amount is a no-op", alice, bob, mapAccounts{alice: 5}, 0, nil, 5, 0},
		{"insufficient funds", alice, bob, mapAccounts{alice: 10}, 11, ErrInsufficientFunds, 10, 0},
		{"vault source refused", vault.Address, bob, mapAccounts{vault.Address: 50}, 10, ErrProgramOwned, 50, 0},
		{"self transfer", alice, alice, mapAccounts{alice: 10}, 1, ErrSelfTransfer, 10, 10},
		{"overflow", alice, bob, mapAccounts{alice: 10, bob: math.MaxUint64}, 1, ErrBalanceOverflow, 10, math.MaxUint64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Transfer(ctx, tt.balances, tt.from, tt.to, tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected error %v, got: %v", tt.wantErr, err)
			}
			if got := tt.balances[tt.from]; got != tt.wantFrom {
				t.Errorf("Expected source balance %d, got: %d", tt.wantFrom, got)
			}
			if got := tt.balances[tt.to]; got != tt.wantTo {
				t.Errorf("Expected destination balance %d, got: %d", tt.wantTo, got)
			}
		})
	}
}

func TestVaultSigner_Transfer(t *testing.T) {
	ctx := context.Background()
	d := newTestDeriver(t)
	pact := solana.NewWallet().PublicKey()
	winner := solana.NewWallet().PublicKey()
	vault, _ := d.Vault(pact)
	signer, err := d.VaultSigner(pact, vault.Address, vault.Bump)
	if err != nil {
		t.Fatalf("VaultSigner: %v", err)
	}

	accounts := mapAccounts{vault.Address: 300}
	if err := signer.Transfer(ctx, accounts, winner, 297); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if accounts[vault.Address] != 3 || accounts[winner] != 297 {
		t.Errorf("Expected vault=3 winner=297, got vault=%d winner=%d", accounts[vault.Address], accounts[winner])
	}

	if err := signer.Transfer(ctx, accounts, winner, 4); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Expected ErrInsufficientFunds, got: %v", err)
	}
}

func TestDeposit(t *testing.T) {
	ctx := context.Background()
	d := newTestDeriver(t)
	alice := solana.NewWallet().PublicKey()
	vault, _ := d.Vault(alice)
	accounts := mapAccounts{}

	if err := Deposit(ctx, accounts, alice, 500); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if accounts[alice] != 500 {
		t.Errorf("Expected 500, got: %d", accounts[alice])
	}
	if err := Deposit(ctx, accounts, vault.Address, 1); !errors.Is(err, ErrProgramOwned) {
		t.Errorf("Expected ErrProgramOwned, got: %v", err)
	}
}
