package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/custody"
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

func newSigner(t *testing.T) custody.VaultSigner {
	t.Helper()
	d, err := custody.NewDeriver(testProgramID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	pact, err := d.Pact("settle", solana.NewWallet().PublicKey())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	vault, err := d.Vault(pact.Address)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	signer, err := d.VaultSigner(pact.Address, vault.Address, vault.Bump)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	return signer
}

func TestSplit(t *testing.T) {
	tests := []struct {
		pool  uint64
		fee   uint64
		share uint64
	}{
		{0, 0, 0},
		{99, 0, 99},
		{100, 1, 99},
		{300, 3, 297},
		{1000, 10, 990},
		{1_000_000_001, 10_000_000, 990_000_001},
	}

	for _, tt := range tests {
		fee, share := Split(tt.pool)
		if fee != tt.fee || share != tt.share {
			t.Errorf("Expected Split(%d) = %d/%d, got: %d/%d", tt.pool, tt.fee, tt.share, fee, share)
		}
	}
}

func TestProRata(t *testing.T) {
	tests := []struct {
		name      string
		amount    uint64
		n         int
		share     uint64
		remainder uint64
	}{
		{"even", 300, 3, 100, 0},
		{"uneven", 297, 2, 148, 1},
		{"single", 99, 1, 99, 0},
		{"no recipients", 50, 0, 0, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			share, remainder := ProRata(tt.amount, tt.n)
			if share != tt.share || remainder != tt.remainder {
				t.Errorf("Expected %d rem %d, got: %d rem %d", tt.share, tt.remainder, share, remainder)
			}
		})
	}
}

func TestPlanPooled_RemainderToFirstWinner(t *testing.T) {
	fee := solana.NewWallet().PublicKey()
	a, b := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()

	plan, err := PlanPooled(300, []solana.PublicKey{a, b}, fee)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(plan.Payouts) != 3 {
		t.Fatalf("Expected 3 payouts, got: %d", len(plan.Payouts))
	}
	if plan.Payouts[0].Amount != 3 || plan.Payouts[0].Reason != ReasonFee {
		t.Errorf("Expected fee payout of 3, got: %+v", plan.Payouts[0])
	}
	if plan.Payouts[1].Amount != 149 || !plan.Payouts[1].To.Equals(a) {
		t.Errorf("Expected first winner to take 149, got: %+v", plan.Payouts[1])
	}
	if plan.Payouts[2].Amount != 148 {
		t.Errorf("Expected second winner to take 148, got: %+v", plan.Payouts[2])
	}
	if total, _ := plan.Total(); total != 300 {
		t.Errorf("Expected total 300, got: %d", total)
	}
}

func TestPlanPooled_NoWinners(t *testing.T) {
	if _, err := PlanPooled(300, nil, solana.NewWallet().PublicKey()); !errors.Is(err, ErrNoWinners) {
		t.Errorf("Expected ErrNoWinners, got: %v", err)
	}
}

func TestPlanTotal_Overflow(t *testing.T) {
	plan := Plan{Payouts: []Payout{{Amount: ^uint64(0)}, {Amount: 1}}}
	if _, err := plan.Total(); !errors.Is(err, ErrPlanOverflow) {
		t.Errorf("Expected ErrPlanOverflow, got: %v", err)
	}
}

func TestExecute_WinnerTakesAll(t *testing.T) {
	ctx := context.Background()
	signer := newSigner(t)
	winner, feeAccount := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	accounts := mapAccounts{signer.Vault(): 300}

	receipt, err := Execute(ctx, signer, accounts, PlanWinner(300, winner, feeAccount))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if accounts[winner] != 297 || accounts[feeAccount] != 3 || accounts[signer.Vault()] != 0 {
		t.Errorf("Expected 297/3/0, got: winner=%d fee=%d vault=%d", accounts[winner], accounts[feeAccount], accounts[signer.Vault()])
	}
	if receipt.ReceiptID == "" || receipt.Total != 300 || receipt.Fee != 3 || receipt.Kind != KindWinner {
		t.Errorf("Expected populated receipt, got: %+v", receipt)
	}
	if !receipt.Pact.Equals(signer.Pact()) {
		t.Errorf("Expected receipt for pact %s, got: %s", signer.Pact(), receipt.Pact)
	}
}

func TestExecute_ZeroFeeSkipsTransfer(t *testing.T) {
	ctx := context.Background()
	signer := newSigner(t)
	winner, feeAccount := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	accounts := mapAccounts{signer.Vault(): 99}

	receipt, err := Execute(ctx, signer, accounts, PlanWinner(99, winner, feeAccount))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, touched := accounts[feeAccount]; touched {
		t.Error("Expected zero fee not to touch the fee account")
	}
	if accounts[winner] != 99 || len(receipt.Payouts) != 2 {
		t.Errorf("Expected winner 99 and both payouts recorded, got: %d, %d payouts", accounts[winner], len(receipt.Payouts))
	}
}

func TestExecute_VaultMustMatchPlan(t *testing.T) {
	ctx := context.Background()
	winner, feeAccount := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()

	tests := []struct {
		name    string
		balance uint64
		wantErr error
	}{
		{"short vault", 200, custody.ErrInsufficientFunds},
		{"surplus vault", 400, ErrVaultMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := newSigner(t)
			accounts := mapAccounts{signer.Vault(): tt.balance}
			_, err := Execute(ctx, signer, accounts, PlanWinner(300, winner, feeAccount))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got: %v", tt.wantErr, err)
			}
			if accounts[signer.Vault()] != tt.balance || accounts[winner] != 0 {
				t.Errorf("Expected no funds moved, got: vault=%d winner=%d", accounts[signer.Vault()], accounts[winner])
			}
		})
	}
}

func TestExecute_RefusesZeroSigner(t *testing.T) {
	accounts := mapAccounts{}
	_, err := Execute(context.Background(), custody.VaultSigner{}, accounts, PlanRefund(0, nil))
	if !errors.Is(err, custody.ErrInvalidBump) {
		t.Errorf("Expected ErrInvalidBump, got: %v", err)
	}
}

func TestExecute_Refund(t *testing.T) {
	ctx := context.Background()
	signer := newSigner(t)
	a, b := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	accounts := mapAccounts{signer.Vault(): 200}

	receipt, err := Execute(ctx, signer, accounts, PlanRefund(100, []solana.PublicKey{a, b}))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if accounts[a] != 100 || accounts[b] != 100 || receipt.Fee != 0 {
		t.Errorf("Expected 100 each and no fee, got: a=%d b=%d fee=%d", accounts[a], accounts[b], receipt.Fee)
	}
}
