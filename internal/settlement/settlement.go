// Package settlement computes and executes vault payouts.
//
// A plan always drains the vault exactly: fees, winner shares and refunds
// add up to the vault balance or execution is refused.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/rohit0110/pact/internal/custody"
)

// FeeDivisor takes one percent of the prize pool, rounded down
const FeeDivisor = 100

var (
	ErrNoWinners     = errors.New("no winners to pay")
	ErrVaultMismatch = errors.New("vault balance does not match payout total")
	ErrPlanOverflow  = errors.New("payout total overflows")
)

// Kind identifies how a plan distributes the vault
type Kind string

const (
	KindWinner Kind = "winner"
	KindPooled Kind = "pooled"
	KindRefund Kind = "refund"
)

// Reason labels a single payout
type Reason string

const (
	ReasonFee    Reason = "fee"
	ReasonWinner Reason = "winner"
	ReasonShare  Reason = "share"
	ReasonRefund Reason = "refund"
)

// Payout is one vault debit
type Payout struct {
	To     solana.PublicKey `json:"to"`
	Amount uint64           `json:"amount"`
	Reason Reason           `json:"reason"`
}

// Plan is an ordered list of payouts
type Plan struct {
	Kind    Kind     `json:"kind"`
	Payouts []Payout `json:"payouts"`
}

// Total sums the payouts
func (p Plan) Total() (uint64, error) {
	var total uint64
	for _, payout := range p.Payouts {
		sum, carry := bits.Add64(total, payout.Amount, 0)
		if carry != 0 {
			return 0, ErrPlanOverflow
		}
		total = sum
	}
	return total, nil
}

// Fee returns the amount routed to the fee account
func (p Plan) Fee() uint64 {
	var fee uint64
	for _, payout := range p.Payouts {
		if payout.Reason == ReasonFee {
			fee += payout.Amount
		}
	}
	return fee
}

// Receipt records an executed plan
type Receipt struct {
	ReceiptID  string           `json:"receipt_id"`
	Pact       solana.PublicKey `json:"pact"`
	Vault      solana.PublicKey `json:"vault"`
	Kind       Kind             `json:"kind"`
	Payouts    []Payout         `json:"payouts"`
	Total      uint64           `json:"total"`
	Fee        uint64           `json:"fee"`
	ExecutedAt time.Time        `json:"executed_at"`
}

// Split divides a prize pool into the protocol fee and the winner share.
// fee + share == pool for every pool.
func Split(pool uint64) (fee, share uint64) {
	fee = pool / FeeDivisor
	return fee, pool - fee
}

// ProRata divides amount into n equal shares and returns the leftover
func ProRata(amount uint64, n int) (share, remainder uint64) {
	if n <= 0 {
		return 0, amount
	}
	share = amount / uint64(n)
	return share, amount - share*uint64(n)
}

// PlanWinner pays the fee then the whole winner share to one winner
func PlanWinner(pool uint64, winner, feeAccount solana.PublicKey) Plan {
	fee, share := Split(pool)
	return Plan{
		Kind: KindWinner,
		Payouts: []Payout{
			{To: feeAccount, Amount: fee, Reason: ReasonFee},
			{To: winner, Amount: share, Reason: ReasonWinner},
		},
	}
}

// PlanPooled pays the fee then splits the winner share across winners.
// The first winner also takes the integer remainder.
func PlanPooled(pool uint64, winners []solana.PublicKey, feeAccount solana.PublicKey) (Plan, error) {
	if len(winners) == 0 {
		return Plan{}, ErrNoWinners
	}
	fee, share := Split(pool)
	each, remainder := ProRata(share, len(winners))

	payouts := make([]Payout, 0, len(winners)+1)
	payouts = append(payouts, Payout{To: feeAccount, Amount: fee, Reason: ReasonFee})
	for i, w := range winners {
		amount := each
		if i == 0 {
			amount += remainder
		}
		payouts = append(payouts, Payout{To: w, Amount: amount, Reason: ReasonShare})
	}
	return Plan{Kind: KindPooled, Payouts: payouts}, nil
}

// PlanRefund returns stake to every staked participant, no fee
func PlanRefund(stake uint64, staked []solana.PublicKey) Plan {
	payouts := make([]Payout, 0, len(staked))
	for _, p := range staked {
		payouts = append(payouts, Payout{To: p, Amount: stake, Reason: ReasonRefund})
	}
	return Plan{Kind: KindRefund, Payouts: payouts}
}

// Execute performs every payout of plan through the vault signer.
// The vault must hold exactly plan.Total(). A failing payout aborts and
// the caller is expected to discard the enclosing unit of work.
func Execute(ctx context.Context, signer custody.VaultSigner, accounts custody.Accounts, plan Plan) (*Receipt, error) {
	total, err := plan.Total()
	if err != nil {
		return nil, err
	}

	balance, err := signer.Balance(ctx, accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault balance: %w", err)
	}
	if balance < total {
		return nil, fmt.Errorf("%w: vault holds %d, plan needs %d", custody.ErrInsufficientFunds, balance, total)
	}
	if balance > total {
		return nil, fmt.Errorf("%w: vault holds %d, plan pays %d", ErrVaultMismatch, balance, total)
	}

	for _, payout := range plan.Payouts {
		if payout.Amount == 0 {
			continue
		}
		if err := signer.Transfer(ctx, accounts, payout.To, payout.Amount); err != nil {
			return nil, fmt.Errorf("failed to pay %s %d to %s: %w", payout.Reason, payout.Amount, payout.To, err)
		}
	}

	return &Receipt{
		ReceiptID:  uuid.New().String(),
		Pact:       signer.Pact(),
		Vault:      signer.Vault(),
		Kind:       plan.Kind,
		Payouts:    append([]Payout(nil), plan.Payouts...),
		Total:      total,
		Fee:        plan.Fee(),
		ExecutedAt: time.Now().UTC(),
	}, nil
}
