package pact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/custody"
	"github.com/rohit0110/pact/internal/models"
	"github.com/rohit0110/pact/internal/settlement"
	"github.com/rohit0110/pact/internal/storage"
)

// Complete pays the fee and the whole winner share to winner and closes
// the pact. winner must be a participant that has not been eliminated.
func (e *Engine) Complete(ctx context.Context, pactAddress, winner solana.PublicKey) (*settlement.Receipt, error) {
	return e.complete(ctx, pactAddress, func(ctx context.Context, tx storage.Tx, pact *models.ChallengePact) (settlement.Plan, []solana.PublicKey, error) {
		if !pact.HasParticipant(winner) {
			return settlement.Plan{}, nil, fmt.Errorf("%w: %s", ErrNotParticipant, winner)
		}
		stake, err := e.loadStake(ctx, tx, pact, winner)
		if err != nil {
			return settlement.Plan{}, nil, err
		}
		if stake.IsEliminated {
			return settlement.Plan{}, nil, fmt.Errorf("%w: %s", ErrWinnerEliminated, winner)
		}
		plan := settlement.PlanWinner(pact.PrizePool, winner, e.feeAccount)
		return plan, []solana.PublicKey{winner}, nil
	})
}

// CompletePooled splits the winner share across every surviving
// participant. The earliest joined survivor takes the rounding remainder.
func (e *Engine) CompletePooled(ctx context.Context, pactAddress solana.PublicKey) (*settlement.Receipt, error) {
	return e.complete(ctx, pactAddress, func(ctx context.Context, tx storage.Tx, pact *models.ChallengePact) (settlement.Plan, []solana.PublicKey, error) {
		survivors, err := e.survivors(ctx, tx, pact)
		if err != nil {
			return settlement.Plan{}, nil, err
		}
		if len(survivors) == 0 {
			return settlement.Plan{}, nil, ErrNoSurvivors
		}
		plan, err := settlement.PlanPooled(pact.PrizePool, survivors, e.feeAccount)
		if err != nil {
			return settlement.Plan{}, nil, err
		}
		return plan, survivors, nil
	})
}

type planFunc func(ctx context.Context, tx storage.Tx, pact *models.ChallengePact) (settlement.Plan, []solana.PublicKey, error)

func (e *Engine) complete(ctx context.Context, pactAddress solana.PublicKey, buildPlan planFunc) (*settlement.Receipt, error) {
	var (
		receipt *settlement.Receipt
		winners []solana.PublicKey
		roster  []solana.PublicKey
	)
	err := e.update(ctx, "complete", pactAddress, func(tx storage.Tx) error {
		pact, err := e.loadPact(ctx, tx, pactAddress)
		if err != nil {
			return err
		}
		switch pact.Status {
		case models.PactActive:
		case models.PactCompleted:
			return ErrAlreadyCompleted
		default:
			return fmt.Errorf("%w: status %s", ErrAlreadyCompleted, pact.Status)
		}

		plan, paid, err := buildPlan(ctx, tx, pact)
		if err != nil {
			return err
		}
		receipt, err = e.execute(ctx, tx, pact, plan)
		if err != nil {
			return err
		}

		pact.Status = models.PactCompleted
		winners = paid
		roster = pact.Participants
		return tx.PutPact(ctx, pact)
	})
	if err != nil {
		return nil, err
	}

	share := receipt.Total - receipt.Fee
	slog.Info("🏆 Pact completed",
		"pact", pactAddress,
		"winners", len(winners),
		"paid", share,
		"fee", receipt.Fee,
		"receipt", receipt.ReceiptID)

	e.publish(ctx, models.PactEvent{
		Kind:         models.EventPactCompleted,
		Pact:         pactAddress,
		Participants: roster,
		Winners:      winners,
		Amount:       share,
		Fee:          receipt.Fee,
		OccurredAt:   receipt.ExecutedAt,
		Detail: map[string]interface{}{
			"receipt_id": receipt.ReceiptID,
			"plan":       string(receipt.Kind),
		},
	})
	return receipt, nil
}

// CancelPact refunds every staked participant and closes an Initialized
// pact. Only the creator may cancel.
func (e *Engine) CancelPact(ctx context.Context, pactAddress, caller solana.PublicKey) (*settlement.Receipt, error) {
	var (
		receipt *settlement.Receipt
		roster  []solana.PublicKey
	)
	err := e.update(ctx, "cancel", pactAddress, func(tx storage.Tx) error {
		pact, err := e.loadPact(ctx, tx, pactAddress)
		if err != nil {
			return err
		}
		switch pact.Status {
		case models.PactInitialized:
		case models.PactCompleted:
			return ErrAlreadyCompleted
		case models.PactCancelled:
			return ErrAlreadyCancelled
		default:
			return fmt.Errorf("%w: status %s", ErrNotInitialized, pact.Status)
		}
		if !pact.Creator.Equals(caller) {
			return fmt.Errorf("%w: %s", ErrNotCreator, caller)
		}

		var staked []solana.PublicKey
		for _, participant := range pact.Participants {
			stake, err := e.loadStake(ctx, tx, pact, participant)
			if err != nil {
				return err
			}
			if stake.HasStaked {
				staked = append(staked, participant)
			}
		}

		receipt, err = e.execute(ctx, tx, pact, settlement.PlanRefund(pact.Stake, staked))
		if err != nil {
			return err
		}

		pact.Status = models.PactCancelled
		pact.PrizePool = 0
		roster = pact.Participants
		return tx.PutPact(ctx, pact)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("↩️ Pact cancelled", "pact", pactAddress, "refunded", receipt.Total, "refunds", len(receipt.Payouts))
	e.publish(ctx, models.PactEvent{
		Kind:         models.EventPactCancelled,
		Pact:         pactAddress,
		Actor:        caller,
		Participants: roster,
		Amount:       receipt.Total,
		OccurredAt:   receipt.ExecutedAt,
		Detail:       map[string]interface{}{"receipt_id": receipt.ReceiptID},
	})
	return receipt, nil
}

// execute runs plan against the vault of pact inside tx
func (e *Engine) execute(ctx context.Context, tx storage.Tx, pact *models.ChallengePact, plan settlement.Plan) (*settlement.Receipt, error) {
	signer, err := e.vaultSigner(pact)
	if err != nil {
		return nil, err
	}
	receipt, err := settlement.Execute(ctx, signer, tx, plan)
	if errors.Is(err, custody.ErrInsufficientFunds) {
		return nil, fmt.Errorf("%w: %w", ErrInsufficientVaultBalance, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to settle pact %s: %w", pact.Address, err)
	}
	receipt.ExecutedAt = e.now()
	return receipt, nil
}

// survivors lists non-eliminated participants in join order
func (e *Engine) survivors(ctx context.Context, tx storage.Tx, pact *models.ChallengePact) ([]solana.PublicKey, error) {
	var out []solana.PublicKey
	for _, participant := range pact.Participants {
		stake, err := e.loadStake(ctx, tx, pact, participant)
		if err != nil {
			return nil, err
		}
		if !stake.IsEliminated {
			out = append(out, participant)
		}
	}
	return out, nil
}
