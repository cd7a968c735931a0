package pact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/custody"
	"github.com/rohit0110/pact/internal/models"
	"github.com/rohit0110/pact/internal/storage"
)

// Participant pairs a roster entry with its stake record
type Participant struct {
	Index int
	Key   solana.PublicKey
	Stake *models.ParticipantStake
}

// GetPact returns a snapshot of the pact at address
func (e *Engine) GetPact(ctx context.Context, address solana.PublicKey) (*models.ChallengePact, error) {
	var pact *models.ChallengePact
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var err error
		pact, err = e.loadPact(ctx, tx, address)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("pact read", "pact", address, "status", pact.Status)
	return pact, nil
}

// GetStake returns the stake record of participant in pact
func (e *Engine) GetStake(ctx context.Context, pactAddress, participant solana.PublicKey) (*models.ParticipantStake, error) {
	var stake *models.ParticipantStake
	err := e.store.View(ctx, func(tx storage.Tx) error {
		pact, err := e.loadPact(ctx, tx, pactAddress)
		if err != nil {
			return err
		}
		if !pact.HasParticipant(participant) {
			return fmt.Errorf("%w: %s", ErrNotParticipant, participant)
		}
		stake, err = e.loadStake(ctx, tx, pact, participant)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stake, nil
}

// ListPacts returns one page of pacts plus the total matching count
func (e *Engine) ListPacts(ctx context.Context, filter models.PactFilter) ([]*models.ChallengePact, int, error) {
	var (
		pacts []*models.ChallengePact
		total int
	)
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var err error
		if pacts, err = tx.ListPacts(ctx, filter); err != nil {
			return err
		}
		total, err = tx.CountPacts(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pacts: %w", err)
	}
	return pacts, total, nil
}

// ListParticipants returns the roster in join order with stake records
func (e *Engine) ListParticipants(ctx context.Context, pactAddress solana.PublicKey) ([]Participant, error) {
	var participants []Participant
	err := e.store.View(ctx, func(tx storage.Tx) error {
		pact, err := e.loadPact(ctx, tx, pactAddress)
		if err != nil {
			return err
		}
		participants = make([]Participant, 0, len(pact.Participants))
		for i, key := range pact.Participants {
			stake, err := e.loadStake(ctx, tx, pact, key)
			if err != nil {
				return err
			}
			participants = append(participants, Participant{Index: i, Key: key, Stake: stake})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// Balance reads the custody balance of any account, vaults included
func (e *Engine) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var balance uint64
	err := e.store.View(ctx, func(tx storage.Tx) error {
		var err error
		balance, err = tx.Balance(ctx, account)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return balance, nil
}

// Deposit credits a wallet account. It is the only way funds enter custody;
// vaults are funded by Stake alone.
func (e *Engine) Deposit(ctx context.Context, account solana.PublicKey, amount uint64) (uint64, error) {
	if err := checkWallet(account); err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, ErrInvalidAmount
	}

	var balance uint64
	err := e.update(ctx, "deposit", account, func(tx storage.Tx) error {
		if err := custody.Deposit(ctx, tx, account, amount); err != nil {
			if errors.Is(err, custody.ErrBalanceOverflow) {
				return fmt.Errorf("%w: %w", ErrInvalidAmount, err)
			}
			return fmt.Errorf("failed to deposit: %w", err)
		}
		var err error
		balance, err = tx.Balance(ctx, account)
		return err
	})
	if err != nil {
		return 0, err
	}

	slog.Info("🏦 Account funded", "account", account, "amount", amount, "balance", balance)
	e.publish(ctx, models.PactEvent{
		Kind:       models.EventAccountDeposited,
		Actor:      account,
		Amount:     amount,
		OccurredAt: e.now(),
	})
	return balance, nil
}
