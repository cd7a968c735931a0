package pact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/custody"
	"github.com/rohit0110/pact/internal/models"
	"github.com/rohit0110/pact/internal/storage"
)

// CreatePactParams describes a new pact
type CreatePactParams struct {
	Name        string
	Description string
	Creator     solana.PublicKey
	Goal        models.Goal
	Stake       uint64
}

// Validate checks the parameters without touching storage
func (p CreatePactParams) Validate() error {
	if p.Name == "" {
		return ErrInvalidName
	}
	if len(p.Name) > models.MaxNameLength {
		return fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(p.Name))
	}
	if len(p.Description) > models.MaxDescriptionLength {
		return fmt.Errorf("%w: %d bytes", ErrDescriptionTooLong, len(p.Description))
	}
	if err := checkWallet(p.Creator); err != nil {
		return err
	}
	if !p.Goal.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGoalType, p.Goal.Type)
	}
	if !p.Goal.Verifier.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidVerificationType, p.Goal.Verifier)
	}
	if !p.Goal.Comparison.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidComparison, p.Goal.Comparison)
	}
	if p.Stake == 0 {
		return ErrInvalidAmount
	}
	// A full roster must fit in a signed 64 bit prize pool
	if p.Stake > math.MaxInt64/models.MaxParticipants {
		return fmt.Errorf("%w: stake %d overflows a full prize pool", ErrInvalidAmount, p.Stake)
	}
	return nil
}

// PactAddress derives the address a pact named name by creator would get
func (e *Engine) PactAddress(name string, creator solana.PublicKey) (solana.PublicKey, error) {
	if name == "" {
		return solana.PublicKey{}, ErrInvalidName
	}
	if len(name) > models.MaxNameLength {
		return solana.PublicKey{}, ErrNameTooLong
	}
	derived, err := e.deriver.Pact(name, creator)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive pact address: %w", err)
	}
	return derived.Address, nil
}

// CreatePact opens a pact with the creator as first participant.
// The vault starts empty and the creator still has to stake.
func (e *Engine) CreatePact(ctx context.Context, params CreatePactParams) (*models.ChallengePact, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	pactDerived, err := e.deriver.Pact(params.Name, params.Creator)
	if err != nil {
		return nil, fmt.Errorf("failed to derive pact address: %w", err)
	}
	vaultDerived, err := e.deriver.Vault(pactDerived.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault address: %w", err)
	}
	stakeDerived, err := e.deriver.Stake(params.Creator, pactDerived.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to derive stake record: %w", err)
	}

	now := e.now()
	pact := &models.ChallengePact{
		Address:            pactDerived.Address,
		Bump:               pactDerived.Bump,
		Name:               params.Name,
		Description:        params.Description,
		Creator:            params.Creator,
		CreatedAt:          now,
		Participants:       []solana.PublicKey{params.Creator},
		Status:             models.PactInitialized,
		GoalType:           params.Goal.Type,
		GoalValue:          params.Goal.Value,
		VerificationType:   params.Goal.Verifier,
		ComparisonOperator: params.Goal.Comparison,
		Stake:              params.Stake,
		PactVault:          vaultDerived.Address,
		PactVaultBump:      vaultDerived.Bump,
	}

	err = e.update(ctx, "create", pact.Address, func(tx storage.Tx) error {
		_, err := tx.GetPact(ctx, pact.Address)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrPactExists, pact.Address)
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to check pact: %w", err)
		}

		balance, err := tx.Balance(ctx, pact.PactVault)
		if err != nil {
			return fmt.Errorf("failed to check vault: %w", err)
		}
		if balance != 0 {
			return fmt.Errorf("%w: vault %s already holds funds", ErrPactExists, pact.PactVault)
		}

		if err := tx.PutPact(ctx, pact); err != nil {
			return err
		}
		return tx.PutStake(ctx, &models.ParticipantStake{
			Address:     stakeDerived.Address,
			Bump:        stakeDerived.Bump,
			Participant: params.Creator,
			Pact:        pact.Address,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("🤝 Pact created",
		"pact", pact.Address,
		"name", pact.Name,
		"creator", pact.Creator,
		"stake", pact.Stake,
		"goal", pact.GoalType)

	e.publish(ctx, models.PactEvent{
		Kind:         models.EventPactCreated,
		Pact:         pact.Address,
		Actor:        pact.Creator,
		Participants: []solana.PublicKey{pact.Creator},
		Amount:       pact.Stake,
		OccurredAt:   now,
		Detail: map[string]interface{}{
			"name":      pact.Name,
			"goal_type": string(pact.GoalType),
		},
	})
	return pact, nil
}

// JoinPact adds participant to the roster of an Initialized pact
func (e *Engine) JoinPact(ctx context.Context, pactAddress, participant solana.PublicKey) error {
	if err := checkWallet(participant); err != nil {
		return err
	}

	var roster []solana.PublicKey
	err := e.update(ctx, "join", pactAddress, func(tx storage.Tx) error {
		pact, err := e.loadPact(ctx, tx, pactAddress)
		if err != nil {
			return err
		}
		if pact.Status != models.PactInitialized {
			return fmt.Errorf("%w: status %s", ErrNotInitialized, pact.Status)
		}
		if pact.HasParticipant(participant) {
			return fmt.Errorf("%w: %s", ErrAlreadyJoined, participant)
		}
		if pact.IsFull() {
			return fmt.Errorf("%w: %d participants", ErrCapacityExceeded, len(pact.Participants))
		}

		derived, err := e.deriver.Stake(participant, pact.Address)
		if err != nil {
			return fmt.Errorf("failed to derive stake record: %w", err)
		}
		if _, err := tx.GetStake(ctx, derived.Address); err == nil {
			return fmt.Errorf("%w: stake record %s exists", ErrAlreadyJoined, derived.Address)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to check stake record: %w", err)
		}

		pact.Participants = append(pact.Participants, participant)
		if err := tx.PutPact(ctx, pact); err != nil {
			return err
		}
		roster = pact.Participants
		return tx.PutStake(ctx, &models.ParticipantStake{
			Address:     derived.Address,
			Bump:        derived.Bump,
			Participant: participant,
			Pact:        pact.Address,
		})
	})
	if err != nil {
		return err
	}

	slog.Info("🙋 Participant joined", "pact", pactAddress, "participant", participant, "participants", len(roster))
	e.publish(ctx, models.PactEvent{
		Kind:         models.EventParticipantJoined,
		Pact:         pactAddress,
		Actor:        participant,
		Participants: roster,
		OccurredAt:   e.now(),
	})
	return nil
}

// Stake moves exactly the pact stake from participant into the vault
func (e *Engine) Stake(ctx context.Context, pactAddress, participant solana.PublicKey, amount uint64) error {
	var prizePool uint64
	err := e.update(ctx, "stake", pactAddress, func(tx storage.Tx) error {
		pact, err := e.loadPact(ctx, tx, pactAddress)
		if err != nil {
			return err
		}
		if pact.Status != models.PactInitialized {
			return fmt.Errorf("%w: status %s", ErrNotInitialized, pact.Status)
		}
		if !pact.HasParticipant(participant) {
			return fmt.Errorf("%w: %s", ErrNotParticipant, participant)
		}
		stake, err := e.loadStake(ctx, tx, pact, participant)
		if err != nil {
			return err
		}
		if stake.HasStaked {
			return fmt.Errorf("%w: %s", ErrAlreadyStaked, participant)
		}
		if amount == 0 {
			return ErrInvalidAmount
		}
		if amount != pact.Stake {
			return fmt.Errorf("%w: got %d, pact requires %d", ErrStakeMismatch, amount, pact.Stake)
		}

		if err := custody.Transfer(ctx, tx, participant, pact.PactVault, amount); err != nil {
			if errors.Is(err, custody.ErrInsufficientFunds) {
				return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
			}
			if errors.Is(err, custody.ErrProgramOwned) {
				return fmt.Errorf("%w: %w", ErrInvalidAccount, err)
			}
			return fmt.Errorf("failed to move stake: %w", err)
		}

		stake.HasStaked = true
		pact.PrizePool += amount
		prizePool = pact.PrizePool
		if err := tx.PutStake(ctx, stake); err != nil {
			return err
		}
		return tx.PutPact(ctx, pact)
	})
	if err != nil {
		return err
	}

	slog.Info("💰 Stake deposited", "pact", pactAddress, "participant", participant, "amount", amount, "prize_pool", prizePool)
	e.publish(ctx, models.PactEvent{
		Kind:       models.EventStakeDeposited,
		Pact:       pactAddress,
		Actor:      participant,
		Amount:     amount,
		OccurredAt: e.now(),
		Detail:     map[string]interface{}{"prize_pool": prizePool},
	})
	return nil
}

// Activate starts the challenge once every participant has staked.
// Only the creator may activate.
func (e *Engine) Activate(ctx context.Context, pactAddress, caller solana.PublicKey) error {
	var roster []solana.PublicKey
	var prizePool uint64
	err := e.update(ctx, "activate", pactAddress, func(tx storage.Tx) error {
		pact, err := e.loadPact(ctx, tx, pactAddress)
		if err != nil {
			return err
		}
		if pact.Status != models.PactInitialized {
			return fmt.Errorf("%w: status %s", ErrNotInitialized, pact.Status)
		}
		if !pact.Creator.Equals(caller) {
			return fmt.Errorf("%w: %s", ErrNotCreator, caller)
		}

		for _, participant := range pact.Participants {
			stake, err := e.loadStake(ctx, tx, pact, participant)
			if err != nil {
				return err
			}
			if !stake.HasStaked {
				return fmt.Errorf("%w: %s", ErrNotFullyStaked, participant)
			}
		}

		pact.Status = models.PactActive
		roster = pact.Participants
		prizePool = pact.PrizePool
		return tx.PutPact(ctx, pact)
	})
	if err != nil {
		return err
	}

	slog.Info("🚀 Pact activated", "pact", pactAddress, "participants", len(roster), "prize_pool", prizePool)
	e.publish(ctx, models.PactEvent{
		Kind:         models.EventPactActivated,
		Pact:         pactAddress,
		Actor:        caller,
		Participants: roster,
		Amount:       prizePool,
		OccurredAt:   e.now(),
	})
	return nil
}

// UpdateElimination records the external verdict on a participant.
// A nil at with eliminated set uses the engine clock.
func (e *Engine) UpdateElimination(ctx context.Context, pactAddress, participant solana.PublicKey, eliminated bool, at *time.Time) error {
	var recorded *time.Time
	err := e.update(ctx, "eliminate", pactAddress, func(tx storage.Tx) error {
		pact, err := e.loadPact(ctx, tx, pactAddress)
		if err != nil {
			return err
		}
		if pact.Status != models.PactActive {
			return fmt.Errorf("%w: status %s", ErrNotActive, pact.Status)
		}
		if !pact.HasParticipant(participant) {
			return fmt.Errorf("%w: %s", ErrNotParticipant, participant)
		}
		stake, err := e.loadStake(ctx, tx, pact, participant)
		if err != nil {
			return err
		}

		stake.IsEliminated = eliminated
		stake.EliminatedAt = nil
		if eliminated {
			when := e.now()
			if at != nil {
				when = at.UTC()
			}
			stake.EliminatedAt = &when
		}
		recorded = stake.EliminatedAt
		return tx.PutStake(ctx, stake)
	})
	if err != nil {
		return err
	}

	detail := map[string]interface{}{
		"participant": participant.String(),
		"eliminated":  eliminated,
	}
	if recorded != nil {
		detail["eliminated_at"] = recorded.Format(time.RFC3339Nano)
	}
	slog.Info("🎯 Elimination updated", "pact", pactAddress, "participant", participant, "eliminated", eliminated)
	e.publish(ctx, models.PactEvent{
		Kind:       models.EventEliminationUpdated,
		Pact:       pactAddress,
		Actor:      participant,
		OccurredAt: e.now(),
		Detail:     detail,
	})
	return nil
}
