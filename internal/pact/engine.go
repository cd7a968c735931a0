// Package pact runs the challenge pact lifecycle: creation, joining,
// staking, activation, elimination tracking, settlement and cancellation.
//
// Every operation is one storage unit of work; either all of its effects
// commit or none do. Committed transitions are announced to a Publisher.
package pact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/custody"
	"github.com/rohit0110/pact/internal/metrics"
	"github.com/rohit0110/pact/internal/models"
	"github.com/rohit0110/pact/internal/storage"
)

// Publisher receives one event per committed transition.
// Publish must not block the caller for long and cannot fail the transition.
type Publisher interface {
	Publish(ctx context.Context, event models.PactEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, event models.PactEvent) {}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithPublisher sets the receiver of committed transitions
func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		if p != nil {
			e.publisher = p
		}
	}
}

// Engine executes lifecycle operations against a Store
type Engine struct {
	store      storage.Store
	deriver    custody.Deriver
	feeAccount solana.PublicKey
	now        func() time.Time
	publisher  Publisher
}

// NewEngine creates an Engine. feeAccount receives settlement fees and must
// be a wallet account.
func NewEngine(store storage.Store, deriver custody.Deriver, feeAccount solana.PublicKey, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if deriver.ProgramID().IsZero() {
		return nil, custody.ErrZeroProgramID
	}
	if feeAccount.IsZero() {
		return nil, errors.New("fee account is required")
	}
	if custody.IsProgramOwned(feeAccount) {
		return nil, fmt.Errorf("fee account %s is program owned", feeAccount)
	}

	e := &Engine{
		store:      store,
		deriver:    deriver,
		feeAccount: feeAccount,
		now:        func() time.Time { return time.Now().UTC() },
		publisher:  nopPublisher{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// FeeAccount returns the account settlement fees are paid to
func (e *Engine) FeeAccount() solana.PublicKey {
	return e.feeAccount
}

// Deriver returns the address deriver the engine uses
func (e *Engine) Deriver() custody.Deriver {
	return e.deriver
}

// update runs one unit of work and records its latency and guard failures
func (e *Engine) update(ctx context.Context, op string, lockKey solana.PublicKey, fn func(tx storage.Tx) error) error {
	start := time.Now()
	err := e.store.Update(ctx, lockKey, fn)
	metrics.TransitionDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		if pe, ok := AsError(err); ok {
			metrics.GuardFailures.WithLabelValues(pe.Name).Inc()
			slog.Debug("transition rejected", "operation", op, "lock", lockKey, "error", pe.Name)
		}
		return err
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, event models.PactEvent) {
	e.publisher.Publish(ctx, event)
}

func (e *Engine) loadPact(ctx context.Context, tx storage.Tx, address solana.PublicKey) (*models.ChallengePact, error) {
	pact, err := tx.GetPact(ctx, address)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPactNotFound, address)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pact: %w", err)
	}
	return pact, nil
}

// loadStake fetches the derived stake record of participant and checks it
// is bound to pact. Any gap reads as a missing record.
func (e *Engine) loadStake(ctx context.Context, tx storage.Tx, pact *models.ChallengePact, participant solana.PublicKey) (*models.ParticipantStake, error) {
	derived, err := e.deriver.Stake(participant, pact.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to derive stake record: %w", err)
	}
	stake, err := tx.GetStake(ctx, derived.Address)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMissingParticipantRecord, participant)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stake record: %w", err)
	}
	if !stake.Participant.Equals(participant) || !stake.Pact.Equals(pact.Address) {
		return nil, fmt.Errorf("%w: record %s is bound elsewhere", ErrMissingParticipantRecord, derived.Address)
	}
	return stake, nil
}

// vaultSigner rebuilds the spending capability from the stored proof
func (e *Engine) vaultSigner(pact *models.ChallengePact) (custody.VaultSigner, error) {
	signer, err := e.deriver.VaultSigner(pact.Address, pact.PactVault, pact.PactVaultBump)
	if err != nil {
		return custody.VaultSigner{}, fmt.Errorf("failed to authorize vault %s: %w", pact.PactVault, err)
	}
	return signer, nil
}

// checkWallet refuses zero and program-owned accounts as actors
func checkWallet(key solana.PublicKey) error {
	if key.IsZero() {
		return fmt.Errorf("%w: zero account", ErrInvalidAccount)
	}
	if custody.IsProgramOwned(key) {
		return fmt.Errorf("%w: %s is program owned", ErrInvalidAccount, key)
	}
	return nil
}
