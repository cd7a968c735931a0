package oracle

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/models"
	"github.com/rohit0110/pact/internal/pact"
	"github.com/rohit0110/pact/internal/settlement"
)

// Verifier judges whether participant met the goal of p.
// An error means no signal; the participant is left untouched.
type Verifier interface {
	Verify(ctx context.Context, p *models.ChallengePact, participant solana.PublicKey) (bool, error)
}

// VerifierFunc adapts a function to Verifier
type VerifierFunc func(ctx context.Context, p *models.ChallengePact, participant solana.PublicKey) (bool, error)

func (f VerifierFunc) Verify(ctx context.Context, p *models.ChallengePact, participant solana.PublicKey) (bool, error) {
	return f(ctx, p, participant)
}

// Lifecycle is the part of the pact engine the sweeper drives
type Lifecycle interface {
	ListPacts(ctx context.Context, filter models.PactFilter) ([]*models.ChallengePact, int, error)
	ListParticipants(ctx context.Context, pactAddress solana.PublicKey) ([]pact.Participant, error)
	UpdateElimination(ctx context.Context, pactAddress, participant solana.PublicKey, eliminated bool, at *time.Time) error
	Complete(ctx context.Context, pactAddress, winner solana.PublicKey) (*settlement.Receipt, error)
}

// DefaultInterval matches the hourly verification cadence
const DefaultInterval = time.Hour

// Config contains configuration for the sweeper
type Config struct {
	Workers  int
	PageSize int

	// Verifier calls per second across all workers, 0 means unlimited
	VerifyRPS float64
}

// DefaultConfig uses four workers and pages of 100 pacts
func DefaultConfig() Config {
	return Config{
		Workers:  4,
		PageSize: 100,
	}
}

// SweepResult summarizes one elimination pass
type SweepResult struct {
	Pacts      int
	Checked    int
	Eliminated int
	Errors     int
}

// check is one (pact, participant) verification job
type check struct {
	pact        *models.ChallengePact
	participant solana.PublicKey
	verifier    Verifier
}
