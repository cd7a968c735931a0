package storage

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrReadOnly         = errors.New("write attempted in read-only transaction")
	ErrAmountOutOfRange = errors.New("amount exceeds storable range")
)

// Tx is one unit of work over the address-indexed records.
// Tx satisfies custody.Accounts so transfers run inside the same unit.
type Tx interface {
	// Pacts
	GetPact(ctx context.Context, address solana.PublicKey) (*models.ChallengePact, error)
	PutPact(ctx context.Context, pact *models.ChallengePact) error
	ListPacts(ctx context.Context, filter models.PactFilter) ([]*models.ChallengePact, error)
	CountPacts(ctx context.Context, filter models.PactFilter) (int, error)

	// Stake records
	GetStake(ctx context.Context, address solana.PublicKey) (*models.ParticipantStake, error)
	PutStake(ctx context.Context, stake *models.ParticipantStake) error

	// Profiles
	GetProfile(ctx context.Context, address solana.PublicKey) (*models.PlayerProfile, error)
	PutProfile(ctx context.Context, profile *models.PlayerProfile) error

	// Custody balances, unknown accounts read as zero
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)
	SetBalance(ctx context.Context, account solana.PublicKey, amount uint64) error
}

// Store owns every record; callers only hold addresses.
type Store interface {
	// Update runs fn in a read-write unit of work. Nothing fn wrote is
	// visible to anyone unless fn returns nil. lockKey names the record set
	// the unit serializes on (the pact address for lifecycle transitions).
	Update(ctx context.Context, lockKey solana.PublicKey, fn func(tx Tx) error) error

	// View runs fn against a consistent read-only snapshot
	View(ctx context.Context, fn func(tx Tx) error) error

	// Health & Maintenance
	Ping(ctx context.Context) error
	Close() error
}

// ActivityRepository stores the pact activity feed
type ActivityRepository interface {
	SaveActivity(ctx context.Context, activity *models.Activity) error
	ListActivities(ctx context.Context, filter models.ActivityFilter) ([]*models.Activity, error)
}
