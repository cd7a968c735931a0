package models

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Size limits of a pact account. Name doubles as a derivation seed, so it
// shares the 32 byte seed bound.
const (
	MaxNameLength        = 32
	MaxDescriptionLength = 32
	MaxParticipants      = 10
)

// PactStatus is the lifecycle state of a challenge pact
type PactStatus string

const (
	PactInitialized PactStatus = "initialized"
	PactActive      PactStatus = "active"
	PactCompleted   PactStatus = "completed"
	PactCancelled   PactStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses
func (s PactStatus) Valid() bool {
	switch s {
	case PactInitialized, PactActive, PactCompleted, PactCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible
func (s PactStatus) Terminal() bool {
	return s == PactCompleted || s == PactCancelled
}

// ChallengePact is the aggregate record of one staking challenge
type ChallengePact struct {
	// Identification
	Address solana.PublicKey `json:"address"`
	Bump    uint8            `json:"bump"`

	Name        string           `json:"name"`
	Description string           `json:"description"`
	Creator     solana.PublicKey `json:"creator"`
	CreatedAt   time.Time        `json:"created_at"`

	// Join order, creator first
	Participants []solana.PublicKey `json:"participants"`
	Status       PactStatus         `json:"status"`

	// Success condition (stored, never interpreted)
	GoalType           GoalType           `json:"goal_type"`
	GoalValue          uint64             `json:"goal_value"`
	VerificationType   VerificationType   `json:"verification_type"`
	ComparisonOperator ComparisonOperator `json:"comparison_operator"`

	// Financials (base units)
	Stake     uint64 `json:"stake"`
	PrizePool uint64 `json:"prize_pool"`

	// Escrow binding
	PactVault     solana.PublicKey `json:"pact_vault"`
	PactVaultBump uint8            `json:"pact_vault_bump"`
}

// HasParticipant reports whether key already joined the pact
func (p *ChallengePact) HasParticipant(key solana.PublicKey) bool {
	return p.ParticipantIndex(key) >= 0
}

// ParticipantIndex returns the join position of key, or -1
func (p *ChallengePact) ParticipantIndex(key solana.PublicKey) int {
	for i, participant := range p.Participants {
		if participant.Equals(key) {
			return i
		}
	}
	return -1
}

// IsFull reports whether the roster reached MaxParticipants
func (p *ChallengePact) IsFull() bool {
	return len(p.Participants) >= MaxParticipants
}

// Clone returns a deep copy safe to mutate
func (p *ChallengePact) Clone() *ChallengePact {
	if p == nil {
		return nil
	}
	c := *p
	c.Participants = append([]solana.PublicKey(nil), p.Participants...)
	return &c
}

// ParticipantStake tracks one participant's stake and elimination in one pact
type ParticipantStake struct {
	Address     solana.PublicKey `json:"address"`
	Bump        uint8            `json:"bump"`
	Participant solana.PublicKey `json:"participant"`
	Pact        solana.PublicKey `json:"pact"`

	HasStaked    bool       `json:"has_staked"`
	IsEliminated bool       `json:"is_eliminated"`
	EliminatedAt *time.Time `json:"eliminated_at,omitempty"`
}

// Clone returns a deep copy safe to mutate
func (s *ParticipantStake) Clone() *ParticipantStake {
	if s == nil {
		return nil
	}
	c := *s
	if s.EliminatedAt != nil {
		at := *s.EliminatedAt
		c.EliminatedAt = &at
	}
	return &c
}

// PactFilter narrows pact listings
type PactFilter struct {
	Status  PactStatus // empty means any
	Creator *solana.PublicKey
	Limit   int
	Offset  int
}
