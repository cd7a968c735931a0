package models

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// EventKind names a committed pact transition
type EventKind string

const (
	EventPactCreated        EventKind = "pact_created"
	EventParticipantJoined  EventKind = "participant_joined"
	EventStakeDeposited     EventKind = "stake_deposited"
	EventPactActivated      EventKind = "pact_activated"
	EventEliminationUpdated EventKind = "elimination_updated"
	EventPactCompleted      EventKind = "pact_completed"
	EventPactCancelled      EventKind = "pact_cancelled"
	EventAccountDeposited   EventKind = "account_deposited"
)

// PactEvent is emitted once per committed transition.
// It is a notification only; the store remains the source of truth.
type PactEvent struct {
	Kind  EventKind        `json:"kind"`
	Pact  solana.PublicKey `json:"pact"`
	Actor solana.PublicKey `json:"actor"`

	// Roster snapshot at commit time
	Participants []solana.PublicKey `json:"participants,omitempty"`
	// Paid participants for completions
	Winners []solana.PublicKey `json:"winners,omitempty"`

	Amount uint64 `json:"amount,omitempty"`
	Fee    uint64 `json:"fee,omitempty"`

	OccurredAt time.Time              `json:"occurred_at"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
}
