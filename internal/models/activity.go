package models

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Activity is the persisted form of a PactEvent
type Activity struct {
	// Identification
	ActivityID string           `json:"activity_id"`
	Pact       solana.PublicKey `json:"pact"`
	Kind       EventKind        `json:"kind"`

	// Actor that triggered the transition (zero for system transitions)
	Actor solana.PublicKey `json:"actor"`

	Amount     uint64                 `json:"amount"`
	OccurredAt time.Time              `json:"occurred_at"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
}

// ActivityFilter provides criteria for listing activities
type ActivityFilter struct {
	Pact   solana.PublicKey
	Kind   EventKind
	Limit  int
	Offset int
}
