package models

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// PactResponse represents a pact with its roster for API responses
type PactResponse struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Creator     string `json:"creator"`
	Status      string `json:"status"`

	// Goal
	GoalType           string `json:"goal_type"`
	GoalValue          uint64 `json:"goal_value"`
	VerificationType   string `json:"verification_type"`
	ComparisonOperator string `json:"comparison_operator"`

	// Financials (base units and SOL formatted for UI)
	Stake        uint64 `json:"stake"`
	StakeSOL     string `json:"stake_sol"`
	PrizePool    uint64 `json:"prize_pool"`
	PrizePoolSOL string `json:"prize_pool_sol"`
	VaultBalance uint64 `json:"vault_balance"`

	// Escrow
	PactVault     string `json:"pact_vault"`
	PactVaultBump uint8  `json:"pact_vault_bump"`

	// Participants
	Participants []ParticipantResponse `json:"participants"`
	StakedCount  int                   `json:"staked_count"`
	Capacity     int                   `json:"capacity"`

	CreatedAt time.Time `json:"created_at"`
}

// ParticipantResponse represents one roster entry
type ParticipantResponse struct {
	Index        int        `json:"index"`
	Participant  string     `json:"participant"`
	StakeAccount string     `json:"stake_account"`
	HasStaked    bool       `json:"has_staked"`
	IsEliminated bool       `json:"is_eliminated"`
	EliminatedAt *time.Time `json:"eliminated_at,omitempty"`
}

// PactSummary represents a pact in list views
type PactSummary struct {
	Address      string    `json:"address"`
	Name         string    `json:"name"`
	Creator      string    `json:"creator"`
	Status       string    `json:"status"`
	GoalType     string    `json:"goal_type"`
	Stake        uint64    `json:"stake"`
	PrizePool    uint64    `json:"prize_pool"`
	Participants int       `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// PactListResponse represents a paginated list of pacts
type PactListResponse struct {
	Pacts    []PactSummary `json:"pacts"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// PayoutResponse represents one vault debit of a settlement
type PayoutResponse struct {
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
	Reason string `json:"reason"`
}

// SettlementResponse represents the receipt of a completion or cancellation
type SettlementResponse struct {
	ReceiptID  string           `json:"receipt_id"`
	Pact       string           `json:"pact"`
	Kind       string           `json:"kind"`
	Payouts    []PayoutResponse `json:"payouts"`
	Total      uint64           `json:"total"`
	Fee        uint64           `json:"fee"`
	ExecutedAt time.Time        `json:"executed_at"`
}

// AccountResponse represents a custody account balance
type AccountResponse struct {
	Account      string `json:"account"`
	Balance      uint64 `json:"balance"`
	BalanceSOL   string `json:"balance_sol"`
	ProgramOwned bool   `json:"program_owned"`
}

// ProfileResponse represents a player profile
type ProfileResponse struct {
	Address     string   `json:"address"`
	Owner       string   `json:"owner"`
	Name        string   `json:"name"`
	ActivePacts []string `json:"active_pacts"`
	PactsWon    uint64   `json:"pacts_won"`
	PactsLost   uint64   `json:"pacts_lost"`
}

// ActivitiesResponse represents a pact activity feed
type ActivitiesResponse struct {
	Pact       string     `json:"pact"`
	Activities []Activity `json:"activities"`
	Total      int        `json:"total"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Code      int    `json:"code"`
	ErrorCode int    `json:"error_code,omitempty"` // pact error code (6000+)
	ErrorName string `json:"error_name,omitempty"`
}

// KeyStrings renders keys in base58
func KeyStrings(keys []solana.PublicKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}
