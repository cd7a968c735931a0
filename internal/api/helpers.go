package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/custody"
	"github.com/rohit0110/pact/internal/models"
	"github.com/rohit0110/pact/internal/pact"
	"github.com/rohit0110/pact/internal/settlement"
)

const (
	// LamportsPerSOL is the base unit ratio of custody amounts
	LamportsPerSOL = 1_000_000_000

	// maxBodyBytes bounds request bodies
	maxBodyBytes = 1 << 20
)

// LamportsToSOL converts lamports (smallest unit) to SOL
// 1 SOL = 1,000,000,000 lamports
func LamportsToSOL(lamports uint64) string {
	whole := lamports / LamportsPerSOL
	frac := lamports % LamportsPerSOL
	return fmt.Sprintf("%d.%09d", whole, frac)
}

// parseKey decodes a base58 key from a path or body field
func parseKey(field, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("%s is required", field)
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return key, nil
}

// parsePagination reads limit/offset with the same bounds on every list endpoint
func parsePagination(r *http.Request) (limit, offset int) {
	query := r.URL.Query()

	limit = 50 // default
	if limitStr := query.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

// readJSON decodes the request body into dst, rejecting unknown fields
func readJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeJSON sends a JSON body with the given status
func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// statusForError maps lifecycle errors to HTTP status codes
func statusForError(err error) int {
	pe, ok := pact.AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch pe.Kind {
	case pact.KindNotFound:
		return http.StatusNotFound
	case pact.KindConflict:
		return http.StatusConflict
	case pact.KindInvalid:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// BuildPactResponse creates a full pact response with roster and vault balance
func BuildPactResponse(p *models.ChallengePact, participants []pact.Participant, vaultBalance uint64) models.PactResponse {
	response := models.PactResponse{
		Address:     p.Address.String(),
		Name:        p.Name,
		Description: p.Description,
		Creator:     p.Creator.String(),
		Status:      string(p.Status),

		GoalType:           string(p.GoalType),
		GoalValue:          p.GoalValue,
		VerificationType:   string(p.VerificationType),
		ComparisonOperator: string(p.ComparisonOperator),

		Stake:        p.Stake,
		StakeSOL:     LamportsToSOL(p.Stake),
		PrizePool:    p.PrizePool,
		PrizePoolSOL: LamportsToSOL(p.PrizePool),
		VaultBalance: vaultBalance,

		PactVault:     p.PactVault.String(),
		PactVaultBump: p.PactVaultBump,

		Capacity:  models.MaxParticipants,
		CreatedAt: p.CreatedAt,
	}
	response.Participants, response.StakedCount = BuildParticipantResponses(participants)

	return response
}

// BuildParticipantResponses renders the roster and counts paid stakes
func BuildParticipantResponses(participants []pact.Participant) ([]models.ParticipantResponse, int) {
	result := make([]models.ParticipantResponse, 0, len(participants))
	staked := 0
	for _, participant := range participants {
		entry := models.ParticipantResponse{
			Index:       participant.Index,
			Participant: participant.Key.String(),
		}
		if stake := participant.Stake; stake != nil {
			entry.StakeAccount = stake.Address.String()
			entry.HasStaked = stake.HasStaked
			entry.IsEliminated = stake.IsEliminated
			entry.EliminatedAt = stake.EliminatedAt
		}
		if entry.HasStaked {
			staked++
		}
		result = append(result, entry)
	}
	return result, staked
}

// BuildPactSummary creates a summary for list views
func BuildPactSummary(p *models.ChallengePact) models.PactSummary {
	return models.PactSummary{
		Address:      p.Address.String(),
		Name:         p.Name,
		Creator:      p.Creator.String(),
		Status:       string(p.Status),
		GoalType:     string(p.GoalType),
		Stake:        p.Stake,
		PrizePool:    p.PrizePool,
		Participants: len(p.Participants),
		CreatedAt:    p.CreatedAt,
	}
}

// BuildSettlementResponse renders a settlement receipt
func BuildSettlementResponse(receipt *settlement.Receipt) models.SettlementResponse {
	payouts := make([]models.PayoutResponse, len(receipt.Payouts))
	for i, payout := range receipt.Payouts {
		payouts[i] = models.PayoutResponse{
			To:     payout.To.String(),
			Amount: payout.Amount,
			Reason: string(payout.Reason),
		}
	}
	return models.SettlementResponse{
		ReceiptID:  receipt.ReceiptID,
		Pact:       receipt.Pact.String(),
		Kind:       string(receipt.Kind),
		Payouts:    payouts,
		Total:      receipt.Total,
		Fee:        receipt.Fee,
		ExecutedAt: receipt.ExecutedAt,
	}
}

// BuildProfileResponse renders a player profile
func BuildProfileResponse(profile *models.PlayerProfile) models.ProfileResponse {
	return models.ProfileResponse{
		Address:     profile.Address.String(),
		Owner:       profile.Owner.String(),
		Name:        profile.Name,
		ActivePacts: models.KeyStrings(profile.ActivePacts),
		PactsWon:    profile.PactsWon,
		PactsLost:   profile.PactsLost,
	}
}

// BuildAccountResponse renders a custody balance
func BuildAccountResponse(account solana.PublicKey, balance uint64) models.AccountResponse {
	return models.AccountResponse{
		Account:      account.String(),
		Balance:      balance,
		BalanceSOL:   LamportsToSOL(balance),
		ProgramOwned: custody.IsProgramOwned(account),
	}
}
