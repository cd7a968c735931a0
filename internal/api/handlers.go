package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rohit0110/pact/internal/models"
	"github.com/rohit0110/pact/internal/pact"
	"github.com/rohit0110/pact/internal/settlement"
)

// handleIndex returns basic service information
// GET / - Returns service info and available endpoints
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"service":     "pactd",
		"version":     "1.0.0",
		"description": "Goal-conditioned staking escrow for challenge pacts",
		"program_id":  s.engine.Deriver().ProgramID().String(),
		"endpoints": map[string]string{
			"GET /":                            "This page - Service information",
			"GET /health":                      "Health check endpoint",
			"GET /metrics":                     "Prometheus metrics for monitoring",
			"GET /pacts":                       "List pacts (supports ?status=, ?creator=, ?limit=, ?offset=)",
			"POST /pacts":                      "Create a pact",
			"GET /pacts/{pact}":                "Get pact details with roster and vault balance",
			"POST /pacts/{pact}/join":          "Join a pact",
			"POST /pacts/{pact}/stake":         "Deposit a participant stake",
			"POST /pacts/{pact}/activate":      "Activate a fully staked pact",
			"POST /pacts/{pact}/eliminations":  "Record an elimination verdict",
			"POST /pacts/{pact}/complete":      "Settle a pact to a winner or pooled survivors",
			"POST /pacts/{pact}/cancel":        "Cancel a pact and refund stakes",
			"GET /pacts/{pact}/participants":   "Get the roster with stake records",
			"GET /pacts/{pact}/activity":       "Get the activity feed for a pact",
			"GET /accounts/{account}":          "Get a custody balance",
			"POST /accounts/{account}/deposit": "Fund a wallet account",
			"POST /profiles":                   "Create a player profile",
			"GET /profiles/{owner}":            "Get a player profile",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth returns health status
// GET /health - Pings the store so monitors see database outages
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		s.sendError(w, "Store unhealthy", http.StatusServiceUnavailable)
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "pactd",
	}

	writeJSON(w, http.StatusOK, health)
}

// handleMetrics returns Prometheus metrics
// GET /metrics - Prometheus scraping endpoint
func (s *Server) handleMetrics() http.Handler {
	return promhttp.Handler()
}

// =============================================================================
// PACT ENDPOINTS
// =============================================================================

type createPactRequest struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	Creator            string `json:"creator"`
	GoalType           string `json:"goal_type"`
	GoalValue          uint64 `json:"goal_value"`
	VerificationType   string `json:"verification_type"`
	ComparisonOperator string `json:"comparison_operator"`
	Stake              uint64 `json:"stake"`
}

type participantRequest struct {
	Participant string `json:"participant"`
}

type stakeRequest struct {
	Participant string `json:"participant"`
	Amount      uint64 `json:"amount"`
}

type callerRequest struct {
	Caller string `json:"caller"`
}

type eliminationRequest struct {
	Participant  string     `json:"participant"`
	Eliminated   bool       `json:"eliminated"`
	EliminatedAt *time.Time `json:"eliminated_at,omitempty"`
}

type completeRequest struct {
	Winner string `json:"winner,omitempty"`
	Pooled bool   `json:"pooled,omitempty"`
}

// handleListPacts lists pacts with optional filtering
// GET /pacts?status=active&creator=XXXX&limit=50&offset=0
func (s *Server) handleListPacts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, offset := parsePagination(r)

	filter := models.PactFilter{Limit: limit, Offset: offset}
	if statusStr := query.Get("status"); statusStr != "" {
		status := models.PactStatus(statusStr)
		if !status.Valid() {
			s.sendError(w, "Unknown status: "+statusStr, http.StatusBadRequest)
			return
		}
		filter.Status = status
	}
	if creatorStr := query.Get("creator"); creatorStr != "" {
		creator, err := parseKey("creator", creatorStr)
		if err != nil {
			s.sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.Creator = &creator
	}

	pacts, total, err := s.engine.ListPacts(r.Context(), filter)
	if err != nil {
		slog.Error("Failed to list pacts", "error", err)
		s.sendEngineError(w, err)
		return
	}

	summaries := make([]models.PactSummary, len(pacts))
	for i, p := range pacts {
		summaries[i] = BuildPactSummary(p)
	}

	response := models.PactListResponse{
		Pacts:    summaries,
		Total:    total,
		Page:     (offset / limit) + 1,
		PageSize: limit,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleCreatePact creates a pact with the creator as first participant
// POST /pacts
func (s *Server) handleCreatePact(w http.ResponseWriter, r *http.Request) {
	var req createPactRequest
	if err := readJSON(r, &req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	creator, err := parseKey("creator", req.Creator)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := s.engine.CreatePact(r.Context(), pact.CreatePactParams{
		Name:        req.Name,
		Description: req.Description,
		Creator:     creator,
		Goal: models.Goal{
			Type:       models.GoalType(req.GoalType),
			Value:      req.GoalValue,
			Verifier:   models.VerificationType(req.VerificationType),
			Comparison: models.ComparisonOperator(req.ComparisonOperator),
		},
		Stake: req.Stake,
	})
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	s.sendPact(w, r, http.StatusCreated, created.Address)
}

// handleGetPact returns the pact with its roster and vault balance
// GET /pacts/{pact}
func (s *Server) handleGetPact(w http.ResponseWriter, r *http.Request) {
	address, ok := s.pactParam(w, r)
	if !ok {
		return
	}
	s.sendPact(w, r, http.StatusOK, address)
}

// handleListParticipants returns the roster in join order
// GET /pacts/{pact}/participants
func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	address, ok := s.pactParam(w, r)
	if !ok {
		return
	}

	participants, err := s.engine.ListParticipants(r.Context(), address)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	roster, _ := BuildParticipantResponses(participants)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pact":         address.String(),
		"participants": roster,
		"total":        len(roster),
	})
}

// handleListActivity returns the activity feed for a pact, newest first
// GET /pacts/{pact}/activity?kind=stake_deposited&limit=50&offset=0
func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	address, ok := s.pactParam(w, r)
	if !ok {
		return
	}
	limit, offset := parsePagination(r)

	activities, err := s.activities.ListActivities(r.Context(), models.ActivityFilter{
		Pact:   address,
		Kind:   models.EventKind(r.URL.Query().Get("kind")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		slog.Error("Failed to list activities", "pact", address, "error", err)
		s.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	feed := make([]models.Activity, len(activities))
	for i, activity := range activities {
		feed[i] = *activity
	}

	writeJSON(w, http.StatusOK, models.ActivitiesResponse{
		Pact:       address.String(),
		Activities: feed,
		Total:      len(feed),
	})
}

// handleJoin adds a participant to an initialized pact
// POST /pacts/{pact}/join
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	address, ok := s.pactParam(w, r)
	if !ok {
		return
	}
	var req participantRequest
	if err := readJSON(r, &req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	participant, err := parseKey("participant", req.Participant)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.engine.JoinPact(r.Context(), address, participant); err != nil {
		s.sendEngineError(w, err)
		return
	}
	s.sendPact(w, r, http.StatusOK, address)
}

// handleStake moves a participant stake into the pact vault
// POST /pacts/{pact}/stake
func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	address, ok := s.pactParam(w, r)
	if !ok {
		return
	}
	var req stakeRequest
	if err := readJSON(r, &req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	participant, err := parseKey("participant", req.Participant)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.engine.Stake(r.Context(), address, participant, req.Amount); err != nil {
		s.sendEngineError(w, err)
		return
	}
	s.sendPact(w, r, http.StatusOK, address)
}

// handleActivate starts a fully staked pact
// POST /pacts/{pact}/activate
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	address, caller, ok := s.callerParams(w, r)
	if !ok {
		return
	}

	if err := s.engine.Activate(r.Context(), address, caller); err != nil {
		s.sendEngineError(w, err)
		return
	}
	s.sendPact(w, r, http.StatusOK, address)
}

// handleElimination records a verdict from the trusted verifier
// POST /pacts/{pact}/eliminations
func (s *Server) handleElimination(w http.ResponseWriter, r *http.Request) {
	address, ok := s.pactParam(w, r)
	if !ok {
		return
	}
	var req eliminationRequest
	if err := readJSON(r, &req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	participant, err := parseKey("participant", req.Participant)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.engine.UpdateElimination(r.Context(), address, participant, req.Eliminated, req.EliminatedAt); err != nil {
		s.sendEngineError(w, err)
		return
	}
	s.sendPact(w, r, http.StatusOK, address)
}

// handleComplete settles an active pact
// POST /pacts/{pact}/complete with {"winner": "..."} or {"pooled": true}
func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	address, ok := s.pactParam(w, r)
	if !ok {
		return
	}
	var req completeRequest
	if err := readJSON(r, &req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Pooled == (req.Winner != "") {
		s.sendError(w, "Exactly one of winner or pooled is required", http.StatusBadRequest)
		return
	}

	var (
		receipt *settlement.Receipt
		err     error
	)
	if req.Pooled {
		receipt, err = s.engine.CompletePooled(r.Context(), address)
	} else {
		var winner solana.PublicKey
		if winner, err = parseKey("winner", req.Winner); err != nil {
			s.sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		receipt, err = s.engine.Complete(r.Context(), address, winner)
	}
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BuildSettlementResponse(receipt))
}

// handleCancel refunds every stake and closes the pact
// POST /pacts/{pact}/cancel
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	address, caller, ok := s.callerParams(w, r)
	if !ok {
		return
	}

	receipt, err := s.engine.CancelPact(r.Context(), address, caller)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BuildSettlementResponse(receipt))
}

// =============================================================================
// ACCOUNT AND PROFILE ENDPOINTS
// =============================================================================

type depositRequest struct {
	Amount uint64 `json:"amount"`
}

type createProfileRequest struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// handleGetAccount returns a custody balance
// GET /accounts/{account}
func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := parseKey("account", chi.URLParam(r, "account"))
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	balance, err := s.engine.Balance(r.Context(), account)
	if err != nil {
		slog.Error("Failed to read balance", "account", account, "error", err)
		s.sendEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BuildAccountResponse(account, balance))
}

// handleDeposit funds a wallet account
// POST /accounts/{account}/deposit
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	account, err := parseKey("account", chi.URLParam(r, "account"))
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req depositRequest
	if err := readJSON(r, &req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	balance, err := s.engine.Deposit(r.Context(), account, req.Amount)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BuildAccountResponse(account, balance))
}

// handleCreateProfile registers a player profile
// POST /profiles
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := readJSON(r, &req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	owner, err := parseKey("owner", req.Owner)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := s.engine.CreateProfile(r.Context(), owner, req.Name)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, BuildProfileResponse(profile))
}

// handleGetProfile returns a player profile
// GET /profiles/{owner}
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	owner, err := parseKey("owner", chi.URLParam(r, "owner"))
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	profile, err := s.engine.GetProfile(r.Context(), owner)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, BuildProfileResponse(profile))
}

// =============================================================================
// SHARED
// =============================================================================

// pactParam parses the {pact} path parameter, answering 400 on failure
func (s *Server) pactParam(w http.ResponseWriter, r *http.Request) (solana.PublicKey, bool) {
	address, err := parseKey("pact", chi.URLParam(r, "pact"))
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return solana.PublicKey{}, false
	}
	return address, true
}

// callerParams parses {pact} and a {"caller": ...} body
func (s *Server) callerParams(w http.ResponseWriter, r *http.Request) (solana.PublicKey, solana.PublicKey, bool) {
	address, ok := s.pactParam(w, r)
	if !ok {
		return solana.PublicKey{}, solana.PublicKey{}, false
	}
	var req callerRequest
	if err := readJSON(r, &req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return solana.PublicKey{}, solana.PublicKey{}, false
	}
	caller, err := parseKey("caller", req.Caller)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return solana.PublicKey{}, solana.PublicKey{}, false
	}
	return address, caller, true
}

// sendPact answers with the current state of the pact at address
func (s *Server) sendPact(w http.ResponseWriter, r *http.Request, code int, address solana.PublicKey) {
	ctx := r.Context()

	p, err := s.engine.GetPact(ctx, address)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}
	participants, err := s.engine.ListParticipants(ctx, address)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}
	vaultBalance, err := s.engine.Balance(ctx, p.PactVault)
	if err != nil {
		slog.Error("Failed to read vault balance", "pact", address, "error", err)
		vaultBalance = 0 // Continue without balance
	}

	writeJSON(w, code, BuildPactResponse(p, participants, vaultBalance))
}

// sendEngineError maps an engine error to its status and error code
func (s *Server) sendEngineError(w http.ResponseWriter, err error) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
		s.sendError(w, "Internal server error", code)
		return
	}

	response := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: err.Error(),
		Code:    code,
	}
	if pe, ok := pact.AsError(err); ok {
		response.ErrorCode = pe.Code
		response.ErrorName = pe.Name
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}

// sendError sends a JSON error response
func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}
