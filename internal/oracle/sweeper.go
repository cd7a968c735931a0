// Package oracle turns external goal verdicts into eliminations and settles
// pacts that are down to a single survivor.
package oracle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/time/rate"

	"github.com/rohit0110/pact/internal/metrics"
	"github.com/rohit0110/pact/internal/models"
	"github.com/rohit0110/pact/internal/pact"
)

// Sweeper periodically checks active pacts against registered verifiers
type Sweeper struct {
	engine  Lifecycle
	config  Config
	now     func() time.Time
	limiter *rate.Limiter

	mu        sync.RWMutex
	verifiers map[models.VerificationType]Verifier
}

// NewSweeper creates a sweeper; zero config fields take their defaults
func NewSweeper(engine Lifecycle, config Config) *Sweeper {
	defaults := DefaultConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	limit := rate.Inf
	if config.VerifyRPS > 0 {
		limit = rate.Limit(config.VerifyRPS)
	}
	return &Sweeper{
		engine:    engine,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
		limiter:   rate.NewLimiter(limit, config.Workers),
		verifiers: make(map[models.VerificationType]Verifier),
	}
}

// Register installs the verifier for one verification type
func (s *Sweeper) Register(verificationType models.VerificationType, v Verifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifiers[verificationType] = v
}

func (s *Sweeper) verifier(verificationType models.VerificationType) (Verifier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verifiers[verificationType]
	return v, ok
}

// activePacts pages through every Active pact
func (s *Sweeper) activePacts(ctx context.Context) ([]*models.ChallengePact, error) {
	var all []*models.ChallengePact
	for offset := 0; ; offset += s.config.PageSize {
		page, total, err := s.engine.ListPacts(ctx, models.PactFilter{
			Status: models.PactActive,
			Limit:  s.config.PageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || offset+len(page) >= total {
			break
		}
	}
	metrics.ActivePacts.Set(float64(len(all)))
	return all, nil
}

// survivors returns the non-eliminated participants in join order
func (s *Sweeper) survivors(ctx context.Context, p *models.ChallengePact) ([]solana.PublicKey, error) {
	participants, err := s.engine.ListParticipants(ctx, p.Address)
	if err != nil {
		return nil, err
	}
	var alive []solana.PublicKey
	for _, participant := range participants {
		if participant.Stake != nil && !participant.Stake.IsEliminated {
			alive = append(alive, participant.Key)
		}
	}
	return alive, nil
}

// CheckEliminations asks the registered verifier about every surviving
// participant of every Active pact and eliminates those that missed the goal
func (s *Sweeper) CheckEliminations(ctx context.Context) (SweepResult, error) {
	pacts, err := s.activePacts(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	var jobs []check
	for _, p := range pacts {
		v, ok := s.verifier(p.VerificationType)
		if !ok {
			slog.Debug("Oracle: no verifier registered", "pact", p.Address, "verification_type", p.VerificationType)
			continue
		}
		alive, err := s.survivors(ctx, p)
		if err != nil {
			slog.Error("Oracle: failed to read roster", "pact", p.Address, "error", err)
			continue
		}
		for _, participant := range alive {
			jobs = append(jobs, check{pact: p, participant: participant, verifier: v})
		}
	}

	result := s.runChecks(ctx, jobs)
	result.Pacts = len(pacts)
	return result, ctx.Err()
}

// SettleFinished completes every Active pact with exactly one survivor.
// Pacts with no survivors stay Active for an operator to resolve.
func (s *Sweeper) SettleFinished(ctx context.Context) (int, error) {
	pacts, err := s.activePacts(ctx)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, p := range pacts {
		if err := ctx.Err(); err != nil {
			return settled, err
		}

		alive, err := s.survivors(ctx, p)
		if err != nil {
			slog.Error("Oracle: failed to read roster", "pact", p.Address, "error", err)
			continue
		}

		switch len(alive) {
		case 0:
			slog.Warn("Oracle: every participant eliminated, pact left for operator", "pact", p.Address)
		case 1:
			receipt, err := s.engine.Complete(ctx, p.Address, alive[0])
			if err != nil {
				if errors.Is(err, pact.ErrAlreadyCompleted) {
					continue
				}
				slog.Error("Oracle: failed to settle pact", "pact", p.Address, "winner", alive[0], "error", err)
				continue
			}
			settled++
			metrics.OracleSettlements.Inc()
			slog.Info("🏁 Oracle settled pact",
				"pact", p.Address,
				"winner", alive[0],
				"receipt_id", receipt.ReceiptID,
			)
		}
	}
	return settled, nil
}

// Sweep runs one elimination pass followed by settlement
func (s *Sweeper) Sweep(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.OracleSweepDuration.Observe(time.Since(start).Seconds())
	}()

	result, err := s.CheckEliminations(ctx)
	if err != nil {
		slog.Error("Oracle: elimination pass failed", "error", err)
	}
	settled, err := s.SettleFinished(ctx)
	if err != nil {
		slog.Error("Oracle: settlement pass failed", "error", err)
	}

	slog.Info("🔮 Oracle sweep finished",
		"pacts", result.Pacts,
		"checked", result.Checked,
		"eliminated", result.Eliminated,
		"errors", result.Errors,
		"settled", settled,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Run sweeps once immediately and then every interval until ctx is done
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	slog.Info("🔮 Oracle sweeper started",
		"interval", interval,
		"workers", s.config.Workers,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Oracle sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
