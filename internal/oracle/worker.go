package oracle

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rohit0110/pact/internal/metrics"
	"github.com/rohit0110/pact/internal/pact"
)

// outcome of a single check
type outcome int

const (
	outcomeKept outcome = iota
	outcomeEliminated
	outcomeError
	outcomeSkipped
)

// runChecks fans jobs out to a bounded pool and tallies the outcomes
func (s *Sweeper) runChecks(ctx context.Context, jobs []check) SweepResult {
	jobChan := make(chan check)
	results := make(chan outcome, len(jobs))

	workerCount := s.config.Workers
	if workerCount > len(jobs) {
		workerCount = len(jobs)
	}

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.runWorker(ctx, id, jobChan, results)
		}(i)
	}

feed:
	for _, job := range jobs {
		select {
		case jobChan <- job:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobChan)
	wg.Wait()
	close(results)

	var result SweepResult
	for o := range results {
		switch o {
		case outcomeEliminated:
			result.Checked++
			result.Eliminated++
		case outcomeKept:
			result.Checked++
		case outcomeError:
			result.Errors++
		}
	}
	return result
}

// runWorker runs a single worker goroutine
func (s *Sweeper) runWorker(ctx context.Context, id int, jobs <-chan check, results chan<- outcome) {
	for job := range jobs {
		if ctx.Err() != nil {
			results <- outcomeSkipped
			continue
		}
		results <- s.checkOne(ctx, id, job)
	}
}

func (s *Sweeper) checkOne(ctx context.Context, workerID int, job check) outcome {
	// Verifiers call external data sources with their own quotas
	if err := s.limiter.Wait(ctx); err != nil {
		return outcomeSkipped
	}

	met, err := job.verifier.Verify(ctx, job.pact, job.participant)
	if err != nil {
		metrics.OracleVerifyErrors.WithLabelValues(string(job.pact.VerificationType)).Inc()
		slog.Warn("Oracle: verification failed, participant left untouched",
			"worker_id", workerID,
			"pact", job.pact.Address,
			"participant", job.participant,
			"error", err,
		)
		return outcomeError
	}
	if met {
		return outcomeKept
	}

	at := s.now()
	err = s.engine.UpdateElimination(ctx, job.pact.Address, job.participant, true, &at)
	if err != nil {
		// The pact may have settled while the sweep was running
		if errors.Is(err, pact.ErrNotActive) {
			slog.Debug("Oracle: pact no longer active", "pact", job.pact.Address)
			return outcomeSkipped
		}
		slog.Error("Oracle: failed to record elimination",
			"worker_id", workerID,
			"pact", job.pact.Address,
			"participant", job.participant,
			"error", err,
		)
		return outcomeError
	}

	metrics.OracleEliminations.Inc()
	return outcomeEliminated
}
