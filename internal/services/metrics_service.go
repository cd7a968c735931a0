package services

import (
	"context"

	"github.com/rohit0110/pact/internal/metrics"
	"github.com/rohit0110/pact/internal/models"
)

// MetricsService turns committed transitions into Prometheus counters
type MetricsService struct{}

// NewMetricsService creates a new MetricsService instance
func NewMetricsService() *MetricsService {
	return &MetricsService{}
}

// Process records the event
func (s *MetricsService) Process(ctx context.Context, event *models.PactEvent) error {
	metrics.TransitionsTotal.WithLabelValues(string(event.Kind)).Inc()

	switch event.Kind {
	case models.EventPactCreated:
		metrics.PactsCreated.Inc()
	case models.EventStakeDeposited:
		metrics.StakedVolume.Add(float64(event.Amount))
	case models.EventPactCompleted:
		metrics.SettledVolume.Add(float64(event.Amount))
		metrics.FeesCollected.Add(float64(event.Fee))
	case models.EventPactCancelled:
		metrics.RefundedVolume.Add(float64(event.Amount))
	}
	return nil
}

// Name returns the service name
func (s *MetricsService) Name() string {
	return "MetricsService"
}
