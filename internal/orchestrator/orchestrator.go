package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rohit0110/pact/internal/metrics"
	"github.com/rohit0110/pact/internal/models"
	"github.com/rohit0110/pact/internal/services"
)

// DefaultQueueSize bounds the number of events waiting for follow-ups
const DefaultQueueSize = 1024

// Orchestrator fans committed pact events out to the follow-up services.
// It implements pact.Publisher: Publish only enqueues, and a single
// goroutine started by Start drains the queue in order.
type Orchestrator struct {
	services []services.Service

	queue   chan models.PactEvent
	mu      sync.RWMutex
	started bool
	closed  bool
	done    chan struct{}
}

// New creates a new Orchestrator with the given services
func New(services []services.Service, queueSize int) *Orchestrator {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Orchestrator{
		services: services,
		queue:    make(chan models.PactEvent, queueSize),
		done:     make(chan struct{}),
	}
}

// ProcessEvent runs an event through all registered services in order.
// A failing service is logged and the remaining services still run.
func (o *Orchestrator) ProcessEvent(ctx context.Context, event *models.PactEvent) {
	slog.Debug("Orchestrator: Processing event",
		"kind", event.Kind,
		"pact", event.Pact,
		"services_count", len(o.services),
	)

	for _, service := range o.services {
		if err := service.Process(ctx, event); err != nil {
			metrics.ErrorsTotal.WithLabelValues(service.Name()).Inc()
			slog.Error("Service processing failed",
				"service", service.Name(),
				"kind", event.Kind,
				"pact", event.Pact,
				"error", err,
			)
		}
	}
}

// Publish enqueues event without blocking. Events published before Start
// wait in the queue; a full queue drops the event.
func (o *Orchestrator) Publish(ctx context.Context, event models.PactEvent) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		slog.Warn("Orchestrator stopped, dropping event", "kind", event.Kind, "pact", event.Pact)
		metrics.EventsDropped.Inc()
		return
	}

	select {
	case o.queue <- event:
		metrics.EventQueueDepth.Set(float64(len(o.queue)))
	default:
		slog.Warn("Follow-up queue full, dropping event", "kind", event.Kind, "pact", event.Pact)
		metrics.EventsDropped.Inc()
	}
}

// Start launches the drain goroutine. Calling Start twice has no effect.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started || o.closed {
		return
	}
	o.started = true

	go func() {
		defer close(o.done)
		for event := range o.queue {
			metrics.EventQueueDepth.Set(float64(len(o.queue)))
			o.ProcessEvent(ctx, &event)
		}
	}()
	slog.Info("🔁 Orchestrator started", "services", len(o.services), "queue_size", cap(o.queue))
}

// Stop refuses new events, drains what is queued and waits for it
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	close(o.queue)
	started := o.started
	o.mu.Unlock()

	if started {
		<-o.done
	}
	slog.Info("Orchestrator stopped")
}

// Services returns the list of registered services (for inspection/testing)
func (o *Orchestrator) Services() []services.Service {
	return o.services
}
