package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rohit0110/pact/internal/metrics"
	"github.com/rohit0110/pact/internal/models"
	"github.com/rohit0110/pact/internal/services"
)

type recordingService struct {
	name string
	fail bool

	mu    sync.Mutex
	kinds []models.EventKind
}

func (s *recordingService) Process(ctx context.Context, event *models.PactEvent) error {
	s.mu.Lock()
	s.kinds = append(s.kinds, event.Kind)
	s.mu.Unlock()
	if s.fail {
		return errors.New("boom")
	}
	return nil
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) seen() []models.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.EventKind(nil), s.kinds...)
}

func TestProcessEvent_ContinuesAfterFailure(t *testing.T) {
	failing := &recordingService{name: "failing", fail: true}
	healthy := &recordingService{name: "healthy"}
	o := New([]services.Service{failing, healthy}, 1)

	before := testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues("failing"))
	o.ProcessEvent(context.Background(), &models.PactEvent{Kind: models.EventPactCreated})

	if len(healthy.seen()) != 1 {
		t.Errorf("Expected healthy service to run after a failure, got: %v", healthy.seen())
	}
	if got := testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues("failing")) - before; got != 1 {
		t.Errorf("Expected one recorded error, got: %v", got)
	}
}

func TestPublish_DeliversInOrder(t *testing.T) {
	recorder := &recordingService{name: "recorder"}
	o := New([]services.Service{recorder}, 16)
	o.Start(context.Background())

	kinds := []models.EventKind{
		models.EventPactCreated,
		models.EventParticipantJoined,
		models.EventStakeDeposited,
		models.EventPactActivated,
	}
	for _, k := range kinds {
		o.Publish(context.Background(), models.PactEvent{Kind: k})
	}
	o.Stop()

	got := recorder.seen()
	if len(got) != len(kinds) {
		t.Fatalf("Expected %d events, got: %d", len(kinds), len(got))
	}
	for i := range kinds {
		if got[i] != kinds[i] {
			t.Errorf("Expected event %d to be %s, got: %s", i, kinds[i], got[i])
		}
	}
}

func TestPublish_DropsWhenFull(t *testing.T) {
	o := New(nil, 1)
	before := testutil.ToFloat64(metrics.EventsDropped)

	o.Publish(context.Background(), models.PactEvent{Kind: models.EventPactCreated})
	o.Publish(context.Background(), models.PactEvent{Kind: models.EventPactCreated})

	if got := testutil.ToFloat64(metrics.EventsDropped) - before; got != 1 {
		t.Errorf("Expected one dropped event, got: %v", got)
	}
	o.Stop()
}

func TestPublish_AfterStop(t *testing.T) {
	recorder := &recordingService{name: "recorder"}
	o := New([]services.Service{recorder}, 4)
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	o.Publish(context.Background(), models.PactEvent{Kind: models.EventPactCreated})
	if len(recorder.seen()) != 0 {
		t.Errorf("Expected no delivery after stop, got: %v", recorder.seen())
	}
}
