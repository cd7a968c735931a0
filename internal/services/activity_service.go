package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rohit0110/pact/internal/metrics"
	"github.com/rohit0110/pact/internal/models"
	"github.com/rohit0110/pact/internal/storage"
)

// ActivityService persists every committed transition in the activity feed
type ActivityService struct {
	repository storage.ActivityRepository
}

// NewActivityService creates a new ActivityService instance
func NewActivityService(repository storage.ActivityRepository) *ActivityService {
	return &ActivityService{repository: repository}
}

// Process saves the event as an Activity
func (s *ActivityService) Process(ctx context.Context, event *models.PactEvent) error {
	activity := &models.Activity{
		ActivityID: uuid.New().String(),
		Pact:       event.Pact,
		Kind:       event.Kind,
		Actor:      event.Actor,
		Amount:     event.Amount,
		OccurredAt: event.OccurredAt,
		Detail:     activityDetail(event),
	}

	if err := s.repository.SaveActivity(ctx, activity); err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}
	metrics.ActivitiesSaved.WithLabelValues(string(event.Kind)).Inc()

	slog.Debug("ActivityService: activity saved",
		"activity_id", activity.ActivityID,
		"pact", event.Pact,
		"kind", event.Kind)
	return nil
}

// Name returns the service name
func (s *ActivityService) Name() string {
	return "ActivityService"
}

// activityDetail folds winners and fee into the stored detail map
func activityDetail(event *models.PactEvent) map[string]interface{} {
	if len(event.Detail) == 0 && len(event.Winners) == 0 && event.Fee == 0 {
		return nil
	}
	detail := make(map[string]interface{}, len(event.Detail)+2)
	for k, v := range event.Detail {
		detail[k] = v
	}
	if len(event.Winners) > 0 {
		detail["winners"] = models.KeyStrings(event.Winners)
	}
	if event.Fee > 0 {
		detail["fee"] = event.Fee
	}
	return detail
}
