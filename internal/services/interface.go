package services

import (
	"context"

	"github.com/rohit0110/pact/internal/models"
)

// Service is a post-commit follow-up fed with committed pact events.
// The store stays the source of truth; a failing service never undoes
// the transition that produced the event.
type Service interface {
	// Process handles a single event.
	// Returns an error only when the follow-up could not be applied.
	// Note: event is passed by reference to avoid copying roster slices
	Process(ctx context.Context, event *models.PactEvent) error

	// Name returns the service name for logging
	Name() string
}
