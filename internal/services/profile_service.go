package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/custody"
	"github.com/rohit0110/pact/internal/models"
	"github.com/rohit0110/pact/internal/retry"
	"github.com/rohit0110/pact/internal/storage"
)

// ProfileService keeps player profile counters in step with pact outcomes.
// Participants without a profile are skipped.
type ProfileService struct {
	store   storage.Store
	deriver custody.Deriver
	retry   retry.Strategy
}

// NewProfileService creates a new ProfileService instance
func NewProfileService(store storage.Store, deriver custody.Deriver, strategy retry.Strategy) *ProfileService {
	if strategy == nil {
		strategy = retry.NewNoRetryStrategy()
	}
	return &ProfileService{
		store:   store,
		deriver: deriver,
		retry:   strategy,
	}
}

// Process applies the event to every affected profile
func (s *ProfileService) Process(ctx context.Context, event *models.PactEvent) error {
	switch event.Kind {
	case models.EventPactCreated, models.EventParticipantJoined:
		return s.apply(ctx, event.Actor, func(p *models.PlayerProfile) {
			p.AddActivePact(event.Pact)
		})

	case models.EventPactCompleted:
		winners := make(map[solana.PublicKey]bool, len(event.Winners))
		for _, w := range event.Winners {
			winners[w] = true
		}
		var errs []error
		for _, participant := range event.Participants {
			won := winners[participant]
			err := s.apply(ctx, participant, func(p *models.PlayerProfile) {
				p.RemoveActivePact(event.Pact)
				if won {
					p.PactsWon++
				} else {
					p.PactsLost++
				}
			})
			if err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)

	case models.EventPactCancelled:
		var errs []error
		for _, participant := range event.Participants {
			if err := s.apply(ctx, participant, func(p *models.PlayerProfile) {
				p.RemoveActivePact(event.Pact)
			}); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return nil
}

// Name returns the service name
func (s *ProfileService) Name() string {
	return "ProfileService"
}

// apply runs mutate on the profile of owner in its own unit of work
func (s *ProfileService) apply(ctx context.Context, owner solana.PublicKey, mutate func(p *models.PlayerProfile)) error {
	derived, err := s.deriver.Profile(owner)
	if err != nil {
		return fmt.Errorf("failed to derive profile of %s: %w", owner, err)
	}

	return s.retry.Execute(ctx, "profile update", func(ctx context.Context) error {
		return s.store.Update(ctx, derived.Address, func(tx storage.Tx) error {
			profile, err := tx.GetProfile(ctx, derived.Address)
			if errors.Is(err, storage.ErrNotFound) {
				slog.Debug("ProfileService: no profile, skipping", "owner", owner)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to load profile: %w", err)
			}
			mutate(profile)
			return tx.PutProfile(ctx, profile)
		})
	})
}
