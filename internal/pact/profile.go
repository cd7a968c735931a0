package pact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/models"
	"github.com/rohit0110/pact/internal/storage"
)

// CreateProfile registers the player profile of owner
func (e *Engine) CreateProfile(ctx context.Context, owner solana.PublicKey, name string) (*models.PlayerProfile, error) {
	if err := checkWallet(owner); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, ErrInvalidName
	}
	if len(name) > models.MaxNameLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(name))
	}

	derived, err := e.deriver.Profile(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to derive profile address: %w", err)
	}
	profile := &models.PlayerProfile{
		Address:     derived.Address,
		Bump:        derived.Bump,
		Owner:       owner,
		Name:        name,
		ActivePacts: []solana.PublicKey{},
	}

	err = e.update(ctx, "create_profile", derived.Address, func(tx storage.Tx) error {
		_, err := tx.GetProfile(ctx, derived.Address)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrProfileExists, owner)
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to check profile: %w", err)
		}
		return tx.PutProfile(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("👤 Profile created", "owner", owner, "name", name)
	return profile, nil
}

// GetProfile returns the profile of owner
func (e *Engine) GetProfile(ctx context.Context, owner solana.PublicKey) (*models.PlayerProfile, error) {
	derived, err := e.deriver.Profile(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to derive profile address: %w", err)
	}
	var profile *models.PlayerProfile
	err = e.store.View(ctx, func(tx storage.Tx) error {
		var err error
		profile, err = tx.GetProfile(ctx, derived.Address)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrProfileNotFound, owner)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}
