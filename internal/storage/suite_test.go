package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/models"
)

// backend is the combined surface every store implements
type backend interface {
	Store
	ActivityRepository
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func samplePact(createdAt time.Time) *models.ChallengePact {
	creator := newKey()
	return &models.ChallengePact{
		Address:            newKey(),
		Bump:               254,
		Name:               "steps",
		Description:        "10k a day",
		Creator:            creator,
		CreatedAt:          createdAt,
		Participants:       []solana.PublicKey{creator},
		Status:             models.PactInitialized,
		GoalType:           models.GoalDailySteps,
		GoalValue:          10000,
		VerificationType:   models.VerifyFitnessAPI,
		ComparisonOperator: models.CompareGreaterOrEqual,
		Stake:              100,
		PactVault:          newKey(),
		PactVaultBump:      253,
	}
}

// runStoreSuite exercises the behaviour shared by all backends
func runStoreSuite(t *testing.T, open func(t *testing.T) backend) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("pact round trip", func(t *testing.T) {
		s := open(t)
		pact := samplePact(base)

		err := s.Update(ctx, pact.Address, func(tx Tx) error {
			return tx.PutPact(ctx, pact)
		})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		var got *models.ChallengePact
		err = s.View(ctx, func(tx Tx) error {
			var err error
			got, err = tx.GetPact(ctx, pact.Address)
			return err
		})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if got.Name != pact.Name || !got.Creator.Equals(pact.Creator) || got.Stake != 100 {
			t.Errorf("Expected stored pact %+v, got: %+v", pact, got)
		}
		if !got.CreatedAt.Equal(base) {
			t.Errorf("Expected created_at %v, got: %v", base, got.CreatedAt)
		}
		if got.GoalType != models.GoalDailySteps || got.PactVaultBump != 253 || got.Bump != 254 {
			t.Errorf("Expected goal and bumps preserved, got: %+v", got)
		}
		if len(got.Participants) != 1 || !got.Participants[0].Equals(pact.Creator) {
			t.Errorf("Expected creator as only participant, got: %v", got.Participants)
		}
	})

	t.Run("missing records", func(t *testing.T) {
		s := open(t)
		err := s.View(ctx, func(tx Tx) error {
			if _, err := tx.GetPact(ctx, newKey()); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound for pact, got: %v", err)
			}
			if _, err := tx.GetStake(ctx, newKey()); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound for stake, got: %v", err)
			}
			if _, err := tx.GetProfile(ctx, newKey()); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound for profile, got: %v", err)
			}
			balance, err := tx.Balance(ctx, newKey())
			if err != nil || balance != 0 {
				t.Errorf("Expected zero balance, got: %d (%v)", balance, err)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	})

	t.Run("failed update leaves nothing behind", func(t *testing.T) {
		s := open(t)
		pact := samplePact(base)
		account := newKey()
		boom := errors.New("boom")

		err := s.Update(ctx, pact.Address, func(tx Tx) error {
			if err := tx.PutPact(ctx, pact); err != nil {
				return err
			}
			if err := tx.SetBalance(ctx, account, 500); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Expected fn error to surface, got: %v", err)
		}

		_ = s.View(ctx, func(tx Tx) error {
			if _, err := tx.GetPact(ctx, pact.Address); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected rolled back pact, got: %v", err)
			}
			if balance, _ := tx.Balance(ctx, account); balance != 0 {
				t.Errorf("Expected rolled back balance 0, got: %d", balance)
			}
			return nil
		})
	})

	t.Run("view refuses writes", func(t *testing.T) {
		s := open(t)
		err := s.View(ctx, func(tx Tx) error {
			return tx.SetBalance(ctx, newKey(), 1)
		})
		if !errors.Is(err, ErrReadOnly) {
			t.Errorf("Expected ErrReadOnly, got: %v", err)
		}
	})

	t.Run("stake round trip with elimination", func(t *testing.T) {
		s := open(t)
		at := base.Add(time.Hour)
		stake := &models.ParticipantStake{
			Address:     newKey(),
			Bump:        250,
			Participant: newKey(),
			Pact:        newKey(),
		}
		_ = s.Update(ctx, stake.Pact, func(tx Tx) error { return tx.PutStake(ctx, stake) })

		stake.HasStaked = true
		stake.IsEliminated = true
		stake.EliminatedAt = &at
		if err := s.Update(ctx, stake.Pact, func(tx Tx) error { return tx.PutStake(ctx, stake) }); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}

		_ = s.View(ctx, func(tx Tx) error {
			got, err := tx.GetStake(ctx, stake.Address)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if !got.HasStaked || !got.IsEliminated || got.Bump != 250 {
				t.Errorf("Expected staked and eliminated record, got: %+v", got)
			}
			if got.EliminatedAt == nil || !got.EliminatedAt.Equal(at) {
				t.Errorf("Expected eliminated_at %v, got: %v", at, got.EliminatedAt)
			}
			return nil
		})
	})

	t.Run("profile round trip", func(t *testing.T) {
		s := open(t)
		pactA, pactB := newKey(), newKey()
		profile := &models.PlayerProfile{
			Address:     newKey(),
			Owner:       newKey(),
			Name:        "ana",
			ActivePacts: []solana.PublicKey{pactA, pactB},
			PactsWon:    2,
			PactsLost:   1,
		}
		if err := s.Update(ctx, profile.Address, func(tx Tx) error { return tx.PutProfile(ctx, profile) }); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		_ = s.View(ctx, func(tx Tx) error {
			got, err := tx.GetProfile(ctx, profile.Address)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if got.Name != "ana" || got.PactsWon != 2 || got.PactsLost != 1 {
				t.Errorf("Expected counters preserved, got: %+v", got)
			}
			if len(got.ActivePacts) != 2 || !got.ActivePacts[1].Equals(pactB) {
				t.Errorf("Expected active pacts in order, got: %v", got.ActivePacts)
			}
			return nil
		})
	})

	t.Run("list and count pacts", func(t *testing.T) {
		s := open(t)
		first := samplePact(base)
		second := samplePact(base.Add(time.Minute))
		second.Status = models.PactActive
		third := samplePact(base.Add(2 * time.Minute))
		third.Creator = first.Creator

		for _, p := range []*models.ChallengePact{third, first, second} {
			p := p
			if err := s.Update(ctx, p.Address, func(tx Tx) error { return tx.PutPact(ctx, p) }); err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
		}

		tests := []struct {
			name   string
			filter models.PactFilter
			want   []solana.PublicKey
			total  int
		}{
			{"all in creation order", models.PactFilter{}, []solana.PublicKey{first.Address, second.Address, third.Address}, 3},
			{"by status", models.PactFilter{Status: models.PactActive}, []solana.PublicKey{second.Address}, 1},
			{"by creator", models.PactFilter{Creator: &first.Creator}, []solana.PublicKey{first.Address, third.Address}, 2},
			{"paged", models.PactFilter{Limit: 1, Offset: 1}, []solana.PublicKey{second.Address}, 3},
			{"offset past end", models.PactFilter{Offset: 5}, nil, 3},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_ = s.View(ctx, func(tx Tx) error {
					got, err := tx.ListPacts(ctx, tt.filter)
					if err != nil {
						t.Fatalf("Expected no error, got: %v", err)
					}
					if len(got) != len(tt.want) {
						t.Fatalf("Expected %d pacts, got: %d", len(tt.want), len(got))
					}
					for i := range got {
						if !got[i].Address.Equals(tt.want[i]) {
							t.Errorf("Expected pact %d to be %s, got: %s", i, tt.want[i], got[i].Address)
						}
					}
					total, err := tx.CountPacts(ctx, tt.filter)
					if err != nil || total != tt.total {
						t.Errorf("Expected count %d, got: %d (%v)", tt.total, total, err)
					}
					return nil
				})
			})
		}
	})

	t.Run("balances", func(t *testing.T) {
		s := open(t)
		account := newKey()
		for _, amount := range []uint64{40, 75} {
			amount := amount
			if err := s.Update(ctx, account, func(tx Tx) error {
				current, err := tx.Balance(ctx, account)
				if err != nil {
					return err
				}
				return tx.SetBalance(ctx, account, current+amount)
			}); err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
		}
		_ = s.View(ctx, func(tx Tx) error {
			if balance, _ := tx.Balance(ctx, account); balance != 115 {
				t.Errorf("Expected balance 115, got: %d", balance)
			}
			return nil
		})
	})

	t.Run("activities newest first", func(t *testing.T) {
		s := open(t)
		pact, other := newKey(), newKey()
		entries := []*models.Activity{
			{ActivityID: "a1", Pact: pact, Kind: models.EventPactCreated, Actor: newKey(), OccurredAt: base},
			{ActivityID: "a2", Pact: other, Kind: models.EventPactCreated, Actor: newKey(), OccurredAt: base.Add(time.Second)},
			{ActivityID: "a3", Pact: pact, Kind: models.EventStakeDeposited, Actor: newKey(), Amount: 100, OccurredAt: base.Add(2 * time.Second),
				Detail: map[string]interface{}{"stake": "ok"}},
		}
		for _, a := range entries {
			if err := s.SaveActivity(ctx, a); err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
		}

		got, err := s.ListActivities(ctx, models.ActivityFilter{Pact: pact})
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(got) != 2 || got[0].ActivityID != "a3" || got[1].ActivityID != "a1" {
			t.Fatalf("Expected [a3 a1], got: %+v", got)
		}
		if got[0].Amount != 100 || got[0].Detail["stake"] != "ok" {
			t.Errorf("Expected amount and detail preserved, got: %+v", got[0])
		}

		filtered, err := s.ListActivities(ctx, models.ActivityFilter{Pact: pact, Kind: models.EventPactCreated})
		if err != nil || len(filtered) != 1 || filtered[0].ActivityID != "a1" {
			t.Errorf("Expected only a1 for kind filter, got: %+v (%v)", filtered, err)
		}
	})
}
