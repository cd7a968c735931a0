package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/rohit0110/pact/internal/models"
)

// MemoryStore implements Store and ActivityRepository in memory.
// Updates run one at a time and stage their writes until fn succeeds.
type MemoryStore struct {
	mu       sync.RWMutex
	pacts    map[solana.PublicKey]*models.ChallengePact
	stakes   map[solana.PublicKey]*models.ParticipantStake
	profiles map[solana.PublicKey]*models.PlayerProfile
	balances map[solana.PublicKey]uint64

	activityMu sync.RWMutex
	activities []*models.Activity
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pacts:    make(map[solana.PublicKey]*models.ChallengePact),
		stakes:   make(map[solana.PublicKey]*models.ParticipantStake),
		profiles: make(map[solana.PublicKey]*models.PlayerProfile),
		balances: make(map[solana.PublicKey]uint64),
	}
}

// Update runs fn with exclusive access and applies its writes on success
func (s *MemoryStore) Update(ctx context.Context, lockKey solana.PublicKey, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newMemoryTx(s, true)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// View runs fn under a shared lock
func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(newMemoryTx(s, false))
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

// SaveActivity appends an activity to the feed
func (s *MemoryStore) SaveActivity(ctx context.Context, activity *models.Activity) error {
	s.activityMu.Lock()
	defer s.activityMu.Unlock()
	copied := *activity
	s.activities = append(s.activities, &copied)
	return nil
}

// ListActivities returns activities of one pact, newest first
func (s *MemoryStore) ListActivities(ctx context.Context, filter models.ActivityFilter) ([]*models.Activity, error) {
	s.activityMu.RLock()
	defer s.activityMu.RUnlock()

	var matched []*models.Activity
	for i := len(s.activities) - 1; i >= 0; i-- {
		a := s.activities[i]
		if !filter.Pact.IsZero() && !a.Pact.Equals(filter.Pact) {
			continue
		}
		if filter.Kind != "" && a.Kind != filter.Kind {
			continue
		}
		copied := *a
		matched = append(matched, &copied)
	}
	return paginate(matched, filter.Limit, filter.Offset), nil
}

// memoryTx reads through its overlay into the store and writes only to the overlay
type memoryTx struct {
	store    *MemoryStore
	writable bool

	pacts    map[solana.PublicKey]*models.ChallengePact
	stakes   map[solana.PublicKey]*models.ParticipantStake
	profiles map[solana.PublicKey]*models.PlayerProfile
	balances map[solana.PublicKey]uint64
}

func newMemoryTx(store *MemoryStore, writable bool) *memoryTx {
	return &memoryTx{
		store:    store,
		writable: writable,
		pacts:    make(map[solana.PublicKey]*models.ChallengePact),
		stakes:   make(map[solana.PublicKey]*models.ParticipantStake),
		profiles: make(map[solana.PublicKey]*models.PlayerProfile),
		balances: make(map[solana.PublicKey]uint64),
	}
}

func (t *memoryTx) commit() {
	for k, v := range t.pacts {
		t.store.pacts[k] = v
	}
	for k, v := range t.stakes {
		t.store.stakes[k] = v
	}
	for k, v := range t.profiles {
		t.store.profiles[k] = v
	}
	for k, v := range t.balances {
		t.store.balances[k] = v
	}
}

func (t *memoryTx) GetPact(ctx context.Context, address solana.PublicKey) (*models.ChallengePact, error) {
	if p, ok := t.pacts[address]; ok {
		return p.Clone(), nil
	}
	if p, ok := t.store.pacts[address]; ok {
		return p.Clone(), nil
	}
	return nil, ErrNotFound
}

func (t *memoryTx) PutPact(ctx context.Context, pact *models.ChallengePact) error {
	if !t.writable {
		return ErrReadOnly
	}
	t.pacts[pact.Address] = pact.Clone()
	return nil
}

func (t *memoryTx) ListPacts(ctx context.Context, filter models.PactFilter) ([]*models.ChallengePact, error) {
	return paginate(t.matchPacts(filter), filter.Limit, filter.Offset), nil
}

func (t *memoryTx) CountPacts(ctx context.Context, filter models.PactFilter) (int, error) {
	return len(t.matchPacts(filter)), nil
}

func (t *memoryTx) matchPacts(filter models.PactFilter) []*models.ChallengePact {
	merged := make(map[solana.PublicKey]*models.ChallengePact, len(t.store.pacts)+len(t.pacts))
	for k, v := range t.store.pacts {
		merged[k] = v
	}
	for k, v := range t.pacts {
		merged[k] = v
	}

	matched := make([]*models.ChallengePact, 0, len(merged))
	for _, p := range merged {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Creator != nil && !p.Creator.Equals(*filter.Creator) {
			continue
		}
		matched = append(matched, p.Clone())
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].Address.String() < matched[j].Address.String()
	})
	return matched
}

func (t *memoryTx) GetStake(ctx context.Context, address solana.PublicKey) (*models.ParticipantStake, error) {
	if s, ok := t.stakes[address]; ok {
		return s.Clone(), nil
	}
	if s, ok := t.store.stakes[address]; ok {
		return s.Clone(), nil
	}
	return nil, ErrNotFound
}

func (t *memoryTx) PutStake(ctx context.Context, stake *models.ParticipantStake) error {
	if !t.writable {
		return ErrReadOnly
	}
	t.stakes[stake.Address] = stake.Clone()
	return nil
}

func (t *memoryTx) GetProfile(ctx context.Context, address solana.PublicKey) (*models.PlayerProfile, error) {
	if p, ok := t.profiles[address]; ok {
		return p.Clone(), nil
	}
	if p, ok := t.store.profiles[address]; ok {
		return p.Clone(), nil
	}
	return nil, ErrNotFound
}

func (t *memoryTx) PutProfile(ctx context.Context, profile *models.PlayerProfile) error {
	if !t.writable {
		return ErrReadOnly
	}
	t.profiles[profile.Address] = profile.Clone()
	return nil
}

func (t *memoryTx) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	if b, ok := t.balances[account]; ok {
		return b, nil
	}
	return t.store.balances[account], nil
}

func (t *memoryTx) SetBalance(ctx context.Context, account solana.PublicKey, amount uint64) error {
	if !t.writable {
		return ErrReadOnly
	}
	t.balances[account] = amount
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
