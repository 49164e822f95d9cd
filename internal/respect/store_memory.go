package respect

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/coffeeaccount/respect-service/internal/domain"
)

// InMemoryStore is a LedgerStore backed by process memory. Used in unit tests
// and local development; the same invariants hold as in the Postgres
// implementation (atomic append+delta, missing user rejected).
type InMemoryStore struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	balances map[uuid.UUID]*domain.RespectBalance
	events   []domain.RespectEvent
	nextID   int64
}

// NewInMemoryStore creates an empty store. The clock stamps event times so
// fake clocks give deterministic day windows.
func NewInMemoryStore(clock clockwork.Clock) *InMemoryStore {
	return &InMemoryStore{
		clock:    clock,
		balances: make(map[uuid.UUID]*domain.RespectBalance),
		nextID:   1,
	}
}

func (s *InMemoryStore) GetBalance(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	return b.Respect, nil
}

func (s *InMemoryStore) CreateBalance(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.balances[userID]; ok {
		return nil
	}
	now := s.clock.Now().UTC()
	s.balances[userID] = &domain.RespectBalance{UserID: userID, CreatedAt: now, UpdatedAt: now}
	return nil
}

func (s *InMemoryStore) AppendEvent(_ context.Context, userID uuid.UUID, source string, points int, meta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[userID]
	if !ok {
		return domain.ErrUserNotFound
	}

	now := s.clock.Now().UTC()
	s.events = append(s.events, domain.RespectEvent{
		ID:        s.nextID,
		UserID:    userID,
		Source:    source,
		Points:    points,
		Meta:      meta,
		CreatedAt: now,
	})
	s.nextID++
	b.Respect += points
	b.UpdatedAt = now
	return nil
}

func (s *InMemoryStore) SumPositiveInRange(_ context.Context, userID uuid.UUID, source string, from, to time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, ev := range s.events {
		if ev.UserID != userID || ev.Source != source || ev.Points <= 0 {
			continue
		}
		if ev.CreatedAt.Before(from) || ev.CreatedAt.After(to) {
			continue
		}
		total += ev.Points
	}
	return total, nil
}

func (s *InMemoryStore) ListPositiveBalances(_ context.Context, afterUserID uuid.UUID, limit int) ([]domain.RespectBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.RespectBalance, 0, len(s.balances))
	for _, b := range s.balances {
		if b.Respect > 0 {
			all = append(all, *b)
		}
	}
	// Keyset order matches the Postgres implementation: ascending by user ID.
	sort.Slice(all, func(i, j int) bool {
		return all[i].UserID.String() < all[j].UserID.String()
	})

	out := make([]domain.RespectBalance, 0, limit)
	for _, b := range all {
		if afterUserID != uuid.Nil && b.UserID.String() <= afterUserID.String() {
			continue
		}
		out = append(out, b)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListEvents(_ context.Context, userID uuid.UUID, limit int) ([]domain.RespectEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.RespectEvent, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.events[i].UserID == userID {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

func (s *InMemoryStore) TopBalances(_ context.Context, limit int) ([]domain.RespectBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.RespectBalance, 0, len(s.balances))
	for _, b := range s.balances {
		all = append(all, *b)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Respect != all[j].Respect {
			return all[i].Respect > all[j].Respect
		}
		return all[i].UserID.String() < all[j].UserID.String()
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// EventCount reports the number of events recorded for a user. Test helper.
func (s *InMemoryStore) EventCount(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, ev := range s.events {
		if ev.UserID == userID {
			n++
		}
	}
	return n
}

// LastEvent returns the most recent event for a user, or nil. Test helper.
func (s *InMemoryStore) LastEvent(userID uuid.UUID) *domain.RespectEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].UserID == userID {
			ev := s.events[i]
			return &ev
		}
	}
	return nil
}
