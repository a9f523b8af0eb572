package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/time_vault/internal/app/domain/timelock"
	"github.com/R3E-Network/time_vault/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu     sync.RWMutex
	locks  map[string]timelock.Lock
	events []timelock.Event
}

var _ storage.LockStore = (*Store)(nil)
var _ storage.EventStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		locks: make(map[string]timelock.Lock),
	}
}

// LockStore implementation ----------------------------------------------------

func (s *Store) GetLock(_ context.Context, asset string) (timelock.Lock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lock, ok := s.locks[asset]
	if !ok {
		return timelock.Lock{}, storage.ErrLockNotFound
	}
	return lock, nil
}

func (s *Store) SetLock(_ context.Context, lock timelock.Lock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.locks[lock.Asset]; ok && !existing.Matured(time.Now().UTC()) {
		return storage.ErrLockExists
	}

	if lock.CreatedAt.IsZero() {
		lock.CreatedAt = time.Now().UTC()
	}
	s.locks[lock.Asset] = lock
	return nil
}

func (s *Store) ClearLock(_ context.Context, asset string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, asset)
	return nil
}

func (s *Store) ListLocks(_ context.Context) ([]timelock.Lock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]timelock.Lock, 0, len(s.locks))
	for _, lock := range s.locks {
		result = append(result, lock)
	}
	return result, nil
}

// EventStore implementation ---------------------------------------------------

func (s *Store) AppendEvent(_ context.Context, ev timelock.Event) (timelock.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	s.events = append(s.events, ev)
	return ev, nil
}

func (s *Store) ListEvents(_ context.Context, limit int) ([]timelock.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	// Newest first.
	result := make([]timelock.Event, 0, limit)
	for i := len(s.events) - 1; i >= len(s.events)-limit; i-- {
		result = append(result, s.events[i])
	}
	return result, nil
}
