package storage

import (
	"context"
	"errors"

	"github.com/R3E-Network/time_vault/internal/app/domain/timelock"
)

// ErrLockNotFound is returned when no lock is registered for an asset.
var ErrLockNotFound = errors.New("lock not found")

// ErrLockExists is returned by SetLock when an unexpired maturity already
// exists for the asset.
var ErrLockExists = errors.New("unexpired lock already exists")

// LockStore is the lock registry: a mapping from asset identifier to maturity.
// It is the sole mutable state of the core.
type LockStore interface {
	// GetLock returns the lock for an asset or ErrLockNotFound.
	GetLock(ctx context.Context, asset string) (timelock.Lock, error)
	// SetLock registers a lock. It fails with ErrLockExists while an
	// unexpired maturity is present for the same asset; an expired leftover
	// entry is overwritten.
	SetLock(ctx context.Context, lock timelock.Lock) error
	// ClearLock removes the lock for an asset. Clearing an absent lock is
	// not an error.
	ClearLock(ctx context.Context, asset string) error
	// ListLocks returns all registered locks.
	ListLocks(ctx context.Context) ([]timelock.Lock, error)
}

// EventStore persists emitted notifications for external observers.
type EventStore interface {
	AppendEvent(ctx context.Context, ev timelock.Event) (timelock.Event, error)
	ListEvents(ctx context.Context, limit int) ([]timelock.Event, error)
}
