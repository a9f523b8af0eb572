// Package timelock implements the custodial lock state machine: per asset,
// funds pulled into the vault (plus anything deposited directly) become
// withdrawable only after a fixed maturity period measured from the most
// recent lock initiation.
package timelock

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/R3E-Network/time_vault/internal/app/cache"
	"github.com/R3E-Network/time_vault/internal/app/domain/timelock"
	"github.com/R3E-Network/time_vault/internal/app/metrics"
	"github.com/R3E-Network/time_vault/internal/app/storage"
	"github.com/R3E-Network/time_vault/internal/chain"
	"github.com/R3E-Network/time_vault/pkg/logger"
)

// LockDuration is the fixed maturity period. It is a compiled constant:
// callers cannot alter it.
const LockDuration = 182 * 24 * time.Hour

// Service is the lock state machine. All mutating operations are gated by the
// guard and sequence external transfers strictly after internal state
// mutation, which is the sole re-entrancy defense.
type Service struct {
	guard       *Guard
	locks       storage.LockStore
	events      storage.EventStore
	adapter     AssetAdapter
	balances    cache.BalanceCache
	broadcaster *Broadcaster
	log         *logger.Logger
	now         func() time.Time
}

// New constructs the timelock service.
func New(guard *Guard, locks storage.LockStore, events storage.EventStore, adapter AssetAdapter, balances cache.BalanceCache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("timelock")
	}
	if balances == nil {
		balances = cache.Noop{}
	}
	return &Service{
		guard:       guard,
		locks:       locks,
		events:      events,
		adapter:     adapter,
		balances:    balances,
		broadcaster: NewBroadcaster(),
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Guard exposes the access capability for control transfer and renouncement.
func (s *Service) Guard() *Guard { return s.guard }

// Broadcaster exposes the live event feed.
func (s *Service) Broadcaster() *Broadcaster { return s.broadcaster }

// LockDuration returns the fixed maturity period.
func (s *Service) LockDuration() time.Duration { return LockDuration }

// Controller returns the current controller identity.
func (s *Service) Controller() string { return s.guard.Controller() }

// InitiateLock pulls amount units of asset from the controller into the vault
// and registers a maturity of now plus LockDuration. The pull either fully
// succeeds or the whole operation fails with no state change. The registry
// records timing only: any balance already in the vault, including direct
// deposits, simply falls under the new lock.
func (s *Service) InitiateLock(ctx context.Context, caller, asset string, amount *big.Int) (timelock.Lock, error) {
	if !s.guard.Authorize(caller) {
		return timelock.Lock{}, ErrNotAuthorized
	}

	asset, err := chain.ValidateAssetHash(asset)
	if err != nil {
		return timelock.Lock{}, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}

	if amount == nil || amount.Sign() <= 0 {
		return timelock.Lock{}, ErrZeroAmount
	}

	switch _, err := s.locks.GetLock(ctx, asset); {
	case err == nil:
		return timelock.Lock{}, ErrAlreadyLocked
	case !errors.Is(err, storage.ErrLockNotFound):
		return timelock.Lock{}, fmt.Errorf("read lock registry: %w", err)
	}

	txHash, err := s.adapter.Pull(ctx, asset, amount)
	if err != nil {
		return timelock.Lock{}, fmt.Errorf("%w: %v", ErrTransferPullFailed, err)
	}

	now := s.now()
	lock := timelock.Lock{
		Asset:     asset,
		Maturity:  now.Add(LockDuration),
		CreatedAt: now,
	}
	if err := s.locks.SetLock(ctx, lock); err != nil {
		if errors.Is(err, storage.ErrLockExists) {
			return timelock.Lock{}, ErrAlreadyLocked
		}
		// Funds are in the vault but the lock did not register. Surface
		// loudly; the next InitiateLock cycle covers the stranded balance.
		s.log.WithError(err).
			WithField("asset", asset).
			Error("lock registration failed after pull")
		return timelock.Lock{}, fmt.Errorf("register lock: %w", err)
	}

	s.balances.Invalidate(ctx, asset, s.adapter.VaultAddress())
	metrics.LockInitiated()

	s.emit(ctx, timelock.Event{
		Type:     timelock.EventVestingInitiated,
		Asset:    asset,
		Amount:   amount.String(),
		Maturity: &lock.Maturity,
		TxHash:   txHash,
	})

	s.log.WithField("asset", asset).
		WithField("amount", amount.String()).
		WithField("maturity", lock.Maturity).
		Info("vesting initiated")
	return lock, nil
}

// Release transfers the vault's entire current balance of the asset to the
// controller once maturity has passed, and clears the lock. The clear happens
// strictly before the outbound transfer so a re-entrant release attempt
// observes no active lock. If the push then fails, the registry stays
// cleared: the asset is left unlocked but unreleased, recoverable only by a
// fresh lock cycle.
func (s *Service) Release(ctx context.Context, caller, asset string) (*big.Int, error) {
	if !s.guard.Authorize(caller) {
		return nil, ErrNotAuthorized
	}

	asset, err := chain.ValidateAssetHash(asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}

	lock, err := s.locks.GetLock(ctx, asset)
	if err != nil {
		if errors.Is(err, storage.ErrLockNotFound) {
			return nil, ErrNotVested
		}
		return nil, fmt.Errorf("read lock registry: %w", err)
	}

	if !lock.Matured(s.now()) {
		return nil, ErrStillLocked
	}

	balance, err := s.adapter.BalanceOf(ctx, asset, s.adapter.VaultAddress())
	if err != nil {
		return nil, fmt.Errorf("read vault balance: %w", err)
	}
	if balance.Sign() <= 0 {
		return nil, ErrNothingToRelease
	}

	// Clear before push: the ordering is the re-entrancy defense and must
	// not be reordered.
	if err := s.locks.ClearLock(ctx, asset); err != nil {
		return nil, fmt.Errorf("clear lock: %w", err)
	}

	recipient := s.guard.Controller()
	txHash, err := s.adapter.Push(ctx, asset, recipient, balance)
	if err != nil {
		metrics.PushFailed()
		s.log.WithError(err).
			WithField("asset", asset).
			WithField("amount", balance.String()).
			Error("release push failed after registry clear; asset is unlocked but unreleased")
		return nil, fmt.Errorf("%w: %v", ErrTransferPushFailed, err)
	}

	s.balances.Invalidate(ctx, asset, s.adapter.VaultAddress())
	metrics.LockReleased()

	s.emit(ctx, timelock.Event{
		Type:      timelock.EventReleased,
		Asset:     asset,
		Amount:    balance.String(),
		Recipient: recipient,
		TxHash:    txHash,
	})

	s.log.WithField("asset", asset).
		WithField("amount", balance.String()).
		Info("vesting released")
	return balance, nil
}

// MaturityOf returns the registered maturity for an asset; ok is false when
// no lock is set. No authorization required.
func (s *Service) MaturityOf(ctx context.Context, asset string) (time.Time, bool, error) {
	asset, err := chain.ValidateAssetHash(asset)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}

	lock, err := s.locks.GetLock(ctx, asset)
	if err != nil {
		if errors.Is(err, storage.ErrLockNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return lock.Maturity, true, nil
}

// HeldBalanceOf returns the vault's current balance of the asset as reported
// by the ledger. No authorization required.
func (s *Service) HeldBalanceOf(ctx context.Context, asset string) (*big.Int, error) {
	asset, err := chain.ValidateAssetHash(asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}

	vault := s.adapter.VaultAddress()
	if cached, ok := s.balances.GetBalance(ctx, asset, vault); ok {
		return cached, nil
	}

	balance, err := s.adapter.BalanceOf(ctx, asset, vault)
	if err != nil {
		return nil, err
	}
	s.balances.SetBalance(ctx, asset, vault, balance)
	return balance, nil
}

// ListLocks returns all registered locks. Used by the maturity watcher and
// the HTTP surface.
func (s *Service) ListLocks(ctx context.Context) ([]timelock.Lock, error) {
	return s.locks.ListLocks(ctx)
}

// ListEvents returns recent notifications, newest first.
func (s *Service) ListEvents(ctx context.Context, limit int) ([]timelock.Event, error) {
	return s.events.ListEvents(ctx, limit)
}

// SweepNative transfers any incidentally-held native currency to the
// controller. It is not part of the lock state machine and touches no
// registry state.
func (s *Service) SweepNative(ctx context.Context, caller string) (*big.Int, error) {
	if !s.guard.Authorize(caller) {
		return nil, ErrNotAuthorized
	}

	balance, err := s.adapter.NativeBalance(ctx, s.adapter.VaultAddress())
	if err != nil {
		return nil, fmt.Errorf("read native balance: %w", err)
	}
	if balance.Sign() <= 0 {
		return nil, ErrNothingToRelease
	}

	recipient := s.guard.Controller()
	txHash, err := s.adapter.PushNative(ctx, recipient, balance)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferPushFailed, err)
	}

	s.emit(ctx, timelock.Event{
		Type:      timelock.EventNativeWithdrawn,
		Amount:    balance.String(),
		Recipient: recipient,
		TxHash:    txHash,
	})

	s.log.WithField("amount", balance.String()).
		WithField("recipient", recipient).
		Info("native balance swept")
	return balance, nil
}

// emit journals a notification and hands it to live subscribers. A journal
// failure is logged, not surfaced: the transfer already happened.
func (s *Service) emit(ctx context.Context, ev timelock.Event) {
	stored, err := s.events.AppendEvent(ctx, ev)
	if err != nil {
		s.log.WithError(err).
			WithField("type", string(ev.Type)).
			Warn("event journal append failed")
		stored = ev
	}
	s.broadcaster.Publish(stored)
}
