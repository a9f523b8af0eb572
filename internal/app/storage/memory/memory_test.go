package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/R3E-Network/time_vault/internal/app/domain/timelock"
	"github.com/R3E-Network/time_vault/internal/app/storage"
)

const testAsset = "0xd2a4cff31913016155e38e474a2c06d08be276cf"

func TestLockLifecycle(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.GetLock(ctx, testAsset); !errors.Is(err, storage.ErrLockNotFound) {
		t.Fatalf("GetLock on empty store = %v, want ErrLockNotFound", err)
	}

	lock := timelock.Lock{
		Asset:     testAsset,
		Maturity:  time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	}
	if err := store.SetLock(ctx, lock); err != nil {
		t.Fatalf("SetLock: %v", err)
	}

	got, err := store.GetLock(ctx, testAsset)
	if err != nil {
		t.Fatalf("GetLock: %v", err)
	}
	if !got.Maturity.Equal(lock.Maturity) {
		t.Fatalf("maturity = %v, want %v", got.Maturity, lock.Maturity)
	}

	if err := store.SetLock(ctx, lock); !errors.Is(err, storage.ErrLockExists) {
		t.Fatalf("SetLock over active lock = %v, want ErrLockExists", err)
	}

	if err := store.ClearLock(ctx, testAsset); err != nil {
		t.Fatalf("ClearLock: %v", err)
	}
	if _, err := store.GetLock(ctx, testAsset); !errors.Is(err, storage.ErrLockNotFound) {
		t.Fatalf("GetLock after clear = %v, want ErrLockNotFound", err)
	}

	// Clearing an absent lock is a no-op.
	if err := store.ClearLock(ctx, testAsset); err != nil {
		t.Fatalf("ClearLock on empty store: %v", err)
	}
}

func TestSetLockOverwritesExpired(t *testing.T) {
	store := New()
	ctx := context.Background()

	expired := timelock.Lock{
		Asset:     testAsset,
		Maturity:  time.Now().UTC().Add(-time.Hour),
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	if err := store.SetLock(ctx, expired); err != nil {
		t.Fatalf("SetLock(expired): %v", err)
	}

	fresh := timelock.Lock{
		Asset:     testAsset,
		Maturity:  time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	}
	if err := store.SetLock(ctx, fresh); err != nil {
		t.Fatalf("SetLock over expired lock = %v, want nil", err)
	}

	got, err := store.GetLock(ctx, testAsset)
	if err != nil {
		t.Fatalf("GetLock: %v", err)
	}
	if !got.Maturity.Equal(fresh.Maturity) {
		t.Fatalf("maturity = %v, want overwritten value %v", got.Maturity, fresh.Maturity)
	}
}

func TestListLocks(t *testing.T) {
	store := New()
	ctx := context.Background()

	assets := []string{
		"0xd2a4cff31913016155e38e474a2c06d08be276cf",
		"0xef4073a0f2b305a38ec4050e4d3d28bc40ea63f5",
	}
	for _, asset := range assets {
		lock := timelock.Lock{Asset: asset, Maturity: time.Now().UTC().Add(time.Hour)}
		if err := store.SetLock(ctx, lock); err != nil {
			t.Fatalf("SetLock(%s): %v", asset, err)
		}
	}

	locks, err := store.ListLocks(ctx)
	if err != nil {
		t.Fatalf("ListLocks: %v", err)
	}
	if len(locks) != len(assets) {
		t.Fatalf("ListLocks returned %d locks, want %d", len(locks), len(assets))
	}
}

func TestAppendAndListEvents(t *testing.T) {
	store := New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ev := timelock.Event{Type: timelock.EventVestingInitiated, Asset: testAsset}
		stored, err := store.AppendEvent(ctx, ev)
		if err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
		if stored.ID == "" {
			t.Fatal("AppendEvent did not assign an ID")
		}
		if stored.CreatedAt.IsZero() {
			t.Fatal("AppendEvent did not stamp CreatedAt")
		}
	}

	events, err := store.ListEvents(ctx, 2)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("ListEvents(2) returned %d events", len(events))
	}

	all, err := store.ListEvents(ctx, 0)
	if err != nil {
		t.Fatalf("ListEvents(0): %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListEvents(0) returned %d events, want all 3", len(all))
	}
}
