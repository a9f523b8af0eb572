package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/R3E-Network/time_vault/internal/app/domain/timelock"
	"github.com/R3E-Network/time_vault/internal/app/storage"
)

const testAsset = "0xd2a4cff31913016155e38e474a2c06d08be276cf"

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestGetLock(t *testing.T) {
	store, mock := newMockStore(t)
	maturity := time.Now().UTC().Add(time.Hour)
	created := time.Now().UTC()

	mock.ExpectQuery("SELECT asset, maturity, created_at").
		WithArgs(testAsset).
		WillReturnRows(sqlmock.NewRows([]string{"asset", "maturity", "created_at"}).
			AddRow(testAsset, maturity, created))

	lock, err := store.GetLock(context.Background(), testAsset)
	if err != nil {
		t.Fatalf("GetLock: %v", err)
	}
	if lock.Asset != testAsset || !lock.Maturity.Equal(maturity) {
		t.Fatalf("GetLock = %+v", lock)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetLockNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT asset, maturity, created_at").
		WithArgs(testAsset).
		WillReturnRows(sqlmock.NewRows([]string{"asset", "maturity", "created_at"}))

	if _, err := store.GetLock(context.Background(), testAsset); !errors.Is(err, storage.ErrLockNotFound) {
		t.Fatalf("GetLock = %v, want ErrLockNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSetLockInserts(t *testing.T) {
	store, mock := newMockStore(t)
	lock := timelock.Lock{
		Asset:     testAsset,
		Maturity:  time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT maturity FROM vault_locks").
		WithArgs(testAsset).
		WillReturnRows(sqlmock.NewRows([]string{"maturity"}))
	mock.ExpectExec("INSERT INTO vault_locks").
		WithArgs(testAsset, lock.Maturity, lock.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.SetLock(context.Background(), lock); err != nil {
		t.Fatalf("SetLock: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSetLockRejectsActiveLock(t *testing.T) {
	store, mock := newMockStore(t)
	lock := timelock.Lock{
		Asset:     testAsset,
		Maturity:  time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT maturity FROM vault_locks").
		WithArgs(testAsset).
		WillReturnRows(sqlmock.NewRows([]string{"maturity"}).
			AddRow(time.Now().UTC().Add(30 * time.Minute)))
	mock.ExpectRollback()

	if err := store.SetLock(context.Background(), lock); !errors.Is(err, storage.ErrLockExists) {
		t.Fatalf("SetLock over active lock = %v, want ErrLockExists", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSetLockOverwritesExpired(t *testing.T) {
	store, mock := newMockStore(t)
	lock := timelock.Lock{
		Asset:     testAsset,
		Maturity:  time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT maturity FROM vault_locks").
		WithArgs(testAsset).
		WillReturnRows(sqlmock.NewRows([]string{"maturity"}).
			AddRow(time.Now().UTC().Add(-time.Hour)))
	mock.ExpectExec("INSERT INTO vault_locks").
		WithArgs(testAsset, lock.Maturity, lock.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.SetLock(context.Background(), lock); err != nil {
		t.Fatalf("SetLock over expired lock: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestClearLock(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM vault_locks").
		WithArgs(testAsset).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.ClearLock(context.Background(), testAsset); err != nil {
		t.Fatalf("ClearLock: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListLocks(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT asset, maturity, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"asset", "maturity", "created_at"}).
			AddRow(testAsset, now.Add(time.Hour), now).
			AddRow("0xef4073a0f2b305a38ec4050e4d3d28bc40ea63f5", now.Add(2*time.Hour), now))

	locks, err := store.ListLocks(context.Background())
	if err != nil {
		t.Fatalf("ListLocks: %v", err)
	}
	if len(locks) != 2 {
		t.Fatalf("ListLocks returned %d rows, want 2", len(locks))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
